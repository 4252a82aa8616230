package settings

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultAddr is the bridge listen address used when neither env nor flags set one.
const DefaultAddr = "127.0.0.1:8787"

// Env is the environment-provided configuration. Flags override it.
type Env struct {
	DBPath   string `env:"TOKENTIP_DB"`
	User     string `env:"TOKENTIP_USER"`
	GM       bool   `env:"TOKENTIP_GM"`
	LogLevel int8   `env:"TOKENTIP_LOG_LEVEL" envDefault:"0"`
	Addr     string `env:"TOKENTIP_ADDR" envDefault:"127.0.0.1:8787"`
	// OTelEndpoint is the OTLP/HTTP collector URL for serve; empty disables tracing.
	OTelEndpoint string `env:"TOKENTIP_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"TOKENTIP_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Apply copies the environment values into r. An unset user keeps r's.
func (e Env) Apply(r *Run) {
	r.DBPath = e.DBPath
	if e.User != "" {
		r.User = e.User
		r.GM = e.GM
	}
	r.MinLogLevel = e.LogLevel
	r.Addr = e.Addr
	if e.OTelEnabled {
		r.TraceEndpoint = e.OTelEndpoint
	}
}
