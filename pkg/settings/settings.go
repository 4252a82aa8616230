// Package settings provides build metadata, runtime configuration, the
// host settings registry, and context helpers used across tokentip.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "tokentip"

// ModuleID namespaces every persisted setting and the rendered markup.
const ModuleID = "tokentip"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds configuration settings for a single execution of the CLI:
// logging, who is looking at the board, and where settings are persisted.
type Run struct {
	MinLogLevel int8
	IsQuiet     bool
	NoColor     bool

	// User is the viewing user's id; empty uses the scene fixture's user.
	// GM grants owner permission on every actor.
	User string
	GM   bool
	// DBPath selects the SQLite settings store; empty keeps settings in memory.
	DBPath string
	// Addr is the listen address of the HTTP bridge.
	Addr string
	// TraceEndpoint is where serve exports spans; empty keeps tracing off.
	TraceEndpoint string
}

// NewCliParams returns Run defaults for CLI usage.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		IsQuiet:     false,
		NoColor:     false,
		Addr:        DefaultAddr,
	}
}
