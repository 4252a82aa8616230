// Package layout holds the tooltip configuration: the ordered attribute rows
// and the number of body columns.
package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/loader"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// Column bounds.
const (
	MinColumns = 1
	MaxColumns = 4
)

// ExportFilename is the suggested file name for exported configurations.
const ExportFilename = "tooltip-config.json"

// ErrNoFile is returned when an import is requested without a file.
var ErrNoFile = errors.New("no data file to import")

// ValidationError reports a field with an unacceptable value.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Config is the installation-wide tooltip configuration.
type Config struct {
	Columns    int             `json:"columns"`
	Attributes []attribute.Row `json:"attributes"`
}

// Default returns a single-column configuration with no rows.
func Default() Config {
	return Config{Columns: MinColumns, Attributes: []attribute.Row{}}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := Config{Columns: c.Columns, Attributes: make([]attribute.Row, len(c.Attributes))}
	copy(out.Attributes, c.Attributes)
	return out
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Columns < MinColumns || c.Columns > MaxColumns {
		return &ValidationError{Field: "columns", Msg: fmt.Sprintf("%d is outside [%d, %d]", c.Columns, MinColumns, MaxColumns)}
	}
	for i, r := range c.Attributes {
		if err := r.Validate(); err != nil {
			return &ValidationError{Field: fmt.Sprintf("attributes.%d", i), Msg: err.Error()}
		}
	}
	return nil
}

// UnmarshalJSON decodes onto the receiver: keys absent from the document keep
// their current value, so decoding into an existing Config applies a partial
// update. Columns are clamped into range.
func (c *Config) UnmarshalJSON(b []byte) error {
	var raw struct {
		Columns    *float64         `json:"columns"`
		Attributes *[]attribute.Row `json:"attributes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	next := c.Clone()
	if next.Columns == 0 {
		next.Columns = MinColumns
	}
	if raw.Columns != nil {
		next.Columns = clampColumns(int(*raw.Columns))
	}
	if raw.Attributes != nil {
		next.Attributes = *raw.Attributes
	}
	if next.Attributes == nil {
		next.Attributes = []attribute.Row{}
	}
	*c = next
	return nil
}

func clampColumns(n int) int {
	return min(max(n, MinColumns), MaxColumns)
}

// Export returns the configuration as indented JSON.
func Export(c Config) ([]byte, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tooltip config: %w", err)
	}
	return b, nil
}

// Import applies data on top of cur and returns the result. JSON is the
// export format; YAML and TOML are accepted as well.
func Import(cur Config, data []byte) (Config, error) {
	return decode(cur, data, loader.FormatAuto)
}

// ImportFile reads path and applies it on top of cur.
func ImportFile(cur Config, path string) (Config, error) {
	if path == "" {
		return cur, ErrNoFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cur, fmt.Errorf("read tooltip config: %w", err)
	}
	return decode(cur, data, loader.FormatForPath(path))
}

func decode(cur Config, data []byte, format loader.Format) (Config, error) {
	next := cur.Clone()
	if err := loader.Decode(data, format, &next); err != nil {
		return cur, fmt.Errorf("decode tooltip config: %w", err)
	}
	if err := next.Validate(); err != nil {
		return cur, fmt.Errorf("decode tooltip config: %w", err)
	}
	return next, nil
}

// Load reads the stored configuration, or Default when none is stored.
func Load(ctx context.Context, reg *settings.Registry) (Config, error) {
	cfg := Default()
	if _, err := reg.Load(ctx, settings.KeyTooltipConfig, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save stores cfg after validating it.
func Save(ctx context.Context, reg *settings.Registry, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return reg.Save(ctx, settings.KeyTooltipConfig, cfg)
}
