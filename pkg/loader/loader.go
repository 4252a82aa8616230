// Package loader parses JSON, YAML and TOML documents into plain Go values
// and decodes them into typed structs through their JSON tags.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned for blank documents.
var ErrEmptyInput = errors.New("empty input")

// Format names a document syntax.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks a format from a file extension, FormatAuto when unknown.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// DetectFormat guesses the syntax of input.
// JSON objects and arrays are recognised first, then TOML section headers or
// key = value lines; everything else is treated as YAML.
func DetectFormat(input string) Format {
	trimmed := strings.TrimSpace(input)
	if isLikelyTOML(trimmed) {
		return FormatTOML
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadRoot parses input into a single root node using auto-detection.
func LoadRoot(input string) (any, error) {
	return Load([]byte(input), FormatAuto)
}

// Load parses data in the given format.
func Load(data []byte, format Format) (any, error) {
	input := strings.TrimSpace(string(data))
	if input == "" {
		return nil, ErrEmptyInput
	}
	if format == FormatAuto {
		format = DetectFormat(input)
	}

	var out any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal([]byte(input), &out); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal([]byte(input), &out); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(input), &out); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return out, nil
}

// LoadFile reads a file and parses it, dispatching on the extension.
func LoadFile(path string) (any, error) {
	return LoadFileWithLogger(path, logr.Discard())
}

// LoadFileWithLogger is like LoadFile but records the format decision.
func LoadFileWithLogger(path string, lgr logr.Logger) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := FormatForPath(path)
	lgr.V(1).Info("loading document", "path", path, "format", string(format))
	return Load(data, format)
}

// Decode parses data and decodes it into target. The parsed tree is
// round-tripped through JSON so target only needs json tags and its
// UnmarshalJSON hooks apply regardless of the source syntax.
func Decode(data []byte, format Format, target any) error {
	root, err := Load(data, format)
	if err != nil {
		return err
	}
	b, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("re-encode document: %w", err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Normalize converts arbitrary Go values into JSON-compatible maps, slices
// and scalars so expression engines can walk them. Structs go through their
// JSON tags; maps and primitive values are returned as-is.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	kind := rv.Kind()
	if kind == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		kind = rv.Kind()
	}

	switch kind {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return rv.Interface(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			v, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element [%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		if m, ok := rv.Interface().(map[string]any); ok {
			return m, nil
		}
		return viaJSON(rv.Interface())
	case reflect.Interface:
		return Normalize(rv.Interface())
	default:
		return viaJSON(rv.Interface())
	}
}

func viaJSON(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T to JSON: %w", value, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot unmarshal to standard type: %w", err)
	}
	return out, nil
}

var (
	tomlSection  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML returns true for section headers like [server] or [[items]],
// or when most lines are key = value pairs.
func isLikelyTOML(input string) bool {
	sections, pairs, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			pairs++
		}
	}
	if sections > 0 {
		return true
	}
	return nonEmpty > 0 && pairs > nonEmpty/2
}
