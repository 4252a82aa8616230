// Package attribute models one configured tooltip row and turns it into a
// displayable {icon, value} pair for a token.
package attribute

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oakwood-commons/tokentip/pkg/host"
)

// Defaults applied to new rows and to missing fields on decode.
const (
	DefaultIcon = "fa-solid fa-heart"
	DefaultPath = "system.attributes.hp.value"
)

// Type selects how a row's Path is interpreted.
type Type string

const (
	// TypePath resolves Path as a dotted property path.
	TypePath Type = "path"
	// TypeCode evaluates Path as an expression.
	TypeCode Type = "code"
	// TypeGenerator is reserved and always yields an empty value.
	TypeGenerator Type = "generator"
)

// Types lists the selectable row types in display order.
func Types() []Type {
	return []Type{TypePath, TypeCode, TypeGenerator}
}

// ParseType parses a row type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypePath, TypeCode, TypeGenerator:
		return t, nil
	}
	return TypePath, fmt.Errorf("unknown row type %q", s)
}

// UnmarshalText decodes a row type. Unknown names fall back to TypePath.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, _ := ParseType(string(b))
	*t = parsed
	return nil
}

// Row is one displayable fact in the tooltip.
type Row struct {
	// Permission is the minimum viewer permission on the actor.
	Permission host.Permission `json:"permission"`
	// Pill renders the row as a header badge instead of a body row.
	Pill bool   `json:"pill"`
	Icon string `json:"icon"`
	Type Type   `json:"type"`
	// Path is a property path or, for TypeCode, an expression. Never empty by default.
	Path string `json:"path"`
}

// NewRow returns a row with default values.
func NewRow() Row {
	return Row{
		Permission: host.PermissionNone,
		Icon:       DefaultIcon,
		Type:       TypePath,
		Path:       DefaultPath,
	}
}

// UnmarshalJSON decodes a row; missing or null fields take their defaults.
func (r *Row) UnmarshalJSON(b []byte) error {
	var raw struct {
		Permission *host.Permission `json:"permission"`
		Pill       *bool            `json:"pill"`
		Icon       *string          `json:"icon"`
		Type       *Type            `json:"type"`
		Path       *string          `json:"path"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	row := NewRow()
	if raw.Permission != nil {
		row.Permission = *raw.Permission
	}
	if raw.Pill != nil {
		row.Pill = *raw.Pill
	}
	if raw.Icon != nil {
		row.Icon = *raw.Icon
	}
	if raw.Type != nil {
		row.Type = *raw.Type
	}
	if raw.Path != nil {
		row.Path = *raw.Path
	}
	*r = row
	return nil
}

// Validate reports field values the configuration form would reject.
func (r Row) Validate() error {
	if !r.Permission.Valid() {
		return fmt.Errorf("permission %d is out of range", r.Permission)
	}
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}
	return nil
}

// Object returns the row as a plain map, the read-only snapshot handed to expressions.
func (r Row) Object() map[string]any {
	return map[string]any{
		"permission": int64(r.Permission),
		"pill":       r.Pill,
		"icon":       r.Icon,
		"type":       string(r.Type),
		"path":       r.Path,
	}
}

// String returns the row's JSON form, used in logs.
func (r Row) String() string {
	b, _ := json.Marshal(r)
	return string(b)
}

// Value is a generated row.
type Value struct {
	Icon  string `json:"icon"`
	Value string `json:"value"`
}
