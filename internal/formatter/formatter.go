// Package formatter turns resolved attribute values into tooltip cell text.
package formatter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Undefined is shown for values that do not exist.
const Undefined = "undefined"

// Stringify returns the display string of an arbitrary value.
// Scalars use their natural form (named numeric types print as numbers),
// slices are joined with ",", maps and structs become compact JSON unless they
// implement fmt.Stringer. nil renders as Undefined.
func Stringify(v any) string {
	if v == nil {
		return Undefined
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case bool:
		return strconv.FormatBool(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // remaining kinds fall through to fmt
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return escapeScalarString(rv.String())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Undefined
		}
		return Stringify(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			elem := rv.Index(i).Interface()
			if elem == nil {
				continue
			}
			parts[i] = Stringify(elem)
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		if s, ok := v.(fmt.Stringer); ok {
			return escapeScalarString(s.String())
		}
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escapeScalarString flattens line breaks so a tooltip row stays single-line.
func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", " ")
}
