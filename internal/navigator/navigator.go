// Package navigator resolves dotted property paths against arbitrary Go values:
// string-keyed maps, slices, arrays and structs (by json tag or field name).
package navigator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotFound is wrapped by Resolve when a segment does not exist.
var ErrNotFound = errors.New("property not found")

// Lookup returns the value at path, or false when any segment is missing.
// An empty path returns root.
func Lookup(root any, path string) (any, bool) {
	v, err := Resolve(root, path)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Resolve walks path into root.
// Keys are separated by '.'; numeric segments index slices; "items[0]" and
// `items["key"]` are accepted as well.
func Resolve(root any, path string) (any, error) {
	trimmed := strings.TrimSpace(path)
	cur := root
	for _, step := range ParsePath(trimmed) {
		next, err := navigateStep(cur, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ParsePath splits a path into navigation steps, handling both dot and bracket notation.
//
//	"items.0"                   -> ["items", "0"]
//	"items[0].tags"             -> ["items", "0", "tags"]
//	"system.attributes.hp.value" -> ["system", "attributes", "hp", "value"]
func ParsePath(path string) []string {
	var parts []string
	var current strings.Builder

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		case '[':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				parts = append(parts, path[i+1:j])
				i = j
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func navigateStep(cur any, step string) (any, error) {
	key := step
	if strings.HasPrefix(key, `"`) && strings.HasSuffix(key, `"`) && len(key) > 1 {
		key = key[1 : len(key)-1]
	}

	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[key]
		if !ok {
			return nil, fmt.Errorf("%w: key '%s'", ErrNotFound, key)
		}
		return v, nil
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("%w: index '%s'", ErrNotFound, step)
		}
		return t[idx], nil
	}

	rv := reflect.ValueOf(cur)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: cannot descend into nil at '%s'", ErrNotFound, step)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: cannot descend into %T at '%s'", ErrNotFound, cur, step)
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds can be descended into
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: cannot descend into %T at '%s'", ErrNotFound, cur, step)
		}
		value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, fmt.Errorf("%w: key '%s'", ErrNotFound, key)
		}
		return value.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("%w: index '%s'", ErrNotFound, step)
		}
		return rv.Index(idx).Interface(), nil
	case reflect.Struct:
		if field, ok := structFieldValue(rv, key); ok {
			return field, nil
		}
		return nil, fmt.Errorf("%w: key '%s'", ErrNotFound, key)
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at '%s'", ErrNotFound, cur, step)
	}
}

func structFieldValue(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("json"), ",")[0]
		if tagName == "-" {
			continue
		}
		if tagName == key || field.Name == key {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}
