// Package preset holds the named row generators code rows can reference
// through the presets variable.
package preset

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
)

// ErrFrozen is returned when registering into a frozen table.
var ErrFrozen = errors.New("preset table is frozen")

// Table maps preset names to generators. It is filled during start-up and
// then frozen; lookups are safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	funcs  map[string]attribute.PresetFunc
	frozen bool
}

// NewTable returns an empty, writable table.
func NewTable() *Table {
	return &Table{funcs: make(map[string]attribute.PresetFunc)}
}

// Register adds a preset. Names must be unique.
func (t *Table) Register(name string, fn attribute.PresetFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("preset needs a name and a function")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return fmt.Errorf("register %q: %w", name, ErrFrozen)
	}
	if _, ok := t.funcs[name]; ok {
		return fmt.Errorf("preset %q already registered", name)
	}
	t.funcs[name] = fn
	return nil
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Lookup implements attribute.PresetLookup.
func (t *Table) Lookup(name string) (attribute.PresetFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names implements attribute.PresetLookup. The result is sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a frozen table holding the built-in presets.
func Default() *Table {
	t := NewTable()
	for name, fn := range Builtins() {
		// names are unique and the table is fresh
		_ = t.Register(name, fn)
	}
	t.Freeze()
	return t
}

// Builtins returns the built-in presets by name.
func Builtins() map[string]attribute.PresetFunc {
	return map[string]attribute.PresetFunc{
		"health":      Health,
		"armor":       Armor,
		"distance":    Distance,
		"disposition": Disposition,
	}
}
