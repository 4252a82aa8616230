package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSetting is returned for keys that were never registered.
var ErrUnknownSetting = errors.New("unknown setting")

// Scope decides who a stored value belongs to.
type Scope string

const (
	// ScopeClient values are stored per user.
	ScopeClient Scope = "client"
	// ScopeWorld values are shared by the whole installation.
	ScopeWorld Scope = "world"
)

// Setting keys.
const (
	KeyEnableTooltips       = "enableTooltips"
	KeyDisableTooltipsRuler = "disableTooltipsRuler"
	KeyDisableTooltipsDrag  = "disableTooltipsDrag"
	KeyDisableTooltipsPile  = "disableTooltipsPile"
	KeyDisableTooltipsDead  = "disableTooltipsDead"
	KeyTooltipConfig        = "tooltipConfig"
)

// Definition describes a registered setting.
type Definition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Hint string `json:"hint"`
	// Scope selects per-user or per-installation storage.
	Scope Scope `json:"scope"`
	// Config marks settings shown in the host's settings dialog.
	Config bool `json:"config"`
	// Default is returned while nothing is stored. nil means the caller supplies one.
	Default any `json:"default,omitempty"`
}

// Definitions returns the tooltip settings in registration order.
func Definitions() []Definition {
	toggle := func(key, name, hint string) Definition {
		return Definition{Key: key, Name: name, Hint: hint, Scope: ScopeClient, Config: true, Default: true}
	}
	return []Definition{
		{Key: KeyTooltipConfig, Name: "tooltipConfig", Hint: "Internal", Scope: ScopeWorld},
		toggle(KeyEnableTooltips, "Enable Tooltips", "Enable to show tooltips, disable to turn them off completely."),
		toggle(KeyDisableTooltipsRuler, "Disable on Measurement Layer.", "Enable to hide tooltips while using the measurement ruler."),
		toggle(KeyDisableTooltipsDrag, "Disable While Dragging", "Enable to prevent tooltips from appearing when moving a token."),
		toggle(KeyDisableTooltipsPile, "Disable on Item Piles", "Enable to hide tooltips for item piles."),
		toggle(KeyDisableTooltipsDead, "Disable on Dead Tokens", "Enable to hide tooltips for tokens marked as dead."),
	}
}

// Store persists raw JSON setting values. owner is the user id for client
// scoped keys and empty for world scoped keys.
type Store interface {
	Get(ctx context.Context, scope Scope, owner, key string) ([]byte, bool, error)
	Set(ctx context.Context, scope Scope, owner, key string, value []byte) error
}

// ChangeFunc is called after a value was written.
type ChangeFunc func(key string)

// Registry is the typed view of a Store for one user.
type Registry struct {
	store Store
	user  string

	mu       sync.RWMutex
	defs     map[string]Definition
	order    []string
	onChange []ChangeFunc
}

// NewRegistry returns a registry for user holding the tooltip definitions.
func NewRegistry(store Store, user string) *Registry {
	r := &Registry{store: store, user: user, defs: make(map[string]Definition)}
	for _, def := range Definitions() {
		// definitions are unique
		_ = r.Register(def)
	}
	return r
}

// Register adds a definition.
func (r *Registry) Register(def Definition) error {
	if def.Key == "" {
		return errors.New("setting key is empty")
	}
	if def.Scope != ScopeClient && def.Scope != ScopeWorld {
		return fmt.Errorf("setting %q: invalid scope %q", def.Key, def.Scope)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Key]; ok {
		return fmt.Errorf("setting %q already registered", def.Key)
	}
	r.defs[def.Key] = def
	r.order = append(r.order, def.Key)
	return nil
}

// Definitions lists registered settings in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.defs[key])
	}
	return out
}

// Keys lists registered keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := append([]string(nil), r.order...)
	sort.Strings(keys)
	return keys
}

// User returns the user client scoped values are stored for.
func (r *Registry) User() string {
	return r.user
}

// OnChange registers fn to run after every successful write.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

func (r *Registry) lookup(key string) (Definition, string, error) {
	r.mu.RLock()
	def, ok := r.defs[key]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, "", fmt.Errorf("%q: %w", key, ErrUnknownSetting)
	}
	owner := ""
	if def.Scope == ScopeClient {
		owner = r.user
	}
	return def, owner, nil
}

// Load decodes the stored value of key into target. It reports false when
// nothing is stored and the definition has no default.
func (r *Registry) Load(ctx context.Context, key string, target any) (bool, error) {
	def, owner, err := r.lookup(key)
	if err != nil {
		return false, err
	}
	raw, ok, err := r.store.Get(ctx, def.Scope, owner, key)
	if err != nil {
		return false, fmt.Errorf("get setting %q: %w", key, err)
	}
	if !ok {
		if def.Default == nil {
			return false, nil
		}
		if raw, err = json.Marshal(def.Default); err != nil {
			return false, fmt.Errorf("encode default of %q: %w", key, err)
		}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return true, nil
}

// Save encodes value and stores it under key.
func (r *Registry) Save(ctx context.Context, key string, value any) error {
	def, owner, err := r.lookup(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	if err := r.store.Set(ctx, def.Scope, owner, key, raw); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}

	r.mu.RLock()
	hooks := append([]ChangeFunc(nil), r.onChange...)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn(key)
	}
	return nil
}

// Bool returns a boolean setting.
func (r *Registry) Bool(ctx context.Context, key string) (bool, error) {
	var v bool
	if _, err := r.Load(ctx, key, &v); err != nil {
		return false, err
	}
	return v, nil
}

// SetBool stores a boolean setting.
func (r *Registry) SetBool(ctx context.Context, key string, v bool) error {
	return r.Save(ctx, key, v)
}

// Toggles is a snapshot of the boolean tooltip settings.
type Toggles struct {
	Enable   bool
	Ruler    bool
	Drag     bool
	ItemPile bool
	Dead     bool
}

// Toggles reads all boolean tooltip settings.
func (r *Registry) Toggles(ctx context.Context) (Toggles, error) {
	var t Toggles
	for key, dst := range map[string]*bool{
		KeyEnableTooltips:       &t.Enable,
		KeyDisableTooltipsRuler: &t.Ruler,
		KeyDisableTooltipsDrag:  &t.Drag,
		KeyDisableTooltipsPile:  &t.ItemPile,
		KeyDisableTooltipsDead:  &t.Dead,
	} {
		v, err := r.Bool(ctx, key)
		if err != nil {
			return Toggles{}, err
		}
		*dst = v
	}
	return t, nil
}
