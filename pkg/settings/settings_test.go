package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCliParams(t *testing.T) {
	got := NewCliParams()
	require.Equal(t, &Run{Addr: DefaultAddr}, got)
}

func TestRunContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	run := &Run{User: "alice", NoColor: true}
	got, ok := FromContext(IntoContext(context.Background(), run))
	require.True(t, ok)
	require.Same(t, run, got)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("TOKENTIP_DB", "/tmp/tokentip.db")
	t.Setenv("TOKENTIP_USER", "alice")
	t.Setenv("TOKENTIP_GM", "false")
	t.Setenv("TOKENTIP_LOG_LEVEL", "2")

	cfg, err := ParseEnv()
	require.NoError(t, err)
	require.Equal(t, Env{DBPath: "/tmp/tokentip.db", User: "alice", GM: false, LogLevel: 2, Addr: DefaultAddr, OTelEnabled: true}, cfg)

	run := NewCliParams()
	cfg.Apply(run)
	require.Equal(t, "alice", run.User)
	require.Equal(t, int8(2), run.MinLogLevel)

	run = &Run{User: "bob", GM: true}
	Env{}.Apply(run)
	require.Equal(t, "bob", run.User)
	require.True(t, run.GM, "an unset user keeps the current one")

	t.Setenv("TOKENTIP_OTEL_ENDPOINT", "http://collector:4318")
	cfg, err = ParseEnv()
	require.NoError(t, err)
	cfg.Apply(run)
	require.Equal(t, "http://collector:4318", run.TraceEndpoint)

	t.Setenv("TOKENTIP_OTEL_ENABLED", "false")
	cfg, err = ParseEnv()
	require.NoError(t, err)
	run = NewCliParams()
	cfg.Apply(run)
	require.Empty(t, run.TraceEndpoint, "an explicit opt-out wins over the endpoint")

	t.Setenv("TOKENTIP_LOG_LEVEL", "loud")
	_, err = ParseEnv()
	require.ErrorContains(t, err, "parse env")
}

func TestRegistryDefaults(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), "alice")

	toggles, err := reg.Toggles(ctx)
	require.NoError(t, err)
	require.Equal(t, Toggles{Enable: true, Ruler: true, Drag: true, ItemPile: true, Dead: true}, toggles)

	var cfg map[string]any
	found, err := reg.Load(ctx, KeyTooltipConfig, &cfg)
	require.NoError(t, err)
	require.False(t, found)

	_, err = reg.Bool(ctx, "nope")
	require.ErrorIs(t, err, ErrUnknownSetting)
}

func TestRegistryScopes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := NewRegistry(store, "alice")
	bob := NewRegistry(store, "bob")

	require.NoError(t, alice.SetBool(ctx, KeyEnableTooltips, false))
	on, err := alice.Bool(ctx, KeyEnableTooltips)
	require.NoError(t, err)
	require.False(t, on)
	on, err = bob.Bool(ctx, KeyEnableTooltips)
	require.NoError(t, err)
	require.True(t, on, "client settings are per user")

	require.NoError(t, alice.Save(ctx, KeyTooltipConfig, map[string]any{"columns": 2}))
	var cfg map[string]any
	found, err := bob.Load(ctx, KeyTooltipConfig, &cfg)
	require.NoError(t, err)
	require.True(t, found, "world settings are shared")
	require.Equal(t, float64(2), cfg["columns"])
}

func TestRegistryRegisterAndChange(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), "alice")

	require.Error(t, reg.Register(Definition{Key: KeyEnableTooltips, Scope: ScopeClient}))
	require.Error(t, reg.Register(Definition{Key: "x", Scope: "galaxy"}))
	require.Error(t, reg.Register(Definition{Scope: ScopeClient}))
	require.NoError(t, reg.Register(Definition{Key: "extra", Scope: ScopeWorld, Default: "x"}))
	require.Len(t, reg.Definitions(), len(Definitions())+1)
	require.Equal(t, KeyTooltipConfig, reg.Definitions()[0].Key)
	require.Contains(t, reg.Keys(), "extra")

	var changed []string
	reg.OnChange(func(key string) { changed = append(changed, key) })
	require.NoError(t, reg.SetBool(ctx, KeyDisableTooltipsDead, false))
	require.Equal(t, []string{KeyDisableTooltipsDead}, changed)
}

type failingStore struct{}

func (failingStore) Get(context.Context, Scope, string, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (failingStore) Set(context.Context, Scope, string, string, []byte) error {
	return errors.New("disk on fire")
}

func TestRegistryStoreErrors(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(failingStore{}, "alice")
	_, err := reg.Bool(ctx, KeyEnableTooltips)
	require.ErrorContains(t, err, "disk on fire")
	require.ErrorContains(t, reg.SetBool(ctx, KeyEnableTooltips, true), "disk on fire")

	_, err = reg.Toggles(ctx)
	require.Error(t, err)
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	require.ErrorIs(t, store.Set(ctx, ScopeWorld, "", "k", []byte("1")), context.Canceled)
	_, _, err := store.Get(ctx, ScopeWorld, "", "k")
	require.ErrorIs(t, err, context.Canceled)
}
