package layout

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/settings"
	"github.com/stretchr/testify/require"
)

func sampleConfig() Config {
	hp := attribute.NewRow()
	hp.Permission = host.PermissionLimited
	pill := attribute.Row{Icon: "fa-solid fa-skull", Pill: true, Type: attribute.TypeCode, Path: "presets.disposition"}
	return Config{Columns: 2, Attributes: []attribute.Row{hp, pill, hp}}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 1, cfg.Columns)
	require.NotNil(t, cfg.Attributes)
	require.Empty(t, cfg.Attributes)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := sampleConfig()
	require.NoError(t, cfg.Validate())

	cfg.Columns = 5
	var verr *ValidationError
	require.ErrorAs(t, cfg.Validate(), &verr)
	require.Equal(t, "columns", verr.Field)

	cfg = sampleConfig()
	cfg.Attributes[1].Permission = 9
	require.ErrorAs(t, cfg.Validate(), &verr)
	require.Equal(t, "attributes.1", verr.Field)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := sampleConfig()
	clone := cfg.Clone()
	clone.Attributes[0].Icon = "changed"
	require.Equal(t, attribute.DefaultIcon, cfg.Attributes[0].Icon)
}

func TestUnmarshalClampsAndDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"columns": 9, "attributes": [{"path": null}]}`), &cfg))
	require.Equal(t, MaxColumns, cfg.Columns)
	require.Equal(t, []attribute.Row{attribute.NewRow()}, cfg.Attributes)

	cfg = Config{}
	require.NoError(t, json.Unmarshal([]byte(`{"columns": 0}`), &cfg))
	require.Equal(t, MinColumns, cfg.Columns)
	require.NotNil(t, cfg.Attributes)
}

func TestExportImportRoundTrip(t *testing.T) {
	cfg := sampleConfig()
	data, err := Export(cfg)
	require.NoError(t, err)
	require.Contains(t, string(data), "\n  \"columns\": 2")

	got, err := Import(Default(), data)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestImportPartialKeepsCurrent(t *testing.T) {
	cur := sampleConfig()
	got, err := Import(cur, []byte(`{"columns": 3}`))
	require.NoError(t, err)
	require.Equal(t, 3, got.Columns)
	require.Equal(t, cur.Attributes, got.Attributes)
}

func TestImportMalformed(t *testing.T) {
	cur := sampleConfig()
	got, err := Import(cur, []byte(`{"columns": `))
	require.ErrorContains(t, err, "decode tooltip config")
	require.Equal(t, cur, got)

	_, err = Import(cur, []byte(`{"attributes": [{"permission": 7}]}`))
	require.ErrorContains(t, err, "decode tooltip config")
}

func TestImportFile(t *testing.T) {
	_, err := ImportFile(Default(), "")
	require.ErrorIs(t, err, ErrNoFile)

	path := filepath.Join(t.TempDir(), "tooltip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: 2\nattributes:\n  - type: code\n    path: presets.health\n"), 0o600))
	got, err := ImportFile(Default(), path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Columns)
	require.Len(t, got.Attributes, 1)
	require.Equal(t, attribute.TypeCode, got.Attributes[0].Type)
	require.Equal(t, attribute.DefaultIcon, got.Attributes[0].Icon)

	_, err = ImportFile(Default(), filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read tooltip config")
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	reg := settings.NewRegistry(settings.NewMemoryStore(), "gm")

	cfg, err := Load(ctx, reg)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	require.NoError(t, Save(ctx, reg, sampleConfig()))
	cfg, err = Load(ctx, reg)
	require.NoError(t, err)
	require.Equal(t, sampleConfig(), cfg)

	bad := sampleConfig()
	bad.Columns = 0
	require.Error(t, Save(ctx, reg, bad))
}
