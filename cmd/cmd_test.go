package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/tokentip/pkg/layout"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

var (
	sceneFile  = filepath.Join("testdata", "scene.yaml")
	configFile = filepath.Join("testdata", "tooltip-config.json")
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := ExecuteContext(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, settings.CliBinaryName+" "+settings.VersionInformation.BuildVersion)
}

func TestRenderText(t *testing.T) {
	out, _, err := execute(t, "render", sceneFile, "t-goblin", "--config", configFile, "--width", "60", "--no-color")
	require.NoError(t, err)
	require.Contains(t, out, "Goblin 1")
	require.Contains(t, out, "[heart-pulse: Lightly Wounded (3)]")
	require.Contains(t, out, "ruler: 20.0  ft")
	require.NotContains(t, out, "heart: 7", "player1 only has LIMITED on the goblin")
	require.NotContains(t, out, "shield:")
	require.Contains(t, out, "@ 520,295")
}

func TestRenderAsGM(t *testing.T) {
	out, _, err := execute(t, "render", sceneFile, "t-goblin", "--config", configFile, "--width", "80", "--user", "dm", "--gm")
	require.NoError(t, err)
	require.Contains(t, out, "heart: 7")
	require.Contains(t, out, "shield: Medium Natural")
	require.Contains(t, out, "ruler: NaN", "a game master without a speaker has no distance")
}

func TestRenderUserFromEnv(t *testing.T) {
	t.Setenv("TOKENTIP_USER", "dm")
	t.Setenv("TOKENTIP_GM", "true")
	out, _, err := execute(t, "render", sceneFile, "t-goblin", "--config", configFile, "--width", "80")
	require.NoError(t, err)
	require.Contains(t, out, "heart: 7")
}

func TestRenderHTML(t *testing.T) {
	out, _, err := execute(t, "render", sceneFile, "t-hero", "--format", "html")
	require.NoError(t, err)
	require.Contains(t, out, `<div id="tokentip-token-tooltip" class="tokentip token-tooltip active" style="left: 220px; top: 95px;">`)
	require.Contains(t, out, "<h3>Aria</h3>")
}

func TestRenderAllTokensReportsRefusals(t *testing.T) {
	out, _, err := execute(t, "render", sceneFile, "--width", "60")
	require.NoError(t, err)
	require.Contains(t, out, "Aria")
	require.Contains(t, out, "chest: no tooltip (item-pile)")
	require.Contains(t, out, "t-far: no tooltip (not-rendered)")
}

func TestRenderWindow(t *testing.T) {
	out, _, err := execute(t, "render", sceneFile, "--tail", "2", "--width", "60")
	require.NoError(t, err)
	require.NotContains(t, out, "Aria")
	require.Contains(t, out, "chest: no tooltip (item-pile)")
	require.Contains(t, out, "t-far: no tooltip (not-rendered)")

	_, _, err = execute(t, "render", sceneFile, "--limit", "1", "--tail", "1")
	require.ErrorContains(t, err, "mutually exclusive")
}

func TestRenderErrors(t *testing.T) {
	_, _, err := execute(t, "render", sceneFile, "nope")
	require.ErrorContains(t, err, `token "nope" is not in the scene`)

	_, _, err = execute(t, "render", sceneFile, "--format", "pdf")
	require.ErrorContains(t, err, "invalid --format")

	_, _, err = execute(t, "render", filepath.Join("testdata", "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = execute(t, "render", sceneFile, "t-goblin", "--config", filepath.Join("testdata", "broken-config.yaml"))
	require.ErrorContains(t, err, "code row")
}

func TestConfigRoundTripThroughDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tokentip.db")

	_, stderr, err := execute(t, "config", "import", configFile, "--db", db)
	require.NoError(t, err)
	require.Contains(t, stderr, "imported")

	out, _, err := execute(t, "config", "show", "--db", db, "-o", "json")
	require.NoError(t, err)
	cfg, err := layout.Import(layout.Default(), []byte(out))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Columns)
	require.Len(t, cfg.Attributes, 4)

	out, _, err = execute(t, "config", "show", "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "columns: 2")

	exported := filepath.Join(t.TempDir(), "out.json")
	_, _, err = execute(t, "config", "export", "--db", db, "--out", exported, "-q")
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	require.Contains(t, string(data), `"path": "presets.health"`)

	out, _, err = execute(t, "render", sceneFile, "t-goblin", "--db", db, "--width", "60")
	require.NoError(t, err)
	require.Contains(t, out, "Lightly Wounded (3)")
}

func TestConfigImportNeedsFile(t *testing.T) {
	_, _, err := execute(t, "config", "import")
	require.ErrorIs(t, err, layout.ErrNoFile)
}

func TestConfigValidate(t *testing.T) {
	_, stderr, err := execute(t, "config", "validate", configFile)
	require.NoError(t, err)
	require.Contains(t, stderr, "4 rows, 2 columns")

	_, _, err = execute(t, "config", "validate", filepath.Join("testdata", "broken-config.yaml"))
	require.ErrorContains(t, err, "row 0")
}

func TestConfigShowRejectsOutput(t *testing.T) {
	_, _, err := execute(t, "config", "show", "-o", "xml")
	require.ErrorContains(t, err, "invalid --output")
}

func TestSettings(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tokentip.db")
	_, _, err := execute(t, "settings", "set", settings.KeyDisableTooltipsDead, "false", "--db", db, "--user", "alice")
	require.NoError(t, err)

	out, _, err := execute(t, "settings", "--db", db, "--user", "alice", "--no-color")
	require.NoError(t, err)
	require.Contains(t, out, "disableTooltipsDead   false  client")
	require.Contains(t, out, "enableTooltips        true   client")
	require.NotContains(t, out, settings.KeyTooltipConfig)

	out, _, err = execute(t, "settings", "--db", db, "--user", "bob", "--no-color")
	require.NoError(t, err)
	require.Contains(t, out, "disableTooltipsDead   true ")

	_, _, err = execute(t, "settings", "set", "bogus", "true")
	require.ErrorIs(t, err, settings.ErrUnknownSetting)
	_, _, err = execute(t, "settings", "set", settings.KeyEnableTooltips, "maybe")
	require.ErrorContains(t, err, "invalid value")
}

func TestDisabledTooltips(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tokentip.db")
	_, _, err := execute(t, "settings", "set", settings.KeyEnableTooltips, "false", "--db", db, "--user", "player1")
	require.NoError(t, err)
	out, _, err := execute(t, "render", sceneFile, "t-goblin", "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "t-goblin: no tooltip (disabled)")
}

func TestFunctions(t *testing.T) {
	out, _, err := execute(t, "functions")
	require.NoError(t, err)
	require.Contains(t, out, "  health\n")
	require.Contains(t, out, "  distance\n")
	require.Contains(t, out, "  size\n")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
