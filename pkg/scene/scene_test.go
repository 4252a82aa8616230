package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/loader"
)

func loadAmbush(t *testing.T) *Scene {
	t.Helper()
	s, err := LoadFile(filepath.Join("testdata", "ambush.yaml"))
	require.NoError(t, err)
	return s
}

func TestLoadFile(t *testing.T) {
	s := loadAmbush(t)
	require.Equal(t, "Goblin Ambush", s.Name())
	require.Equal(t, []string{"t-hero", "t-goblin", "chest", "t-far"}, s.TokenIDs())
	require.Equal(t, host.OwnershipViewer{ID: "player1"}, s.Viewer())
	require.Equal(t, "select", s.ActiveTool())
	require.Equal(t, "ft", s.GridUnits())
	require.True(t, s.EquidistantDiagonals())

	goblin := s.Token("t-goblin")
	require.NotNil(t, goblin)
	require.Equal(t, "Goblin", goblin.Actor().Name)
	require.Equal(t, host.DispositionHostile, goblin.Document.Disposition)
	require.Equal(t, &host.Transform{TX: 400, TY: 300, A: 1}, goblin.Transform)
	require.Equal(t, 100.0, goblin.W)
	require.Equal(t, host.PermissionLimited, s.Viewer().Permission(goblin.Actor()))

	require.Nil(t, s.Token("t-far").Transform)
	require.Nil(t, s.Token("nope"))
}

func TestParseFormats(t *testing.T) {
	inputs := map[loader.Format]string{
		loader.FormatJSON: `{"name": "x", "actors": [{"id": "a"}], "tokens": [{"id": "t", "actorId": "a"}]}`,
		loader.FormatTOML: "name = \"x\"\n[[actors]]\nid = \"a\"\n[[tokens]]\nid = \"t\"\nactorId = \"a\"\n",
		loader.FormatYAML: "name: x\nactors: [{id: a}]\ntokens: [{id: t, actorId: a}]\n",
	}
	for format, input := range inputs {
		t.Run(string(format), func(t *testing.T) {
			s, err := Parse([]byte(input), format)
			require.NoError(t, err)
			tok := s.Token("t")
			require.NotNil(t, tok)
			require.Equal(t, "a", tok.Actor().ID)
			require.Equal(t, 1.0, tok.Document.Width)
			require.Equal(t, host.OwnershipViewer{ID: "gm", GM: true}, s.Viewer())
		})
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(File{Tokens: []TokenEntry{{TokenDocument: host.TokenDocument{ID: "a"}}, {TokenDocument: host.TokenDocument{ID: "a"}}}})
	require.ErrorContains(t, err, "duplicate token")

	_, err = New(File{Actors: []host.Actor{{ID: "x"}, {ID: "x"}}})
	require.ErrorContains(t, err, "duplicate actor")

	_, err = New(File{Tokens: []TokenEntry{{}}})
	require.ErrorContains(t, err, "no id")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tokens": [`), 0o600))
	_, err = LoadFile(path)
	require.ErrorContains(t, err, "load scene")
}

func TestSpeakerToken(t *testing.T) {
	s := loadAmbush(t)
	require.Equal(t, "t-hero", s.SpeakerToken(s.Viewer()).ID())
	require.Nil(t, s.SpeakerToken(nil))

	gm, err := New(File{User: User{ID: "gm", GM: true}, Actors: []host.Actor{{ID: "a"}}, Tokens: []TokenEntry{{TokenDocument: host.TokenDocument{ID: "t", ActorID: "a"}}}})
	require.NoError(t, err)
	require.Nil(t, gm.SpeakerToken(gm.Viewer()))

	gm.file.Speaker = "t"
	require.Equal(t, "t", gm.SpeakerToken(gm.Viewer()).ID())
}

func TestMinimumDistance(t *testing.T) {
	tests := []struct {
		name      string
		diagonals string
		a, b      host.TokenDocument
		want      float64
	}{
		{"adjacent", DiagonalsEquidistant, host.TokenDocument{X: 0, Y: 0}, host.TokenDocument{X: 100, Y: 0}, 5},
		{"equidistant diagonal", DiagonalsEquidistant, host.TokenDocument{X: 100, Y: 100}, host.TokenDocument{X: 400, Y: 300}, 15},
		{"alternating diagonal", DiagonalsAlternating, host.TokenDocument{X: 100, Y: 100}, host.TokenDocument{X: 400, Y: 300}, 20},
		{"exact", DiagonalsExact, host.TokenDocument{X: 0, Y: 0}, host.TokenDocument{X: 300, Y: 400}, 25},
		{"large token nearest space", DiagonalsEquidistant, host.TokenDocument{X: 0, Y: 0, Width: 2, Height: 2}, host.TokenDocument{X: 400, Y: 0}, 15},
		{"same space", DiagonalsEquidistant, host.TokenDocument{X: 0, Y: 0}, host.TokenDocument{X: 50, Y: 50}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(File{Grid: Grid{Diagonals: tt.diagonals}})
			require.NoError(t, err)
			a, b := tt.a, tt.b
			got := s.MinimumDistance(&host.Token{Document: &a}, &host.Token{Document: &b})
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}

	s, err := New(File{})
	require.NoError(t, err)
	require.True(t, math.IsNaN(s.MinimumDistance(nil, &host.Token{Document: &host.TokenDocument{}})))
}

func TestCanvasAndPiles(t *testing.T) {
	s := loadAmbush(t)
	require.True(t, s.Active())
	require.True(t, s.IsValidItemPile(s.Token("chest")))
	require.False(t, s.IsValidItemPile(s.Token("t-goblin")))

	s.SetTool(host.ToolRuler)
	require.Equal(t, host.ToolRuler, s.ActiveTool())

	s.SetHUD("t-goblin", true)
	id, rendered := s.HUD()
	require.Equal(t, "t-goblin", id)
	require.True(t, rendered)
}

func TestPanAndMove(t *testing.T) {
	s := loadAmbush(t)
	before := s.Token("t-goblin")

	s.Pan(100, 50, 2)
	after := s.Token("t-goblin")
	require.Equal(t, &host.Transform{TX: 600, TY: 500, A: 2}, after.Transform)
	require.Equal(t, &host.Transform{TX: 400, TY: 300, A: 1}, before.Transform, "handed-out tokens are not mutated")

	require.NoError(t, s.Move("t-goblin", 200, 50))
	moved := s.Token("t-goblin")
	require.Equal(t, 200.0, moved.Document.X)
	require.Equal(t, 400.0, after.Document.X)
	require.Equal(t, &host.Transform{TX: 200, TY: 0, A: 2}, moved.Transform)
	require.Same(t, after.Actor(), moved.Actor())

	require.ErrorIs(t, s.Move("nope", 0, 0), ErrUnknownToken)
}

func TestDelete(t *testing.T) {
	s := loadAmbush(t)
	require.NoError(t, s.Delete("chest"))
	require.Nil(t, s.Token("chest"))
	require.Equal(t, []string{"t-hero", "t-goblin", "t-far"}, s.TokenIDs())
	require.ErrorIs(t, s.Delete("chest"), ErrUnknownToken)
}
