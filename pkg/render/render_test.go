package render

import (
	"context"
	"strings"
	"testing"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/stretchr/testify/require"
)

func sampleData() Data {
	return Data{
		ID:          "tokentip-token-tooltip",
		ModuleID:    "tokentip",
		ActiveClass: "active",
		PosX:        320,
		PosY:        95,
		Header:      "Goblin <1>",
		Pills:       []attribute.Value{{Icon: "fa-solid fa-skull", Value: "HOSTILE"}},
		Rows: []attribute.Value{
			{Icon: "fa-solid fa-heart", Value: "7"},
			{Icon: "fa-solid fa-shield", Value: "Light Natural"},
			{Icon: "fa-solid fa-ruler", Value: "10.0  ft"},
		},
		ColumnCount: 2,
	}
}

func TestHTMLRenderer(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleData())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, `<div id="tokentip-token-tooltip" class="tokentip token-tooltip active"`))
	require.Contains(t, out, "left: 320px; top: 95px;")
	require.Contains(t, out, "Goblin &lt;1&gt;")
	require.Contains(t, out, `<li class="pill"><i class="fa-solid fa-skull"></i> <span>HOSTILE</span></li>`)
	require.Contains(t, out, "repeat(2, auto)")
	require.Equal(t, 3, strings.Count(out, `<li class="row">`))
}

func TestHTMLRendererWithoutPills(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)
	data := sampleData()
	data.Pills = nil
	out, err := r.Render(context.Background(), data)
	require.NoError(t, err)
	require.NotContains(t, out, "tokentip-pills")
}

func TestRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := NewHTMLRenderer()
	require.NoError(t, err)
	_, err = r.Render(ctx, sampleData())
	require.ErrorIs(t, err, context.Canceled)
	_, err = TextRenderer{Width: 60}.Render(ctx, sampleData())
	require.ErrorIs(t, err, context.Canceled)
}

func TestTextRenderer(t *testing.T) {
	out, err := TextRenderer{Width: 60, NoColor: true}.Render(context.Background(), sampleData())
	require.NoError(t, err)
	require.Contains(t, out, "Goblin <1>")
	require.Contains(t, out, "[skull: HOSTILE]")
	require.Contains(t, out, "heart: 7")
	require.Contains(t, out, "shield: Light Natural")
	require.Contains(t, out, "ruler: 10.0  ft")
	require.Contains(t, out, "@ 320,95")
}

func TestCell(t *testing.T) {
	require.Equal(t, "heart: 7", cell("fa-solid fa-heart", "7"))
	require.Equal(t, "7", cell("", "7"))
	require.Equal(t, "custom: x", cell("custom", "x"))
}
