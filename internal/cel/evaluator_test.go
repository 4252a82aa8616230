package cel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testBindings() Bindings {
	return Bindings{
		Actor: map[string]any{
			"name": "Goblin",
			"type": "npc",
			"system": map[string]any{
				"attributes": map[string]any{
					"hp": map[string]any{"value": 7, "max": 10},
				},
			},
		},
		Token:   map[string]any{"name": "Goblin 1", "disposition": -1},
		Model:   map[string]any{"icon": "fa-solid fa-heart", "type": "code"},
		Presets: []string{"health", "armor"},
	}
}

func TestNewEvaluatorCreatesEnvironment(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	require.NotNil(t, eval.GetEnvironment())
}

func TestEvaluateScalars(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"actor field", "actor.name", "Goblin"},
		{"token field", "token.name", "Goblin 1"},
		{"model field", "model.icon", "fa-solid fa-heart"},
		{"arithmetic", "actor.system.attributes.hp.max - actor.system.attributes.hp.value", int64(3)},
		{"comparison", "actor.system.attributes.hp.value < 10", true},
		{"string ext", `actor.name.upperAscii()`, "GOBLIN"},
		{"ternary", `token.disposition < 0 ? "foe" : "friend"`, "foe"},
		{"null", "null", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, testBindings())
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateObjectLiteral(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	got, err := eval.Evaluate(`{"value": string(actor.system.attributes.hp.value) + "/10", "icon": "fa-solid fa-shield"}`, testBindings())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"value": "7/10", "icon": "fa-solid fa-shield"}, got)
}

func TestEvaluatePresetReference(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	got, err := eval.Evaluate("presets.health", testBindings())
	require.NoError(t, err)
	require.Equal(t, PresetRef{Name: "health"}, got)

	got, err = eval.Evaluate(`actor.type == "npc" ? presets.armor : {"value": "pc"}`, testBindings())
	require.NoError(t, err)
	require.Equal(t, PresetRef{Name: "armor"}, got)

	_, err = eval.Evaluate("presets.unknown", testBindings())
	require.Error(t, err)
}

func TestEvaluateErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.Evaluate("actor.name +", testBindings())
	require.ErrorContains(t, err, "compilation error")

	_, err = eval.Evaluate("game.user", testBindings())
	require.ErrorContains(t, err, "compilation error")

	_, err = eval.Evaluate("actor.system.missing.value", testBindings())
	require.ErrorContains(t, err, "eval error")

	require.Error(t, eval.Compile("1 +"))
	require.NoError(t, eval.Compile("1 + 1"))
}

func TestFunctionsListsWhitelist(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	funcs := eval.Functions()
	require.Contains(t, funcs, "size")
	require.Contains(t, funcs, "upperAscii")
	require.Contains(t, funcs, "has")
	for _, fn := range funcs {
		require.False(t, isOperator(fn), "operator %q leaked into function list", fn)
	}
}
