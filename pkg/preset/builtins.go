package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/oakwood-commons/tokentip/internal/formatter"
	"github.com/oakwood-commons/tokentip/internal/navigator"
	"github.com/oakwood-commons/tokentip/pkg/attribute"
)

// Health bands: percentage floor and label, checked top-down.
var healthBands = []struct {
	min   float64
	label string
}{
	{95, "Healthy"},
	{50, "Lightly Wounded"},
	{35, "Wounded"},
	{20, "Heavily Wounded"},
}

const (
	healthAlmostDead = "Almost Dead"
	healthDown       = "Down / Dead"
)

// Health describes the actor's hit points as a wound band plus damage taken,
// e.g. "Wounded (6)". It reads system.attributes.hp.{value,max,pct,damage};
// pct and damage are derived from value and max when the system omits them.
func Health(_ context.Context, in attribute.PresetInput) (*attribute.Value, error) {
	hp, _ := navigator.Lookup(in.Actor, "system.attributes.hp")
	value, hasValue := number(hp, "value")
	maxHP, hasMax := number(hp, "max")

	pct, ok := number(hp, "pct")
	if !ok && hasValue && hasMax && maxHP > 0 {
		pct = math.Round(value / maxHP * 100)
	}

	var dmg any = formatter.Undefined
	if d, ok := lookup(hp, "damage"); ok {
		dmg = d
	} else if hasValue && hasMax {
		dmg = maxHP - value
	}

	status := healthAlmostDead
	for _, band := range healthBands {
		if pct >= band.min {
			status = band.label
			break
		}
	}
	if hasValue && value == 0 {
		status = healthDown
	}
	return &attribute.Value{Value: fmt.Sprintf("%s (%s)", status, formatter.Stringify(dmg))}, nil
}

// Armor classifies how the actor's armor class is derived.
func Armor(_ context.Context, in attribute.PresetInput) (*attribute.Value, error) {
	ac, _ := navigator.Lookup(in.Actor, "system.attributes.ac")
	calc, _ := lookup(ac, "calc")

	var text string
	switch calc {
	case "natural", "flat":
		value, _ := number(ac, "value")
		shield, _ := number(ac, "shield")
		switch base := value - shield; {
		case base >= 18:
			text = "Heavy Natural"
		case base >= 14:
			text = "Medium Natural"
		case base >= 11:
			text = "Light Natural"
		default:
			text = "None"
		}
	case "mage":
		text = "Mage Armor"
	case "draconic":
		text = "Draconic Resilience"
	case "unarmoredMonk", "unarmoredBarb", "unarmoredBard":
		text = "Unarmored Defense"
	default:
		text = "None"
		if label, ok := lookup(ac, "equippedArmor.system.type.label"); ok {
			text = formatter.Stringify(label)
		}
	}

	if shield, ok := lookup(ac, "equippedShield"); ok && truthy(shield) {
		text += " + Shield"
	}
	return &attribute.Value{Value: text}, nil
}

// Distance is the grid distance from the viewer's speaker token to this
// token, "NaN" when there is no speaker or the speaker is this token.
func Distance(_ context.Context, in attribute.PresetInput) (*attribute.Value, error) {
	nan := &attribute.Value{Value: formatter.Stringify(math.NaN())}
	if in.Scene == nil || in.Token == nil {
		return nan, nil
	}
	target := in.Scene.Token(in.Token.ID)
	speaker := in.Scene.SpeakerToken(in.Viewer)
	if target == nil || speaker == nil || speaker.Document == nil || speaker.ID() == target.ID() {
		return nan, nil
	}

	total := in.Scene.MinimumDistance(target, speaker)
	if in.Scene.EquidistantDiagonals() {
		vertical := math.Abs(target.Document.Elevation - speaker.Document.Elevation)
		total = math.Max(total, vertical)
	}
	text := strings.TrimSpace(fmt.Sprintf("%.1f  %s", total, in.Scene.GridUnits()))
	return &attribute.Value{Value: text}, nil
}

// Disposition names the token's disposition, e.g. "HOSTILE".
func Disposition(_ context.Context, in attribute.PresetInput) (*attribute.Value, error) {
	if in.Token == nil {
		return &attribute.Value{Value: formatter.Undefined}, nil
	}
	name := in.Token.Disposition.String()
	if name == "" {
		name = formatter.Undefined
	}
	return &attribute.Value{Value: name}, nil
}

func lookup(root any, path string) (any, bool) {
	if root == nil {
		return nil, false
	}
	v, ok := navigator.Lookup(root, path)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func number(root any, path string) (float64, bool) {
	v, ok := lookup(root, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}
