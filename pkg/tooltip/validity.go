package tooltip

import (
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// Reason explains why a tooltip was not shown. The empty Reason means it may be.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonDisabled    Reason = "disabled"
	ReasonRuler       Reason = "ruler"
	ReasonMissing     Reason = "missing"
	ReasonNotRendered Reason = "not-rendered"
	ReasonHidden      Reason = "hidden"
	ReasonInvisible   Reason = "invisible"
	ReasonGroup       Reason = "group"
	ReasonItemPile    Reason = "item-pile"
	ReasonDefeated    Reason = "defeated"
	ReasonHUD         Reason = "hud"
	ReasonDragging    Reason = "dragging"
)

// Validate checks whether a tooltip can be displayed for tok at all,
// independent of tool, HUD or drag state. Checks run in a fixed order and
// the first failure is reported.
func Validate(tok *host.Token, t settings.Toggles, piles host.ItemPiles) Reason {
	switch {
	case tok == nil || tok.Document == nil || tok.Actor() == nil:
		return ReasonMissing
	case tok.Transform == nil:
		return ReasonNotRendered
	case tok.Document.Hidden:
		return ReasonHidden
	case tok.Document.HasStatus(host.StatusInvisible) || tok.Document.HasStatus(host.StatusNonDetection):
		return ReasonInvisible
	case tok.Actor().Type == host.ActorTypeGroup:
		return ReasonGroup
	case piles != nil && piles.Active() && piles.IsValidItemPile(tok) && t.ItemPile:
		return ReasonItemPile
	case t.Dead && tok.Actor().HasStatus(host.StatusDefeated):
		return ReasonDefeated
	}
	return ReasonNone
}
