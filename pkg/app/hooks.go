package app

import (
	"context"
	"time"

	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// HoverToken shows the tooltip on hover-in and hides it on hover-out.
func (a *App) HoverToken(ctx context.Context, tok *host.Token, hoverIn bool) error {
	if !hoverIn {
		a.session.Hide(ctx)
		return nil
	}
	_, err := a.session.Show(ctx, tok)
	return err
}

// RefreshToken refreshes the tooltip when tok is the active token.
func (a *App) RefreshToken(ctx context.Context, tok *host.Token) error {
	if id, ok := a.session.Active(); !ok || id != tok.ID() {
		return nil
	}
	return a.session.Update(ctx)
}

// DeleteToken hides the tooltip when id was the active token.
func (a *App) DeleteToken(ctx context.Context, id string) {
	a.session.TokenDeleted(ctx, id)
}

// RenderTokenHUD hides the tooltip whenever the token HUD opens.
func (a *App) RenderTokenHUD(ctx context.Context) {
	a.session.Hide(ctx)
}

// CanvasPan schedules a refresh once panning has been quiet for the pan delay.
func (a *App) CanvasPan(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	a.panMu.Lock()
	defer a.panMu.Unlock()
	if a.panTimer != nil {
		a.panTimer.Stop()
	}
	a.panTimer = time.AfterFunc(a.panDelay, func() {
		if err := a.session.Update(ctx); err != nil {
			a.log.Error(err, "tooltip refresh after pan failed")
		}
	})
}

// DragStart hides the tooltip and suppresses it for tok until DragEnd when
// disableTooltipsDrag is on.
func (a *App) DragStart(ctx context.Context, tok *host.Token) error {
	on, err := a.registry.Bool(ctx, settings.KeyDisableTooltipsDrag)
	if err != nil {
		return err
	}
	if !on {
		return nil
	}
	a.session.BeginDrag(tok.ID())
	a.session.Hide(ctx)
	return nil
}

// DragEnd lifts drag suppression for tok.
func (a *App) DragEnd(tok *host.Token) {
	a.session.EndDrag(tok.ID())
}
