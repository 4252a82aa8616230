package app

import (
	"context"

	"github.com/oakwood-commons/tokentip/pkg/configform"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// ToolbarButton describes the toggle added to the token controls.
type ToolbarButton struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
	Toggle bool   `json:"toggle"`
}

// MenuEntry describes the settings menu that opens the configuration form.
type MenuEntry struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Label      string `json:"label"`
	Hint       string `json:"hint"`
	Icon       string `json:"icon"`
	Restricted bool   `json:"restricted"`
}

// ToolbarButton reports the toggle's current state.
func (a *App) ToolbarButton(ctx context.Context) (ToolbarButton, error) {
	on, err := a.registry.Bool(ctx, settings.KeyEnableTooltips)
	if err != nil {
		return ToolbarButton{}, err
	}
	return ToolbarButton{
		Name:   "tooltip",
		Title:  "Toggle Tooltips",
		Icon:   "fa-solid fa-comment",
		Active: on,
		Toggle: true,
	}, nil
}

// ToggleTooltips is the toolbar click handler.
func (a *App) ToggleTooltips(ctx context.Context, on bool) error {
	return a.registry.SetBool(ctx, settings.KeyEnableTooltips, on)
}

// MenuEntry returns the settings menu registration.
func (a *App) MenuEntry() MenuEntry {
	return MenuEntry{
		Key:        "tooltipConfigMenu",
		Name:       "Tooltips",
		Label:      configform.Title,
		Hint:       "Configure how token tooltips are displayed.",
		Icon:       "fa-solid fa-bars",
		Restricted: true,
	}
}

// OpenConfigForm opens the configuration form on the stored configuration.
func (a *App) OpenConfigForm(ctx context.Context) (*configform.Form, error) {
	return configform.Open(ctx, a.registry, a.notifier, a.log.WithName("configform"))
}
