// Package app wires host events to the tooltip session and exposes the
// plugin's entry points: settings, presets, the toolbar toggle and the
// configuration menu.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/tokentip/internal/cel"
	"github.com/oakwood-commons/tokentip/internal/metrics"
	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/dom"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/preset"
	"github.com/oakwood-commons/tokentip/pkg/render"
	"github.com/oakwood-commons/tokentip/pkg/settings"
	"github.com/oakwood-commons/tokentip/pkg/tooltip"
)

// DefaultPanDelay debounces canvas pan events before the tooltip follows.
const DefaultPanDelay = 50 * time.Millisecond

// Config collects the host services the app runs against. Scene, Viewer,
// Store, Renderer and Document are required.
type Config struct {
	Scene     host.Scene
	Canvas    host.Canvas
	Viewer    host.Viewer
	ItemPiles host.ItemPiles
	Notifier  host.Notifier
	Store     settings.Store
	Renderer  render.Renderer
	Document  dom.Document
	Metrics   *metrics.Metrics
	Logger    logr.Logger
	// Presets replaces the built-in preset table.
	Presets *preset.Table
	// PanDelay overrides DefaultPanDelay.
	PanDelay time.Duration
}

// App is one running instance of the plugin.
type App struct {
	scene    host.Scene
	viewer   host.Viewer
	notifier host.Notifier
	registry *settings.Registry
	presets  *preset.Table
	env      *attribute.Env
	session  *tooltip.Session
	log      logr.Logger

	panDelay time.Duration
	panMu    sync.Mutex
	panTimer *time.Timer
}

// New registers settings and presets and claims the tooltip session.
// A second App in the same process fails with tooltip.ErrSessionExists.
func New(cfg Config) (*App, error) {
	switch {
	case cfg.Scene == nil:
		return nil, fmt.Errorf("app needs a scene")
	case cfg.Viewer == nil:
		return nil, fmt.Errorf("app needs a viewer")
	case cfg.Store == nil:
		return nil, fmt.Errorf("app needs a settings store")
	case cfg.Renderer == nil:
		return nil, fmt.Errorf("app needs a renderer")
	case cfg.Document == nil:
		return nil, fmt.Errorf("app needs a document")
	}
	log := cfg.Logger
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = host.LogNotifier{Log: log}
	}

	presets := cfg.Presets
	if presets == nil {
		presets = preset.Default()
	}
	presets.Freeze()

	expr, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	env, err := attribute.NewEnv(
		attribute.WithExpr(expr),
		attribute.WithPresets(presets),
		attribute.WithScene(cfg.Scene),
		attribute.WithViewer(cfg.Viewer),
		attribute.WithNotifier(notifier),
		attribute.WithLogger(log.WithName("attribute")),
	)
	if err != nil {
		return nil, err
	}

	registry := settings.NewRegistry(cfg.Store, cfg.Viewer.UserID())
	session, err := tooltip.NewSession(
		tooltip.WithScene(cfg.Scene),
		tooltip.WithCanvas(cfg.Canvas),
		tooltip.WithItemPiles(cfg.ItemPiles),
		tooltip.WithSettings(registry),
		tooltip.WithEnv(env),
		tooltip.WithRenderer(cfg.Renderer),
		tooltip.WithDocument(cfg.Document),
		tooltip.WithMetrics(cfg.Metrics),
		tooltip.WithLogger(log.WithName("tooltip")),
	)
	if err != nil {
		return nil, fmt.Errorf("create tooltip session: %w", err)
	}

	panDelay := cfg.PanDelay
	if panDelay <= 0 {
		panDelay = DefaultPanDelay
	}
	return &App{
		scene:    cfg.Scene,
		viewer:   cfg.Viewer,
		notifier: notifier,
		registry: registry,
		presets:  presets,
		env:      env,
		session:  session,
		log:      log,
		panDelay: panDelay,
	}, nil
}

// Close stops pending work and releases the tooltip session.
func (a *App) Close() {
	a.panMu.Lock()
	if a.panTimer != nil {
		a.panTimer.Stop()
	}
	a.panMu.Unlock()
	a.session.Close()
}

// Session returns the tooltip session.
func (a *App) Session() *tooltip.Session { return a.session }

// Settings returns the settings registry of the viewing user.
func (a *App) Settings() *settings.Registry { return a.registry }

// Presets returns the frozen preset table.
func (a *App) Presets() *preset.Table { return a.presets }

// Env returns the row generation environment.
func (a *App) Env() *attribute.Env { return a.env }

// Scene returns the host scene.
func (a *App) Scene() host.Scene { return a.scene }
