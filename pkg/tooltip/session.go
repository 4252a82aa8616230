// Package tooltip owns the single on-screen token tooltip: when it may be
// shown, what it contains, and where it is placed.
package tooltip

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oakwood-commons/tokentip/internal/metrics"
	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/dom"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/layout"
	"github.com/oakwood-commons/tokentip/pkg/render"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// ElementID is the id of the tooltip element in the host document.
const ElementID = settings.ModuleID + "-token-tooltip"

// ActiveClass marks the tooltip element as visible.
const ActiveClass = "active"

// Offsets of the tooltip from the token's top right corner, in pixels.
const (
	offsetX = 20
	offsetY = -5
)

const tracerName = "github.com/oakwood-commons/tokentip/pkg/tooltip"

// ErrSessionExists is returned when a second Session is created in one process.
var ErrSessionExists = errors.New("a tooltip session already exists")

var claimed atomic.Bool

// Session is the tooltip state machine. It is either hidden or shown for one
// token, which it remembers by id only.
type Session struct {
	scene    host.Scene
	canvas   host.Canvas
	piles    host.ItemPiles
	settings *settings.Registry
	env      *attribute.Env
	renderer render.Renderer
	doc      dom.Document
	metrics  *metrics.Metrics
	log      logr.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	active   string
	gen      uint64
	dragging map[string]bool

	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithScene sets the scene tokens are looked up in.
func WithScene(s host.Scene) Option { return func(t *Session) { t.scene = s } }

// WithCanvas sets the canvas consulted for the active tool and the HUD.
func WithCanvas(c host.Canvas) Option { return func(t *Session) { t.canvas = c } }

// WithItemPiles enables the item-piles check.
func WithItemPiles(p host.ItemPiles) Option { return func(t *Session) { t.piles = p } }

// WithSettings sets the settings registry. Required.
func WithSettings(r *settings.Registry) Option { return func(t *Session) { t.settings = r } }

// WithEnv sets the row generation environment. Required.
func WithEnv(e *attribute.Env) Option { return func(t *Session) { t.env = e } }

// WithRenderer sets the markup renderer. Required.
func WithRenderer(r render.Renderer) Option { return func(t *Session) { t.renderer = r } }

// WithDocument sets the document the tooltip is written to. Required.
func WithDocument(d dom.Document) Option { return func(t *Session) { t.doc = d } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(t *Session) { t.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option { return func(t *Session) { t.log = l } }

// WithTracer sets the tracer; the global provider is used otherwise.
func WithTracer(tr trace.Tracer) Option { return func(t *Session) { t.tracer = tr } }

// NewSession claims the process-wide tooltip and returns it. Only one
// Session may exist until it is closed.
func NewSession(opts ...Option) (*Session, error) {
	s := &Session{log: logr.Discard(), dragging: make(map[string]bool)}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case s.settings == nil:
		return nil, errors.New("tooltip session needs a settings registry")
	case s.env == nil:
		return nil, errors.New("tooltip session needs a row environment")
	case s.renderer == nil:
		return nil, errors.New("tooltip session needs a renderer")
	case s.doc == nil:
		return nil, errors.New("tooltip session needs a document")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if !claimed.CompareAndSwap(false, true) {
		return nil, ErrSessionExists
	}
	return s, nil
}

// Close releases the process-wide claim.
func (s *Session) Close() {
	s.closeOnce.Do(func() { claimed.Store(false) })
}

// Active returns the id of the token the tooltip is shown for.
func (s *Session) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// BeginDrag suppresses the tooltip for id while disableTooltipsDrag is on.
func (s *Session) BeginDrag(id string) {
	s.mu.Lock()
	s.dragging[id] = true
	s.mu.Unlock()
}

// EndDrag lifts drag suppression for id.
func (s *Session) EndDrag(id string) {
	s.mu.Lock()
	delete(s.dragging, id)
	s.mu.Unlock()
}

// Guard reports why tok may not be shown, or ReasonNone.
func (s *Session) Guard(tok *host.Token, t settings.Toggles) Reason {
	if !t.Enable {
		return ReasonDisabled
	}
	if s.canvas != nil && s.canvas.ActiveTool() == host.ToolRuler && t.Ruler {
		return ReasonRuler
	}
	if r := Validate(tok, t, s.piles); r != ReasonNone {
		return r
	}
	if s.canvas != nil {
		if id, rendered := s.canvas.HUD(); rendered && id == tok.ID() {
			return ReasonHUD
		}
	}
	s.mu.Lock()
	dragging := s.dragging[tok.ID()]
	s.mu.Unlock()
	if t.Drag && dragging {
		return ReasonDragging
	}
	return ReasonNone
}

// Show displays the tooltip for tok. It reports false without error when a
// check refuses the token; the document is left untouched in that case.
// A failing row hides the tooltip and the error is returned.
func (s *Session) Show(ctx context.Context, tok *host.Token) (bool, error) {
	return s.show(ctx, tok, nil)
}

// snapshot is the state an Update started from. A re-show made on its behalf
// only proceeds while the session is still in that state.
type snapshot struct {
	active string
	gen    uint64
}

func (s *Session) show(ctx context.Context, tok *host.Token, from *snapshot) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "tooltip.show", trace.WithAttributes(otelattr.String("tokentip.token_id", tok.ID())))
	defer span.End()

	toggles, err := s.settings.Toggles(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("read tooltip settings: %w", err)
	}
	if reason := s.Guard(tok, toggles); reason != ReasonNone {
		s.log.V(1).Info("tooltip refused", "token", tok.ID(), "reason", string(reason))
		s.metrics.Refused(string(reason))
		span.SetAttributes(otelattr.String("tokentip.refused", string(reason)))
		return false, nil
	}

	s.mu.Lock()
	if from != nil && (from.gen != s.gen || from.active != s.active) {
		s.mu.Unlock()
		s.log.V(1).Info("dropping update overtaken by a newer transition", "token", tok.ID())
		s.metrics.Show(metrics.OutcomeStale)
		span.SetAttributes(otelattr.Bool("tokentip.stale", true))
		return false, nil
	}
	s.gen++
	gen := s.gen
	s.active = tok.ID()
	s.mu.Unlock()

	start := time.Now()
	markup, err := s.render(ctx, tok)
	s.metrics.ObserveRender(time.Since(start))
	if err != nil {
		var codeErr *attribute.CodeError
		if errors.As(err, &codeErr) {
			s.metrics.CodeError()
		}
		s.metrics.Show(metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.mu.Lock()
		if gen == s.gen {
			s.hideLocked()
		}
		s.mu.Unlock()
		return false, fmt.Errorf("show tooltip for token %s: %w", tok.ID(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.V(1).Info("discarding stale tooltip render", "token", tok.ID())
		s.metrics.Show(metrics.OutcomeStale)
		span.SetAttributes(otelattr.Bool("tokentip.stale", true))
		return false, nil
	}
	if err := dom.Upsert(s.doc, ElementID, markup); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("write tooltip: %w", err)
	}
	s.log.V(1).Info("tooltip shown", "token", tok.ID())
	s.metrics.Show(metrics.OutcomeShown)
	return true, nil
}

// Hide clears the active token and deactivates the element.
func (s *Session) Hide(ctx context.Context) {
	_, span := s.tracer.Start(ctx, "tooltip.hide")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hideLocked()
}

func (s *Session) hideLocked() {
	s.gen++
	s.active = ""
	s.doc.RemoveClass(ElementID, ActiveClass)
	s.metrics.Hide()
}

// Update refreshes the tooltip of the active token. It does nothing while
// hidden, and nothing when the active token stopped being valid: the stale
// tooltip stays until the next hide. A hide or show arriving while the
// update runs wins over it.
func (s *Session) Update(ctx context.Context) error {
	s.mu.Lock()
	from := snapshot{active: s.active, gen: s.gen}
	s.mu.Unlock()
	if from.active == "" {
		return nil
	}
	var tok *host.Token
	if s.scene != nil {
		tok = s.scene.Token(from.active)
	}
	toggles, err := s.settings.Toggles(ctx)
	if err != nil {
		return fmt.Errorf("read tooltip settings: %w", err)
	}
	if Validate(tok, toggles, s.piles) != ReasonNone {
		return nil
	}
	_, err = s.show(ctx, tok, &from)
	return err
}

// TokenDeleted hides the tooltip when id is the active token.
func (s *Session) TokenDeleted(ctx context.Context, id string) {
	if active, ok := s.Active(); ok && active == id {
		s.Hide(ctx)
	}
}

// Position returns where the tooltip is drawn for tok: right of the token,
// slightly above its top edge.
func Position(tok *host.Token) (x, y int) {
	tr := tok.Transform
	return roundHalfUp(tr.TX + tok.W*tr.A + offsetX), roundHalfUp(tr.TY + offsetY)
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

// Content generates the pill and body rows for tok. Omitted rows are dropped.
func Content(ctx context.Context, cfg layout.Config, tok *host.Token, env *attribute.Env) (pills, rows []attribute.Value, err error) {
	pills, rows = []attribute.Value{}, []attribute.Value{}
	for _, row := range cfg.Attributes {
		v, err := row.Generate(ctx, tok, env)
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			continue
		}
		if row.Pill {
			pills = append(pills, *v)
		} else {
			rows = append(rows, *v)
		}
	}
	return pills, rows, nil
}

func (s *Session) render(ctx context.Context, tok *host.Token) (string, error) {
	cfg, err := layout.Load(ctx, s.settings)
	if err != nil {
		return "", err
	}
	pills, rows, err := Content(ctx, cfg, tok, s.env)
	if err != nil {
		return "", err
	}
	x, y := Position(tok)
	return s.renderer.Render(ctx, render.Data{
		ID:          ElementID,
		ModuleID:    settings.ModuleID,
		ActiveClass: ActiveClass,
		PosX:        x,
		PosY:        y,
		Header:      tok.Name(),
		Pills:       pills,
		Rows:        rows,
		ColumnCount: cfg.Columns,
	})
}
