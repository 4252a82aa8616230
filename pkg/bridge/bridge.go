// Package bridge exposes the tooltip app over HTTP so a browser-side host
// integration can forward canvas events and poll the tooltip markup.
package bridge

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakwood-commons/tokentip/pkg/app"
	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/layout"
	"github.com/oakwood-commons/tokentip/pkg/scene"
	"github.com/oakwood-commons/tokentip/pkg/settings"
	"github.com/oakwood-commons/tokentip/pkg/tooltip"
)

// maxBody caps request bodies, including uploaded tooltip configurations.
const maxBody = 1 << 20

// Board is the mutable scene the bridge forwards canvas events to.
type Board interface {
	host.Scene
	Move(id string, x, y float64) error
	Delete(id string) error
	Pan(dx, dy, scale float64)
	SetHUD(id string, rendered bool)
	SetTool(tool string)
}

// Markup reads rendered elements back out of the document.
type Markup interface {
	Element(id string) (string, bool)
}

// Server routes HTTP requests to an App.
type Server struct {
	app      *app.App
	board    Board
	markup   Markup
	gatherer prometheus.Gatherer
	log      logr.Logger
}

// New creates a Server. A nil gatherer leaves /metrics unrouted.
func New(a *app.App, board Board, markup Markup, gatherer prometheus.Gatherer, log logr.Logger) *Server {
	return &Server{app: a, board: board, markup: markup, gatherer: gatherer, log: log}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBody))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tooltip", s.tooltipHandler)

		r.Route("/tokens/{id}", func(r chi.Router) {
			r.Post("/hover", s.hoverHandler)
			r.Post("/refresh", s.refreshHandler)
			r.Post("/move", s.moveHandler)
			r.Post("/drag", s.dragHandler)
			r.Delete("/", s.deleteHandler)
		})

		r.Post("/canvas/pan", s.panHandler)
		r.Post("/canvas/hud", s.hudHandler)
		r.Post("/canvas/tool", s.toolHandler)

		r.Get("/toolbar", s.toolbarHandler)
		r.Post("/toolbar", s.toggleHandler)
		r.Get("/menu", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.app.MenuEntry())
		})

		r.Get("/settings", s.settingsHandler)
		r.Put("/settings/{key}", s.setSettingHandler)

		r.Get("/config", s.exportHandler)
		r.Put("/config", s.importHandler)
	})
	return r
}

// TooltipState is the body of GET /api/v1/tooltip.
type TooltipState struct {
	Active bool   `json:"active"`
	Token  string `json:"token,omitempty"`
	Markup string `json:"markup,omitempty"`
}

func (s *Server) tooltipHandler(w http.ResponseWriter, _ *http.Request) {
	id, active := s.app.Session().Active()
	state := TooltipState{Active: active, Token: id}
	state.Markup, _ = s.markup.Element(tooltip.ElementID)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) (*host.Token, bool) {
	id := chi.URLParam(r, "id")
	tok := s.board.Token(id)
	if tok == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %q", scene.ErrUnknownToken, id))
		return nil, false
	}
	return tok, true
}

func (s *Server) hoverHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		In bool `json:"in"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	tok, ok := s.token(w, r)
	if !ok {
		return
	}
	if err := s.app.HoverToken(r.Context(), tok, body.In); err != nil {
		s.fail(w, err)
		return
	}
	s.tooltipHandler(w, r)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	tok, ok := s.token(w, r)
	if !ok {
		return
	}
	if err := s.app.RefreshToken(r.Context(), tok); err != nil {
		s.fail(w, err)
		return
	}
	s.tooltipHandler(w, r)
}

func (s *Server) moveHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.board.Move(id, body.X, body.Y); err != nil {
		s.fail(w, err)
		return
	}
	s.refreshHandler(w, r)
}

func (s *Server) dragHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Start bool `json:"start"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	tok, ok := s.token(w, r)
	if !ok {
		return
	}
	if body.Start {
		if err := s.app.DragStart(r.Context(), tok); err != nil {
			s.fail(w, err)
			return
		}
	} else {
		s.app.DragEnd(tok)
	}
	s.tooltipHandler(w, r)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.board.Delete(id); err != nil {
		s.fail(w, err)
		return
	}
	s.app.DeleteToken(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) panHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DX    float64 `json:"dx"`
		DY    float64 `json:"dy"`
		Scale float64 `json:"scale"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.board.Pan(body.DX, body.DY, body.Scale)
	s.app.CanvasPan(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) hudHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Rendered bool   `json:"rendered"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.board.SetHUD(body.Token, body.Rendered)
	if body.Rendered {
		s.app.RenderTokenHUD(r.Context())
	}
	s.tooltipHandler(w, r)
}

func (s *Server) toolHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tool string `json:"tool"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.board.SetTool(body.Tool)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toolbarHandler(w http.ResponseWriter, r *http.Request) {
	btn, err := s.app.ToolbarButton(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, btn)
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.app.ToggleTooltips(r.Context(), body.Active); err != nil {
		s.fail(w, err)
		return
	}
	s.toolbarHandler(w, r)
}

// SettingValue pairs a registered setting with its current value.
type SettingValue struct {
	settings.Definition
	Value any `json:"value"`
}

func (s *Server) settingsHandler(w http.ResponseWriter, r *http.Request) {
	reg := s.app.Settings()
	defs := reg.Definitions()
	out := make([]SettingValue, 0, len(defs))
	for _, def := range defs {
		var v any
		if _, err := reg.Load(r.Context(), def.Key, &v); err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, SettingValue{Definition: def, Value: v})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) setSettingHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value bool `json:"value"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	key := chi.URLParam(r, "key")
	if key == settings.KeyTooltipConfig {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s is edited through /api/v1/config", key))
		return
	}
	if err := s.app.Settings().SetBool(r.Context(), key, body.Value); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	form, err := s.app.OpenConfigForm(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	name, data, err := form.Export()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	form, err := s.app.OpenConfigForm(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := readAll(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, layout.ErrNoFile)
		return
	}
	if err := form.ImportData(data); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := form.Submit(r.Context(), form.Config()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form.Config())
}

// fail maps domain errors to status codes and logs the rest.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var (
		codeErr  *attribute.CodeError
		validErr *layout.ValidationError
	)
	switch {
	case errors.Is(err, scene.ErrUnknownToken):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, settings.ErrUnknownSetting):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &validErr):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.As(err, &codeErr):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.log.Error(err, "bridge request failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}
