// Package scene is a file-backed host: a scene fixture in JSON, YAML or TOML
// provides the tokens, actors, grid, canvas state and viewing user the
// tooltip core consumes.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/loader"
)

// Diagonal rules for grid measurement.
const (
	DiagonalsEquidistant = "equidistant"
	DiagonalsAlternating = "alternating"
	DiagonalsExact       = "exact"
)

// Grid describes a square grid.
type Grid struct {
	// Size is the edge of one space in canvas pixels.
	Size float64 `json:"size"`
	// Distance is the measured length of one space in Units.
	Distance  float64 `json:"distance"`
	Units     string  `json:"units"`
	Diagonals string  `json:"diagonals"`
}

// View is the canvas camera: the top-left canvas point and the zoom.
type View struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// User is the viewing user.
type User struct {
	ID string `json:"id"`
	GM bool   `json:"gm"`
}

// HUD is the token HUD state.
type HUD struct {
	Token    string `json:"token"`
	Rendered bool   `json:"rendered"`
}

// ItemPiles lists tokens the item-piles integration treats as piles.
type ItemPiles struct {
	Active bool     `json:"active"`
	Tokens []string `json:"tokens"`
}

// TokenEntry is a token document plus fixture-only placement flags.
type TokenEntry struct {
	host.TokenDocument
	// Offscreen tokens are not rendered and have no transform.
	Offscreen bool `json:"offscreen"`
}

// File is the fixture document.
type File struct {
	Name      string       `json:"name"`
	Grid      Grid         `json:"grid"`
	View      View         `json:"view"`
	User      User         `json:"user"`
	Speaker   string       `json:"speaker"`
	Tool      string       `json:"tool"`
	HUD       HUD          `json:"hud"`
	ItemPiles ItemPiles    `json:"itemPiles"`
	Actors    []host.Actor `json:"actors"`
	Tokens    []TokenEntry `json:"tokens"`
}

// Scene implements host.Scene, host.Canvas and host.ItemPiles over a File.
type Scene struct {
	mu     sync.RWMutex
	file   File
	order  []string
	tokens map[string]*host.Token
	piles  map[string]bool
	// offscreen remembers tokens that never get a transform.
	offscreen map[string]bool
}

var (
	_ host.Scene     = (*Scene)(nil)
	_ host.Canvas    = (*Scene)(nil)
	_ host.ItemPiles = (*Scene)(nil)
)

// LoadFile reads a fixture, picking the syntax from the file extension.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, loader.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a fixture in the given format.
func Parse(data []byte, format loader.Format) (*Scene, error) {
	var f File
	if err := loader.Decode(data, format, &f); err != nil {
		return nil, err
	}
	return New(f)
}

// New builds a scene from a decoded fixture. Tokens resolve their actor by
// actorId; an unknown actor leaves the token without one.
func New(f File) (*Scene, error) {
	applyDefaults(&f)

	actors := make(map[string]*host.Actor, len(f.Actors))
	for i := range f.Actors {
		a := &f.Actors[i]
		if a.ID == "" {
			return nil, fmt.Errorf("actor %d has no id", i)
		}
		if _, dup := actors[a.ID]; dup {
			return nil, fmt.Errorf("duplicate actor %q", a.ID)
		}
		actors[a.ID] = a
	}

	s := &Scene{
		file:      f,
		tokens:    make(map[string]*host.Token, len(f.Tokens)),
		piles:     make(map[string]bool, len(f.ItemPiles.Tokens)),
		offscreen: make(map[string]bool),
	}
	for i := range f.Tokens {
		entry := f.Tokens[i]
		doc := entry.TokenDocument
		if doc.ID == "" {
			return nil, fmt.Errorf("token %d has no id", i)
		}
		if _, dup := s.tokens[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate token %q", doc.ID)
		}
		if doc.Width <= 0 {
			doc.Width = 1
		}
		if doc.Height <= 0 {
			doc.Height = 1
		}
		doc.Actor = actors[doc.ActorID]
		s.tokens[doc.ID] = &host.Token{Document: &doc}
		s.order = append(s.order, doc.ID)
		if entry.Offscreen {
			s.offscreen[doc.ID] = true
		}
	}
	for _, id := range f.ItemPiles.Tokens {
		s.piles[id] = true
	}
	s.place()
	return s, nil
}

func applyDefaults(f *File) {
	if f.Grid.Size <= 0 {
		f.Grid.Size = 100
	}
	if f.Grid.Distance <= 0 {
		f.Grid.Distance = 5
	}
	if f.Grid.Units == "" {
		f.Grid.Units = "ft"
	}
	if f.Grid.Diagonals == "" {
		f.Grid.Diagonals = DiagonalsEquidistant
	}
	if f.View.Scale <= 0 {
		f.View.Scale = 1
	}
	if f.User.ID == "" {
		f.User.ID = "gm"
		f.User.GM = true
	}
}

// place rebuilds every placeable from the view. Tokens handed out earlier
// keep their old transform; callers re-fetch by id. Callers hold the write
// lock or own s exclusively.
func (s *Scene) place() {
	v := s.file.View
	for id, tok := range s.tokens {
		next := &host.Token{Document: tok.Document, W: tok.Document.Width * s.file.Grid.Size}
		if !s.offscreen[id] {
			next.Transform = &host.Transform{
				TX: (tok.Document.X - v.X) * v.Scale,
				TY: (tok.Document.Y - v.Y) * v.Scale,
				A:  v.Scale,
			}
		}
		s.tokens[id] = next
	}
}

// Name returns the scene name.
func (s *Scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Name
}

// Viewer returns the fixture's viewing user.
func (s *Scene) Viewer() host.OwnershipViewer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return host.OwnershipViewer{ID: s.file.User.ID, GM: s.file.User.GM}
}

// TokenIDs lists the tokens in fixture order.
func (s *Scene) TokenIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Token implements host.Scene.
func (s *Scene) Token(id string) *host.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[id]
}

// SpeakerToken implements host.Scene. The fixture's speaker wins; without one
// the viewer speaks as the first token whose actor lists them as owner.
func (s *Scene) SpeakerToken(v host.Viewer) *host.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file.Speaker != "" {
		return s.tokens[s.file.Speaker]
	}
	if v == nil {
		return nil
	}
	for _, id := range s.order {
		tok := s.tokens[id]
		if a := tok.Actor(); a != nil && a.Ownership[v.UserID()] == host.PermissionOwner {
			return tok
		}
	}
	return nil
}

// GridUnits implements host.Scene.
func (s *Scene) GridUnits() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Grid.Units
}

// EquidistantDiagonals implements host.Scene.
func (s *Scene) EquidistantDiagonals() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Grid.Diagonals == DiagonalsEquidistant
}

// MinimumDistance implements host.Scene: the shortest measured path between
// the centres of any two grid spaces the tokens occupy. NaN when either token
// is missing.
func (s *Scene) MinimumDistance(a, b *host.Token) float64 {
	if a.TokenDocument() == nil || b.TokenDocument() == nil {
		return math.NaN()
	}
	s.mu.RLock()
	grid := s.file.Grid
	s.mu.RUnlock()

	best := math.Inf(1)
	for _, ca := range cells(a.Document, grid.Size) {
		for _, cb := range cells(b.Document, grid.Size) {
			best = math.Min(best, measure(ca, cb, grid))
		}
	}
	if math.IsInf(best, 1) {
		return math.NaN()
	}
	return best
}

type cell struct{ i, j int }

// cells lists the grid offsets a token document covers.
func cells(d *host.TokenDocument, size float64) []cell {
	i0 := int(math.Floor(d.X / size))
	j0 := int(math.Floor(d.Y / size))
	w := max(int(math.Ceil(d.Width)), 1)
	h := max(int(math.Ceil(d.Height)), 1)
	out := make([]cell, 0, w*h)
	for di := range w {
		for dj := range h {
			out = append(out, cell{i0 + di, j0 + dj})
		}
	}
	return out
}

func measure(a, b cell, g Grid) float64 {
	dx := math.Abs(float64(a.i - b.i))
	dy := math.Abs(float64(a.j - b.j))
	var spaces float64
	switch g.Diagonals {
	case DiagonalsAlternating:
		diag := math.Min(dx, dy)
		spaces = math.Max(dx, dy) + math.Floor(diag/2)
	case DiagonalsExact:
		spaces = math.Hypot(dx, dy)
	default:
		spaces = math.Max(dx, dy)
	}
	return spaces * g.Distance
}

// ActiveTool implements host.Canvas.
func (s *Scene) ActiveTool() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Tool
}

// HUD implements host.Canvas.
func (s *Scene) HUD() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.HUD.Token, s.file.HUD.Rendered
}

// Active implements host.ItemPiles.
func (s *Scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.ItemPiles.Active
}

// IsValidItemPile implements host.ItemPiles.
func (s *Scene) IsValidItemPile(t *host.Token) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.piles[t.ID()]
}

// ErrUnknownToken is returned when a mutation names a token not in the scene.
var ErrUnknownToken = errors.New("unknown token")

// SetTool switches the active canvas tool.
func (s *Scene) SetTool(tool string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Tool = tool
}

// SetHUD binds the token HUD to id and shows or hides it.
func (s *Scene) SetHUD(id string, rendered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.HUD = HUD{Token: id, Rendered: rendered}
}

// Pan moves the camera by dx, dy canvas pixels and optionally changes the zoom.
func (s *Scene) Pan(dx, dy, scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.View.X += dx
	s.file.View.Y += dy
	if scale > 0 {
		s.file.View.Scale = scale
	}
	s.place()
}

// Move places token id at canvas point x, y.
func (s *Scene) Move(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[id]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownToken, id)
	}
	doc := *tok.Document
	doc.X, doc.Y = x, y
	s.tokens[id] = &host.Token{Document: &doc}
	s.place()
	return nil
}

// Delete removes token id.
func (s *Scene) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[id]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownToken, id)
	}
	delete(s.tokens, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
