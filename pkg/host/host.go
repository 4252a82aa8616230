// Package host describes the tabletop application's object graph (actors,
// tokens, scenes) and the capabilities tokentip consumes from it.
//
// tokentip never owns these objects. A host integration supplies them through
// the interfaces below; pkg/scene provides a file-backed implementation.
package host

import "slices"

// Permission is the ordinal ownership tier a viewer holds over an actor.
type Permission int

const (
	PermissionNone     Permission = 0
	PermissionLimited  Permission = 1
	PermissionObserver Permission = 2
	PermissionOwner    Permission = 3
)

// Valid reports whether p is one of the assignable levels.
func (p Permission) Valid() bool {
	return p >= PermissionNone && p <= PermissionOwner
}

func (p Permission) String() string {
	switch p {
	case PermissionNone:
		return "NONE"
	case PermissionLimited:
		return "LIMITED"
	case PermissionObserver:
		return "OBSERVER"
	case PermissionOwner:
		return "OWNER"
	default:
		return "INHERIT"
	}
}

// Special status effect ids.
const (
	StatusDefeated     = "dead"
	StatusInvisible    = "invisible"
	StatusNonDetection = "nondetection"
)

// ActorTypeGroup is the aggregate actor type that never gets a tooltip.
const ActorTypeGroup = "group"

// ToolRuler is the canvas tool id of the measurement ruler.
const ToolRuler = "ruler"

// DefaultOwnershipKey holds the permission applied to users without an explicit entry.
const DefaultOwnershipKey = "default"

// Disposition is a token's attitude towards the party.
type Disposition int

const (
	DispositionSecret   Disposition = -2
	DispositionHostile  Disposition = -1
	DispositionNeutral  Disposition = 0
	DispositionFriendly Disposition = 1
)

// String returns the host constant name, or "" for unknown values.
func (d Disposition) String() string {
	switch d {
	case DispositionSecret:
		return "SECRET"
	case DispositionHostile:
		return "HOSTILE"
	case DispositionNeutral:
		return "NEUTRAL"
	case DispositionFriendly:
		return "FRIENDLY"
	default:
		return ""
	}
}

// Actor is the persistent character data backing zero or more tokens.
type Actor struct {
	ID        string                `json:"id" yaml:"id"`
	Name      string                `json:"name" yaml:"name"`
	Type      string                `json:"type" yaml:"type"`
	Statuses  []string              `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Ownership map[string]Permission `json:"ownership,omitempty" yaml:"ownership,omitempty"`
	System    map[string]any        `json:"system,omitempty" yaml:"system,omitempty"`
	Flags     map[string]any        `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// HasStatus reports whether the actor carries the status effect id.
func (a *Actor) HasStatus(id string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Statuses, id)
}

// TokenDocument is the persisted data of a token placed in a scene.
type TokenDocument struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	ActorID     string         `json:"actorId,omitempty" yaml:"actorId,omitempty"`
	Hidden      bool           `json:"hidden" yaml:"hidden"`
	Disposition Disposition    `json:"disposition" yaml:"disposition"`
	Elevation   float64        `json:"elevation" yaml:"elevation"`
	X           float64        `json:"x" yaml:"x"`
	Y           float64        `json:"y" yaml:"y"`
	Width       float64        `json:"width" yaml:"width"`
	Height      float64        `json:"height" yaml:"height"`
	Statuses    []string       `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Flags       map[string]any `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Actor is resolved by the host from ActorID. It is exposed to rows as
	// token.actor and never read from scene files.
	Actor *Actor `json:"actor,omitempty" yaml:"-"`
}

// TokenDocument returns d itself so documents satisfy TokenSource.
func (d *TokenDocument) TokenDocument() *TokenDocument {
	return d
}

// HasStatus reports whether the document carries the status effect id.
func (d *TokenDocument) HasStatus(id string) bool {
	if d == nil {
		return false
	}
	return slices.Contains(d.Statuses, id)
}

// Transform is the placeable's world transform: translation plus horizontal scale.
type Transform struct {
	TX float64 `json:"tx" yaml:"tx"`
	TY float64 `json:"ty" yaml:"ty"`
	A  float64 `json:"a" yaml:"a"`
}

// Token is the on-screen placeable for a TokenDocument.
type Token struct {
	Document *TokenDocument
	// Transform is nil while the token is not rendered in the current view.
	Transform *Transform
	// W is the placeable width in canvas pixels.
	W float64
}

// TokenDocument returns the underlying document.
func (t *Token) TokenDocument() *TokenDocument {
	if t == nil {
		return nil
	}
	return t.Document
}

// ID returns the document id, or "" for a nil token.
func (t *Token) ID() string {
	if t == nil || t.Document == nil {
		return ""
	}
	return t.Document.ID
}

// Name returns the document name.
func (t *Token) Name() string {
	if t == nil || t.Document == nil {
		return ""
	}
	return t.Document.Name
}

// Actor returns the document's actor, or nil.
func (t *Token) Actor() *Actor {
	if t == nil || t.Document == nil {
		return nil
	}
	return t.Document.Actor
}

// TokenSource is either a placeable or its document.
type TokenSource interface {
	TokenDocument() *TokenDocument
}

// Scene is the currently viewed scene.
type Scene interface {
	// Token returns the placeable with the given document id, or nil.
	Token(id string) *Token
	// SpeakerToken returns the token the viewer currently speaks as, or nil.
	SpeakerToken(v Viewer) *Token
	// MinimumDistance is the shortest grid distance between any spaces the two tokens occupy.
	MinimumDistance(a, b *Token) float64
	GridUnits() string
	// EquidistantDiagonals reports whether diagonal moves cost the same as orthogonal ones.
	EquidistantDiagonals() bool
}

// Canvas exposes the interactive state of the board.
type Canvas interface {
	ActiveTool() string
	// HUD returns the token the HUD is bound to and whether it is rendered.
	HUD() (tokenID string, rendered bool)
}

// Viewer is the user looking at the board.
type Viewer interface {
	UserID() string
	Permission(actor *Actor) Permission
}

// ItemPiles is the optional item-piles integration.
type ItemPiles interface {
	Active() bool
	IsValidItemPile(t *Token) bool
}

// Notifier surfaces messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}
