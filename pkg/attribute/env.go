package attribute

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/oakwood-commons/tokentip/internal/cel"
	"github.com/oakwood-commons/tokentip/pkg/host"
)

// PresetInput is what a preset sees: the same actor and token as the row,
// a read-only snapshot of the row, and the host scene and viewer.
type PresetInput struct {
	Actor   *host.Actor
	Token   *host.TokenDocument
	Row     map[string]any
	Presets PresetLookup
	Scene   host.Scene
	Viewer  host.Viewer
}

// PresetFunc generates a row value. A nil value omits the row.
type PresetFunc func(ctx context.Context, in PresetInput) (*Value, error)

// PresetLookup resolves presets by name.
type PresetLookup interface {
	Lookup(name string) (PresetFunc, bool)
	Names() []string
}

// Env is everything rows are generated against besides the token itself.
type Env struct {
	Expr     *cel.Evaluator
	Presets  PresetLookup
	Scene    host.Scene
	Viewer   host.Viewer
	Notifier host.Notifier
	Log      logr.Logger
}

// Option configures an Env.
type Option func(*Env)

// WithExpr sets the expression evaluator used for code rows.
func WithExpr(e *cel.Evaluator) Option {
	return func(env *Env) {
		env.Expr = e
	}
}

// WithPresets sets the preset table.
func WithPresets(p PresetLookup) Option {
	return func(env *Env) {
		env.Presets = p
	}
}

// WithScene sets the host scene.
func WithScene(s host.Scene) Option {
	return func(env *Env) {
		env.Scene = s
	}
}

// WithViewer sets the viewing user. Without one every actor permission is NONE.
func WithViewer(v host.Viewer) Option {
	return func(env *Env) {
		env.Viewer = v
	}
}

// WithNotifier sets where user-facing errors go.
func WithNotifier(n host.Notifier) Option {
	return func(env *Env) {
		env.Notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(env *Env) {
		env.Log = l
	}
}

// NewEnv creates an Env with defaults: a fresh expression evaluator, no
// presets, and a discarding logger.
func NewEnv(opts ...Option) (*Env, error) {
	env := &Env{Log: logr.Discard()}
	for _, opt := range opts {
		opt(env)
	}
	if env.Expr == nil {
		e, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		env.Expr = e
	}
	return env, nil
}

func (env *Env) permission(actor *host.Actor) host.Permission {
	if env.Viewer == nil {
		return host.PermissionNone
	}
	return env.Viewer.Permission(actor)
}

func (env *Env) presetNames() []string {
	if env.Presets == nil {
		return nil
	}
	return env.Presets.Names()
}

func (env *Env) notifyError(msg string) {
	if env.Notifier != nil {
		env.Notifier.Error(msg)
	}
}
