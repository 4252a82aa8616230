package attribute

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakwood-commons/tokentip/internal/cel"
	"github.com/oakwood-commons/tokentip/internal/formatter"
	"github.com/oakwood-commons/tokentip/internal/navigator"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/loader"
)

// CodeErrorMessage is the notification shown when a code row fails.
const CodeErrorMessage = "A tooltip code row produced an error!"

// Path prefixes selecting the lookup root.
const (
	PrefixToken = "@token"
	PrefixActor = "@actor"
)

// CodeError reports a code row that failed to compile or evaluate.
// It aborts the whole render pass.
type CodeError struct {
	Row Row
	Err error
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("code row %q: %v", e.Row.Path, e.Err)
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// Generate produces the row's value for src, or nil when the row is omitted:
// no document, no actor, or the viewer's permission on the actor is below the
// row's threshold.
func (r Row) Generate(ctx context.Context, src host.TokenSource, env *Env) (*Value, error) {
	if src == nil {
		return nil, nil
	}
	doc := src.TokenDocument()
	if doc == nil || doc.Actor == nil {
		return nil, nil
	}
	if env.permission(doc.Actor) < r.Permission {
		return nil, nil
	}
	return Evaluate(ctx, r, doc, env)
}

// Evaluate dispatches on the row type without any permission check.
func Evaluate(ctx context.Context, r Row, doc *host.TokenDocument, env *Env) (*Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		v   *Value
		err error
	)
	switch r.Type {
	case TypePath:
		v = pathValue(r, doc)
	case TypeCode:
		v, err = codeValue(ctx, r, doc, env)
	case TypeGenerator:
		v = &Value{}
	default:
		return nil, fmt.Errorf("unknown row type %q", r.Type)
	}
	if err != nil || v == nil {
		return nil, err
	}
	if v.Icon == "" {
		v.Icon = r.Icon
	}
	return v, nil
}

// splitPath removes an @token or @actor prefix and returns the selected root.
func splitPath(path string, doc *host.TokenDocument) (any, string) {
	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case PrefixToken:
		return doc, rest
	case PrefixActor:
		return doc.Actor, rest
	}
	return doc.Actor, path
}

func pathValue(r Row, doc *host.TokenDocument) *Value {
	root, path := splitPath(r.Path, doc)
	if path == "" {
		return &Value{Value: formatter.Undefined}
	}
	found, ok := navigator.Lookup(root, path)
	if !ok {
		return &Value{Value: formatter.Undefined}
	}
	return &Value{Value: formatter.Stringify(found)}
}

func codeValue(ctx context.Context, r Row, doc *host.TokenDocument, env *Env) (*Value, error) {
	actor, err := loader.Normalize(doc.Actor)
	if err != nil {
		return nil, codeFailure(r, env, err)
	}
	token, err := loader.Normalize(doc)
	if err != nil {
		return nil, codeFailure(r, env, err)
	}

	result, err := env.Expr.Evaluate(r.Path, cel.Bindings{
		Actor:   actor,
		Token:   token,
		Model:   r.Object(),
		Presets: env.presetNames(),
	})
	if err != nil {
		return nil, codeFailure(r, env, err)
	}

	switch res := result.(type) {
	case nil:
		return nil, nil
	case cel.PresetRef:
		return invokePreset(ctx, r, doc, env, res.Name)
	case map[string]any:
		v := &Value{Value: formatter.Stringify(res["value"])}
		if icon, ok := res["icon"].(string); ok {
			v.Icon = icon
		}
		return v, nil
	default:
		return &Value{Value: formatter.Stringify(res)}, nil
	}
}

// invokePreset runs a referenced preset once. Presets return values, never
// references, so indirection stops here.
func invokePreset(ctx context.Context, r Row, doc *host.TokenDocument, env *Env, name string) (*Value, error) {
	var fn PresetFunc
	if env.Presets != nil {
		fn, _ = env.Presets.Lookup(name)
	}
	if fn == nil {
		return nil, codeFailure(r, env, fmt.Errorf("unknown preset %q", name))
	}
	return fn(ctx, PresetInput{
		Actor:   doc.Actor,
		Token:   doc,
		Row:     r.Object(),
		Presets: env.Presets,
		Scene:   env.Scene,
		Viewer:  env.Viewer,
	})
}

func codeFailure(r Row, env *Env, err error) error {
	env.notifyError(CodeErrorMessage)
	env.Log.Error(err, "tooltip code row failed", "row", r.String())
	return &CodeError{Row: r, Err: err}
}
