// Package cel evaluates tooltip code rows as CEL expressions.
//
// The environment is deliberately small: four dynamic variables (actor,
// token, model, presets), the standard operators and macros, and the
// strings, lists and math extensions. Expressions cannot reach anything the
// caller did not bind.
package cel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Variable names visible to expressions.
const (
	VarActor   = "actor"
	VarToken   = "token"
	VarModel   = "model"
	VarPresets = "presets"
)

// PresetRefType is the CEL type of the values in the presets map.
var PresetRefType = types.NewOpaqueType("tokentip.PresetRef")

// PresetRef is a reference to a registered preset. An expression that
// evaluates to a PresetRef asks the caller to run that preset instead.
type PresetRef struct {
	Name string
}

// ConvertToNative implements ref.Val.
func (p PresetRef) ConvertToNative(typeDesc reflect.Type) (any, error) {
	if reflect.TypeOf(p).AssignableTo(typeDesc) {
		return p, nil
	}
	return nil, fmt.Errorf("type conversion error from preset reference to '%v'", typeDesc)
}

// ConvertToType implements ref.Val.
func (p PresetRef) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case PresetRefType:
		return p
	case types.TypeType:
		return PresetRefType
	}
	return types.NewErr("type conversion error from '%s' to '%s'", PresetRefType.TypeName(), typeVal.TypeName())
}

// Equal implements ref.Val.
func (p PresetRef) Equal(other ref.Val) ref.Val {
	o, ok := other.(PresetRef)
	return types.Bool(ok && o.Name == p.Name)
}

// Type implements ref.Val.
func (p PresetRef) Type() ref.Type {
	return PresetRefType
}

// Value implements ref.Val.
func (p PresetRef) Value() any {
	return p
}

// Bindings are the values an expression is evaluated against.
type Bindings struct {
	Actor   any
	Token   any
	Model   any
	Presets []string
}

// Evaluator compiles and evaluates tooltip expressions, caching programs by source.
type Evaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEvaluator creates an evaluator. Additional options extend the environment.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newTooltipEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// GetEnvironment returns the CEL environment for introspection.
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

func newTooltipEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 7+len(opts))
	allOpts = append(allOpts,
		cel.Variable(VarActor, cel.DynType),
		cel.Variable(VarToken, cel.DynType),
		cel.Variable(VarModel, cel.DynType),
		cel.Variable(VarPresets, cel.MapType(cel.StringType, cel.DynType)),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Compile checks an expression without evaluating it.
func (e *Evaluator) Compile(expr string) error {
	_, err := e.program(expr)
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// Evaluate runs expr against the bindings. The result is a Go value (see
// ToGo), nil for a CEL null, or a PresetRef.
func (e *Evaluator) Evaluate(expr string, b Bindings) (any, error) {
	prg, err := e.program(expr)
	if err != nil {
		return nil, err
	}

	result, _, err := prg.Eval(map[string]any{
		VarActor:   b.Actor,
		VarToken:   b.Token,
		VarModel:   b.Model,
		VarPresets: presetMap(b.Presets),
	})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	if p, ok := result.(PresetRef); ok {
		return p, nil
	}
	return ToGo(result), nil
}

func presetMap(names []string) ref.Val {
	m := make(map[ref.Val]ref.Val, len(names))
	for _, name := range names {
		m[types.String(name)] = PresetRef{Name: name}
	}
	return types.NewRefValMap(types.DefaultTypeAdapter, m)
}

// ToGo converts CEL values to Go native types recursively.
func ToGo(val ref.Val) any {
	if val == nil || val.Type() == types.NullType {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case PresetRef:
		return v
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = convertNative(elem)
		}
		return out
	case map[string]any:
		return convertMapValues(inner)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, v := range inner {
			out[keyString(k)] = ToGo(v)
		}
		return out
	default:
		return inner
	}
}

func keyString(k ref.Val) string {
	if s, ok := k.(types.String); ok {
		return string(s)
	}
	if kv, ok := k.(interface{ Value() any }); ok {
		return fmt.Sprintf("%v", kv.Value())
	}
	return fmt.Sprintf("%v", k)
}

func convertNative(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		return convertMapValues(t)
	default:
		return v
	}
}

func convertMapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convertNative(v)
	}
	return out
}

// Functions lists the callable functions and macros of the environment, sorted.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	for _, fn := range e.env.Functions() {
		if !isOperator(fn.Name()) {
			seen[fn.Name()] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isOperator filters out operator-style declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	return name == "!_" || name == "-_" || name == "_[_]" || name == "_?_:_"
}
