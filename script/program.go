package script

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Scripts declare a `handlers` map from phase name to
// func(engine, state, event). Phases without a handler are skipped.
const lifecycleDispatch = `
__handler := handlers[__phase]
if is_callable(__handler) {
	__handler(__engine, __state, __event)
}
`

// Program is a compiled script shared by every instance created from it.
type Program struct {
	Name        string
	Description string

	compiled *tengo.Compiled
	handlers map[string]bool
}

// Compile builds a program from tengo source.
func Compile(name string, src []byte) (*Program, error) {
	full := string(src) + "\n" + lifecycleDispatch
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__event", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	p := &Program{Name: name, compiled: compiled}

	// Run once without a phase to evaluate top-level declarations.
	decl := p.NewInstance()
	if err := decl.Run("", nil, nil); err != nil {
		return nil, fmt.Errorf("script: init %s: %w", name, err)
	}
	if decl.compiled.IsDefined("description") {
		p.Description = strings.TrimSpace(decl.compiled.Get("description").String())
	}
	p.handlers = make(map[string]bool)
	for name := range decl.compiled.Get("handlers").Map() {
		p.handlers[name] = true
	}
	return p, nil
}

// Handles reports whether the script declares a handler for phase.
func (p *Program) Handles(phase string) bool { return p.handlers[phase] }

// Instance is one running copy of a program with its own persistent state.
type Instance struct {
	program  *Program
	compiled *tengo.Compiled
	state    *tengo.Map
}

func (p *Program) NewInstance() *Instance {
	return &Instance{
		program:  p,
		compiled: p.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
}

func (in *Instance) Program() *Program { return in.program }

// Run invokes the handler for phase with the given engine bindings and event.
func (in *Instance) Run(phase string, engine *tengo.ImmutableMap, event map[string]any) error {
	if in == nil || in.compiled == nil {
		return fmt.Errorf("nil script instance")
	}
	if engine == nil {
		engine = &tengo.ImmutableMap{Value: map[string]tengo.Object{}}
	}
	ev, err := toObjectMap(event)
	if err != nil {
		return err
	}
	if err := in.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := in.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := in.compiled.Set("__state", in.state); err != nil {
		return err
	}
	if err := in.compiled.Set("__event", ev); err != nil {
		return err
	}
	return in.compiled.Run()
}

// State returns a Go copy of the instance's persistent state.
func (in *Instance) State() map[string]any {
	out, _ := objectToAny(in.state).(map[string]any)
	return out
}

func toObjectMap(values map[string]any) (*tengo.ImmutableMap, error) {
	out := make(map[string]tengo.Object, len(values))
	for k, v := range values {
		o, err := tengo.FromInterface(v)
		if err != nil {
			return nil, fmt.Errorf("script: event field %s: %w", k, err)
		}
		out[k] = o
	}
	return &tengo.ImmutableMap{Value: out}, nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectAsFloat(obj tengo.Object) (float64, bool) {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, true
	case *tengo.Int:
		return float64(v.Value), true
	default:
		return 0, false
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.ImmutableArray:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
