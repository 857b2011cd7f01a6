package tool

import (
	"context"
	"fmt"
	"sort"

	"ollama-go/pkg/value"
)

// UnknownToolError is returned when a call names a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// Result is the output of one executed call.
type Result struct {
	Name   string
	Output value.Value
}

// Content renders the output as tool message content: strings verbatim,
// everything else as JSON.
func (r Result) Content() string {
	if s, ok := r.Output.AsString(true); ok {
		return s
	}
	return string(value.Marshal(r.Output))
}

// Registry stores available tools. A nil *Registry is empty.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from tools. Later tools replace earlier
// ones with the same name.
func NewRegistry(items ...Tool) *Registry {
	reg := &Registry{tools: map[string]Tool{}}
	for _, item := range items {
		reg.Register(item)
	}
	return reg
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools ordered by name.
func (r *Registry) Tools() []Tool {
	names := r.Names()
	items := make([]Tool, 0, len(names))
	for _, name := range names {
		items = append(items, r.tools[name])
	}
	return items
}

// Schemas returns every tool definition, ordered by name.
func (r *Registry) Schemas() []value.Value {
	names := r.Names()
	defs := make([]value.Value, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Schema())
	}
	return defs
}

// Resolve finds the tool a call refers to by exact name.
func (r *Registry) Resolve(call Call) (Tool, error) {
	t, ok := r.Get(call.Function.Name)
	if !ok {
		return nil, &UnknownToolError{Name: call.Function.Name}
	}
	return t, nil
}

// Execute resolves and invokes a call.
func (r *Registry) Execute(ctx context.Context, call Call) (Result, error) {
	t, err := r.Resolve(call)
	if err != nil {
		return Result{}, err
	}
	out, err := t.Invoke(ctx, call.ArgumentsValue())
	if err != nil {
		return Result{}, err
	}
	return Result{Name: t.Name(), Output: out}, nil
}

// ResolveCall finds a typed tool for call and decodes its arguments.
func ResolveCall[In, Out any](r *Registry, call Call) (*Func[In, Out], In, error) {
	var zero In
	t, err := r.Resolve(call)
	if err != nil {
		return nil, zero, err
	}
	typed, ok := t.(*Func[In, Out])
	if !ok {
		return nil, zero, fmt.Errorf("tool %s has a different input or output type", call.Function.Name)
	}
	in, err := DecodeArguments[In](call.ArgumentsValue())
	if err != nil {
		return nil, zero, err
	}
	return typed, in, nil
}
