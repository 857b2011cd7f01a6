// Package tool models functions a chat model may call: their schemas, a
// registry to correlate calls back to callables, and argument decoding.
package tool

import (
	"context"
	"fmt"

	"ollama-go/pkg/value"
)

// Tool describes a callable tool.
type Tool interface {
	Name() string
	Description() string
	// InputSchema is the parameters object: {"type":"object","properties":...,"required":[...]}.
	InputSchema() value.Value
	// Schema is the full function definition sent to the server.
	Schema() value.Value
	Invoke(ctx context.Context, arguments value.Value) (value.Value, error)
}

// Call is a tool invocation requested by the model.
type Call struct {
	Function CallFunction `json:"function"`
}

type CallFunction struct {
	Name      string                 `json:"name"`
	Arguments map[string]value.Value `json:"arguments"`
}

// NewCall builds a call, mostly useful for tests and replaying history.
func NewCall(name string, arguments map[string]value.Value) Call {
	return Call{Function: CallFunction{Name: name, Arguments: arguments}}
}

// ArgumentsValue returns the call arguments as an object value.
func (c Call) ArgumentsValue() value.Value {
	return value.Object(c.Function.Arguments)
}

// Func is a Tool backed by a typed Go function.
type Func[In, Out any] struct {
	name        string
	description string
	properties  map[string]value.Value
	required    []string
	fn          func(context.Context, In) (Out, error)
}

// New defines a tool from its parameter properties and required names.
func New[In, Out any](name, description string, properties map[string]value.Value, required []string, fn func(context.Context, In) (Out, error)) *Func[In, Out] {
	if properties == nil {
		properties = map[string]value.Value{}
	}
	return &Func[In, Out]{
		name:        name,
		description: description,
		properties:  properties,
		required:    required,
		fn:          fn,
	}
}

// NewLegacy defines a tool from a full parameters schema.
//
// Deprecated: use New with the properties map.
func NewLegacy[In, Out any](name, description string, parameters value.Value, required []string, fn func(context.Context, In) (Out, error)) *Func[In, Out] {
	warnLegacy(name)
	properties, required := unwrapParameters(parameters, required)
	return New(name, description, properties, required, fn)
}

func (f *Func[In, Out]) Name() string { return f.name }

func (f *Func[In, Out]) Description() string { return f.description }

func (f *Func[In, Out]) Required() []string { return f.required }

func (f *Func[In, Out]) InputSchema() value.Value {
	return parametersSchema(f.properties, f.required)
}

func (f *Func[In, Out]) Schema() value.Value {
	return BuildSchema(f.name, f.description, f.properties, f.required)
}

// Call runs the underlying function.
func (f *Func[In, Out]) Call(ctx context.Context, in In) (Out, error) {
	return f.fn(ctx, in)
}

// Invoke decodes the arguments into In, calls the function and converts
// its output back into a Value.
func (f *Func[In, Out]) Invoke(ctx context.Context, arguments value.Value) (value.Value, error) {
	in, err := DecodeArguments[In](arguments)
	if err != nil {
		return value.Value{}, fmt.Errorf("tool %s: %w", f.name, err)
	}
	out, err := f.Call(ctx, in)
	if err != nil {
		return value.Value{}, err
	}
	result, err := value.FromAny(out)
	if err != nil {
		return value.Value{}, fmt.Errorf("tool %s: encode output: %w", f.name, err)
	}
	return result, nil
}

// DecodeArguments decodes call arguments into In using the non-strict
// scalar conversions. A value.Value input receives the arguments as is.
func DecodeArguments[In any](arguments value.Value) (In, error) {
	var in In
	if raw, ok := any(&in).(*value.Value); ok {
		*raw = arguments
		return in, nil
	}
	if err := arguments.Decode(&in); err != nil {
		return in, err
	}
	return in, nil
}
