package render

import "ollama-go/internal/events"

// Renderer emits events to an output target.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

// Options controls what the stdout renderer prints.
type Options struct {
	Verbose bool
	Quiet   bool
	// ShowTools prints one line per tool call.
	ShowTools bool
}
