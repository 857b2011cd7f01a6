package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"ollama-go/internal/events"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w                io.Writer
	mu               sync.Mutex
	opts             Options
	sawDelta         bool
	endedWithNewline bool
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, opts Options) *StdoutRenderer {
	return &StdoutRenderer{w: w, opts: opts}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.RunStarted:
		if payload, ok := event.Payload.(events.RunStartedPayload); ok {
			if r.opts.Quiet || !r.opts.Verbose {
				return
			}
			fmt.Fprintf(r.w, "olla v%s | host: %s | model: %s | run: %s\n", payload.Version, payload.Host, payload.Model, payload.RunID)
			if len(payload.Tools) > 0 {
				fmt.Fprintf(r.w, "tools: %s\n", strings.Join(payload.Tools, ", "))
			}
		}
	case events.StepStarted:
		if payload, ok := event.Payload.(events.StepStartedPayload); ok {
			if r.opts.Quiet || !r.opts.Verbose {
				return
			}
			fmt.Fprintf(r.w, "step %d (%d messages)\n", payload.Step, payload.Messages)
		}
	case events.ToolCallStarted:
		if payload, ok := event.Payload.(events.ToolCallStartedPayload); ok {
			if r.opts.Quiet || !r.opts.ShowTools || !r.opts.Verbose {
				return
			}
			r.breakLine()
			fmt.Fprintf(r.w, "tool: %s start\n", payload.ToolName)
			fmt.Fprintf(r.w, "input: %v\n", payload.Input)
		}
	case events.ToolCallFinished, events.ToolCallFailed:
		if payload, ok := event.Payload.(events.ToolCallFinishedPayload); ok {
			if r.opts.Quiet || !r.opts.ShowTools {
				return
			}
			r.breakLine()
			status := payload.Status
			if status == "success" {
				status = "ok"
			} else if status == "error" {
				status = "err"
			}
			trunc := ""
			if payload.Truncated {
				trunc = ", truncated"
			}
			fmt.Fprintf(r.w, "tool: %s %s (%dms, %d lines, %d bytes%s)\n", payload.ToolName, status, payload.DurationMs, payload.LineCount, payload.ByteCount, trunc)
			if r.opts.Verbose && payload.Preview != "" {
				fmt.Fprintln(r.w, "preview:")
				for _, line := range strings.Split(payload.Preview, "\n") {
					fmt.Fprintf(r.w, "  %s\n", line)
				}
			}
		}
	case events.ModelDelta:
		if payload, ok := event.Payload.(events.ModelDeltaPayload); ok {
			if payload.Delta == "" {
				return
			}
			fmt.Fprint(r.w, payload.Delta)
			r.sawDelta = true
			r.endedWithNewline = strings.HasSuffix(payload.Delta, "\n")
		}
	case events.FinalAnswerReady:
		if payload, ok := event.Payload.(events.FinalAnswerPayload); ok {
			if r.sawDelta {
				if !r.endedWithNewline {
					fmt.Fprintln(r.w)
				}
				return
			}
			fmt.Fprintln(r.w, payload.Answer)
		}
	case events.RunError:
		if payload, ok := event.Payload.(events.RunErrorPayload); ok {
			r.breakLine()
			fmt.Fprintf(r.w, "Error: %s\n", payload.Message)
		}
	}
}

// breakLine ends a partially streamed line before printing status output.
func (r *StdoutRenderer) breakLine() {
	if r.sawDelta && !r.endedWithNewline {
		fmt.Fprintln(r.w)
		r.endedWithNewline = true
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}
