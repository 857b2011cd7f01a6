package render

import (
	"bytes"
	"strings"
	"testing"

	"ollama-go/internal/events"
)

func TestStdoutRendererStreamsDeltas(t *testing.T) {
	var buf bytes.Buffer
	r := NewStdoutRenderer(&buf, Options{ShowTools: true})

	r.Emit(events.New(events.RunStarted, events.RunStartedPayload{Model: "llama3.2"}))
	r.Emit(events.New(events.ModelDelta, events.ModelDeltaPayload{Delta: "Checking"}))
	r.Emit(events.New(events.ToolCallFinished, events.ToolCallFinishedPayload{ToolName: "rgb_to_hex", Status: "success", LineCount: 1, ByteCount: 7, DurationMs: 2}))
	r.Emit(events.New(events.ModelDelta, events.ModelDeltaPayload{Delta: "Yellow is #FFFF00."}))
	r.Emit(events.New(events.FinalAnswerReady, events.FinalAnswerPayload{Answer: "Yellow is #FFFF00."}))

	want := "Checking\ntool: rgb_to_hex ok (2ms, 1 lines, 7 bytes)\nYellow is #FFFF00.\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestStdoutRendererQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewStdoutRenderer(&buf, Options{Quiet: true, ShowTools: true, Verbose: true})

	r.Emit(events.New(events.RunStarted, events.RunStartedPayload{Model: "llama3.2"}))
	r.Emit(events.New(events.ToolCallStarted, events.ToolCallStartedPayload{ToolName: "current_time"}))
	r.Emit(events.New(events.FinalAnswerReady, events.FinalAnswerPayload{Answer: "It is noon."}))

	if got := strings.TrimSpace(buf.String()); got != "It is noon." {
		t.Fatalf("expected only the answer, got %q", got)
	}
}
