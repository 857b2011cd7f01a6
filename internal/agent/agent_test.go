package agent

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ollama-go/internal/config"
	"ollama-go/internal/events"
	"ollama-go/internal/tools"
	"ollama-go/pkg/ollama"
	"ollama-go/pkg/tool"
)

// scriptedClient replays one NDJSON body per request.
type scriptedClient struct {
	replies  []string
	requests []ollama.ChatRequest
}

func (s *scriptedClient) ChatStream(ctx context.Context, req ollama.ChatRequest) *ollama.Stream[ollama.ChatResponse] {
	s.requests = append(s.requests, req)
	body := `{"message":{"role":"assistant","content":"out of script"},"done":true}`
	if len(s.replies) > 0 {
		body, s.replies = s.replies[0], s.replies[1:]
	}
	return ollama.NewStream[ollama.ChatResponse](ctx, io.NopCloser(strings.NewReader(body)))
}

const (
	callRGB = `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"rgb_to_hex","arguments":{"red":1,"green":1,"blue":0}}}]},"done":true}`
	answer  = "{\"message\":{\"role\":\"assistant\",\"content\":\"Yellow is \"},\"done\":false}\n" +
		"{\"message\":{\"role\":\"assistant\",\"content\":\"#FFFF00.\"},\"done\":true,\"done_reason\":\"stop\"}\n"
)

func testConfig() config.Config {
	return config.Config{Host: config.DefaultHost, Model: config.DefaultModel, MaxSteps: 4}
}

func TestAgentRunWithTools(t *testing.T) {
	client := &scriptedClient{replies: []string{callRGB, answer}}
	ag := NewAgent(client, tools.Default(nil), nil, zap.NewNop(), testConfig())

	result, err := ag.Run(context.Background(), "what is yellow in hex?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer != "Yellow is #FFFF00." {
		t.Fatalf("unexpected answer %q", result.FinalAnswer)
	}
	if result.Status != "success" || result.StepsUsed != 2 {
		t.Fatalf("unexpected status %s after %d steps", result.Status, result.StepsUsed)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Status != "success" {
		t.Fatalf("expected one successful tool call, got %+v", result.ToolCalls)
	}
	if s, _ := result.ToolCalls[0].Output.AsString(true); s != "#FFFF00" {
		t.Fatalf("unexpected tool output %v", result.ToolCalls[0].Output)
	}

	if len(client.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(client.requests))
	}
	if len(client.requests[0].Tools) != 2 {
		t.Fatalf("expected tools to be advertised, got %d", len(client.requests[0].Tools))
	}
	followUp := client.requests[1].Messages
	last := followUp[len(followUp)-1]
	if last.Role != ollama.RoleTool || last.Content != "#FFFF00" || last.ToolName != "rgb_to_hex" {
		t.Fatalf("unexpected tool message %+v", last)
	}
	if followUp[len(followUp)-2].Role != ollama.RoleAssistant || len(followUp[len(followUp)-2].ToolCalls) != 1 {
		t.Fatalf("expected assistant tool call before the result")
	}

	var deltas int
	for _, event := range result.Events {
		if event.Type == events.ModelDelta {
			deltas++
		}
	}
	if deltas != 2 {
		t.Fatalf("expected 2 deltas, got %d", deltas)
	}
}

func TestAgentUnknownToolIsReported(t *testing.T) {
	unknown := `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"launch","arguments":{}}}]},"done":true}`
	client := &scriptedClient{replies: []string{unknown, answer}}
	ag := NewAgent(client, tools.Default(nil), nil, nil, testConfig())

	result, err := ag.Run(context.Background(), "launch it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := client.requests[1].Messages
	if got := msgs[len(msgs)-1].Content; got != `{"error":"unknown tool: launch"}` {
		t.Fatalf("unexpected tool message %q", got)
	}
	if len(result.ToolCalls) != 0 {
		t.Fatalf("unknown tools should not be recorded")
	}
}

func TestAgentMaxSteps(t *testing.T) {
	client := &scriptedClient{replies: []string{callRGB, callRGB, `{"message":{"role":"assistant","content":"Probably #FFFF00."},"done":true}`}}
	cfg := testConfig()
	cfg.MaxSteps = 2
	ag := NewAgent(client, tools.Default(nil), nil, nil, cfg)

	result, err := ag.Run(context.Background(), "loop")
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if result.Status != "partial" || result.StepsUsed != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.FinalAnswer != "Max steps reached. Probably #FFFF00." {
		t.Fatalf("unexpected answer %q", result.FinalAnswer)
	}
	if tools := client.requests[2].Tools; len(tools) != 0 {
		t.Fatalf("final request must not advertise tools")
	}
}

func TestAgentStreamError(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"error":"model \"nope\" not found"}`}}
	ag := NewAgent(client, tool.NewRegistry(), nil, nil, testConfig())

	result, err := ag.Run(context.Background(), "hi")
	var respErr *ollama.ResponseError
	if !errors.As(err, &respErr) || respErr.Message != `model "nope" not found` {
		t.Fatalf("expected response error, got %v", err)
	}
	if result.Status != "failure" {
		t.Fatalf("unexpected status %s", result.Status)
	}
	if last := result.Events[len(result.Events)-1]; last.Type != events.RunError {
		t.Fatalf("expected trailing RunError, got %s", last.Type)
	}
}

func TestAgentNoToolsConfig(t *testing.T) {
	client := &scriptedClient{replies: []string{answer}}
	cfg := testConfig()
	cfg.NoTools = true
	ag := NewAgent(client, tools.Default(nil), nil, nil, cfg)

	if _, err := ag.Run(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.requests[0].Tools) != 0 {
		t.Fatalf("tools should be disabled")
	}
}
