package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ollama-go/internal/config"
	"ollama-go/internal/events"
	"ollama-go/internal/render"
	"ollama-go/internal/util"
	"ollama-go/internal/version"
	"ollama-go/pkg/ollama"
	"ollama-go/pkg/tool"
	"ollama-go/pkg/value"
)

const (
	previewLines = 20
	previewBytes = 2048
)

// ErrMaxSteps is returned with a partial result when the loop runs out of steps.
var ErrMaxSteps = errors.New("max steps reached")

// ChatClient streams chat replies. *ollama.Client satisfies it.
type ChatClient interface {
	ChatStream(ctx context.Context, req ollama.ChatRequest) *ollama.Stream[ollama.ChatResponse]
}

// RunResult captures run output for JSON mode.
type RunResult struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"timestamp_start"`
	FinishedAt  time.Time        `json:"timestamp_end"`
	Host        string           `json:"host"`
	Question    string           `json:"question"`
	Model       string           `json:"model"`
	StepsUsed   int              `json:"steps_used"`
	Status      string           `json:"status"`
	FinalAnswer string           `json:"final_answer"`
	ToolCalls   []ToolCallRecord `json:"tool_calls"`
	Events      []events.Event   `json:"events"`
}

// ToolCallRecord records tool call history.
type ToolCallRecord struct {
	ToolName   string      `json:"tool_name"`
	Input      value.Value `json:"input"`
	Output     value.Value `json:"output"`
	Status     string      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
}

// Agent runs the chat and tool loop.
type Agent struct {
	client   ChatClient
	tools    *tool.Registry
	renderer render.Renderer
	logger   *zap.Logger
	cfg      config.Config
}

// NewAgent constructs an Agent. A nil registry disables tools.
func NewAgent(client ChatClient, tools *tool.Registry, renderer render.Renderer, logger *zap.Logger, cfg config.Config) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tools == nil || cfg.NoTools {
		tools = tool.NewRegistry()
	}
	return &Agent{client: client, tools: tools, renderer: renderer, logger: logger, cfg: cfg}
}

// Run asks question and keeps executing requested tools until the model
// answers without calling any, or MaxSteps round trips have been made.
func (a *Agent) Run(ctx context.Context, question string) (RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))
	result := RunResult{
		RunID:     runID,
		StartedAt: started,
		Host:      a.cfg.Host,
		Question:  question,
		Model:     a.cfg.Model,
		Status:    "failure",
	}

	emit := func(event events.Event) {
		result.Events = append(result.Events, event)
		if a.renderer != nil {
			a.renderer.Emit(event)
		}
	}
	finish := func(status string, steps int) {
		result.Status = status
		result.StepsUsed = steps
		result.FinishedAt = time.Now()
		emit(events.New(events.FinalAnswerReady, events.FinalAnswerPayload{Answer: result.FinalAnswer}))
		emit(events.New(events.RunFinished, events.RunFinishedPayload{Status: status, Steps: steps, FinishedAt: result.FinishedAt}))
	}
	fail := func(err error, steps int) (RunResult, error) {
		logger.Error("model request failed", zap.Int("step", steps), zap.Error(err))
		emit(events.New(events.RunError, events.RunErrorPayload{Message: err.Error()}))
		result.StepsUsed = steps
		result.FinishedAt = time.Now()
		return result, err
	}

	names := a.tools.Names()
	emit(events.New(events.RunStarted, events.RunStartedPayload{
		Version:   version.Version,
		Host:      a.cfg.Host,
		Model:     a.cfg.Model,
		Tools:     names,
		RunID:     runID,
		StartedAt: started,
	}))

	messages := []ollama.Message{
		ollama.SystemMessage(systemPrompt(names)),
		ollama.UserMessage(question),
	}

	maxSteps := a.cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = config.DefaultMaxSteps
	}

	steps := 0
	for steps < maxSteps {
		steps++
		emit(events.New(events.StepStarted, events.StepStartedPayload{Step: steps, Messages: len(messages)}))

		reply, err := a.stream(ctx, messages, a.tools.Tools(), emit)
		if err != nil {
			return fail(err, steps)
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			result.FinalAnswer = strings.TrimSpace(reply.Content)
			finish("success", steps)
			logger.Debug("run finished", zap.Int("steps", steps))
			return result, nil
		}

		for _, call := range reply.ToolCalls {
			record, content := a.execute(ctx, call, emit)
			if record != nil {
				result.ToolCalls = append(result.ToolCalls, *record)
			}
			messages = append(messages, ollama.ToolMessage(call.Function.Name, content))
		}
	}

	logger.Warn("max steps reached", zap.Int("steps", steps))
	messages = append(messages, ollama.UserMessage(maxStepsPrompt()))
	reply, err := a.stream(ctx, messages, nil, emit)
	answer := "Max steps reached; unable to complete."
	if err == nil && strings.TrimSpace(reply.Content) != "" {
		answer = reply.Content
	}
	if !strings.Contains(strings.ToLower(answer), "max steps") {
		answer = "Max steps reached. " + answer
	}
	result.FinalAnswer = strings.TrimSpace(answer)
	finish("partial", steps)
	return result, ErrMaxSteps
}

// stream sends one chat request and folds the streamed chunks into a single
// assistant message. Content deltas are emitted as they arrive.
func (a *Agent) stream(ctx context.Context, messages []ollama.Message, tools []tool.Tool, emit func(events.Event)) (ollama.Message, error) {
	req := ollama.ChatRequest{
		Model:     a.cfg.Model,
		Messages:  messages,
		Tools:     tools,
		KeepAlive: a.cfg.KeepAlive,
	}
	var (
		content strings.Builder
		calls   []tool.Call
	)
	for chunk, err := range a.client.ChatStream(ctx, req).All() {
		if err != nil {
			return ollama.Message{}, err
		}
		if delta := chunk.Message.Content; delta != "" {
			content.WriteString(delta)
			emit(events.New(events.ModelDelta, events.ModelDeltaPayload{Delta: delta}))
		}
		calls = append(calls, chunk.Message.ToolCalls...)
	}
	return ollama.AssistantMessage(content.String(), calls...), nil
}

// execute runs one call and returns the record plus the tool message content.
// Failures are reported back to the model rather than ending the run.
func (a *Agent) execute(ctx context.Context, call tool.Call, emit func(events.Event)) (*ToolCallRecord, string) {
	name := call.Function.Name
	input := util.RedactValue(call.ArgumentsValue())

	t, err := a.tools.Resolve(call)
	if err != nil {
		a.logger.Warn("model requested unknown tool", zap.String("tool", name))
		emit(events.New(events.ToolCallFailed, events.ToolCallFinishedPayload{ToolName: name, Status: "error", Preview: err.Error(), LineCount: 1, ByteCount: len(err.Error())}))
		return nil, errorContent(err)
	}

	start := time.Now()
	emit(events.New(events.ToolCallStarted, events.ToolCallStartedPayload{ToolName: name, Input: input, StartedAt: start}))

	out, err := t.Invoke(ctx, call.ArgumentsValue())
	duration := time.Since(start).Milliseconds()
	if err != nil {
		a.logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
		emit(events.New(events.ToolCallFailed, events.ToolCallFinishedPayload{ToolName: name, Status: "error", Preview: util.Preview(util.RedactSecrets(err.Error()), previewLines, previewBytes), LineCount: 1, ByteCount: len(err.Error()), DurationMs: duration}))
		return &ToolCallRecord{
			ToolName:   name,
			Input:      input,
			Output:     value.Object(map[string]value.Value{"error": value.String(err.Error())}),
			Status:     "error",
			StartedAt:  start,
			DurationMs: duration,
		}, errorContent(err)
	}

	content := tool.Result{Name: name, Output: out}.Content()
	summary := util.Summarize(util.RedactSecrets(content), previewLines, previewBytes)
	emit(events.New(events.ToolCallFinished, events.ToolCallFinishedPayload{
		ToolName:   name,
		Status:     "success",
		Output:     util.RedactValue(out),
		Preview:    summary.Preview,
		LineCount:  summary.LineCount,
		ByteCount:  summary.ByteCount,
		Truncated:  summary.Truncated,
		DurationMs: duration,
	}))
	return &ToolCallRecord{
		ToolName:   name,
		Input:      input,
		Output:     util.RedactValue(out),
		Status:     "success",
		StartedAt:  start,
		DurationMs: duration,
	}, content
}

func errorContent(err error) string {
	return string(value.Marshal(value.Object(map[string]value.Value{"error": value.String(err.Error())})))
}
