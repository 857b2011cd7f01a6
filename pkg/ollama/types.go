package ollama

import (
	"encoding/base64"
	"time"

	"ollama-go/pkg/tool"
	"ollama-go/pkg/value"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one chat turn. Images travel as plain base64 strings. Only
// assistant messages carry tool calls; tool messages may name the tool that
// produced them.
type Message struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Images    [][]byte    `json:"images,omitempty"`
	ToolCalls []tool.Call `json:"tool_calls,omitempty"`
	ToolName  string      `json:"tool_name,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string, images ...[]byte) Message {
	return Message{Role: RoleUser, Content: content, Images: images}
}

func AssistantMessage(content string, calls ...tool.Call) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage carries a tool result back to the model.
func ToolMessage(name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolName: name}
}

func (m Message) toValue() value.Value {
	fields := map[string]value.Value{
		"role":    value.String(string(m.Role)),
		"content": value.String(m.Content),
	}
	if len(m.Images) > 0 {
		images := make([]value.Value, len(m.Images))
		for i, img := range m.Images {
			images[i] = value.String(base64.StdEncoding.EncodeToString(img))
		}
		fields["images"] = value.Array(images...)
	}
	if len(m.ToolCalls) > 0 {
		calls := make([]value.Value, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			calls[i] = value.Object(map[string]value.Value{
				"function": value.Object(map[string]value.Value{
					"name":      value.String(call.Function.Name),
					"arguments": call.ArgumentsValue(),
				}),
			})
		}
		fields["tool_calls"] = value.Array(calls...)
	}
	if m.ToolName != "" {
		fields["tool_name"] = value.String(m.ToolName)
	}
	return value.Object(fields)
}

// Options are model parameters. Zero values are left to the server's
// defaults; use the pointer fields to send an explicit zero.
type Options struct {
	NumKeep          int      `json:"num_keep,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	NumPredict       int      `json:"num_predict,omitempty"`
	TopK             int      `json:"top_k,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	MinP             *float64 `json:"min_p,omitempty"`
	TypicalP         *float64 `json:"typical_p,omitempty"`
	RepeatLastN      int      `json:"repeat_last_n,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	RepeatPenalty    *float64 `json:"repeat_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	NumCtx           int      `json:"num_ctx,omitempty"`
	NumBatch         int      `json:"num_batch,omitempty"`
	NumGPU           *int     `json:"num_gpu,omitempty"`
	MainGPU          int      `json:"main_gpu,omitempty"`
	UseMMap          *bool    `json:"use_mmap,omitempty"`
	NumThread        int      `json:"num_thread,omitempty"`
}

// Ptr returns a pointer to v, for the optional Options fields.
func Ptr[T any](v T) *T { return &v }

// Metrics are the timing counters reported on the final response.
type Metrics struct {
	TotalDuration      time.Duration `json:"total_duration,omitempty"`
	LoadDuration       time.Duration `json:"load_duration,omitempty"`
	PromptEvalCount    int           `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration time.Duration `json:"prompt_eval_duration,omitempty"`
	EvalCount          int           `json:"eval_count,omitempty"`
	EvalDuration       time.Duration `json:"eval_duration,omitempty"`
}

// GenerateRequest is a single-prompt completion. A null Format sends no
// constraint; value.String("json") or a JSON Schema object constrains output.
type GenerateRequest struct {
	Model     string
	Prompt    string
	Suffix    string
	System    string
	Template  string
	Context   []int
	Raw       bool
	Images    [][]byte
	Format    value.Value
	Options   *Options
	KeepAlive string
}

type GenerateResponse struct {
	Model      string    `json:"model"`
	CreatedAt  Timestamp `json:"created_at"`
	Response   string    `json:"response"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`
	Context    []int     `json:"context,omitempty"`
	Metrics
}

// ChatRequest is a conversation turn. Tools are advertised by their
// canonical schema.
type ChatRequest struct {
	Model     string
	Messages  []Message
	Tools     []tool.Tool
	Template  string
	Format    value.Value
	Options   *Options
	KeepAlive string
}

type ChatResponse struct {
	Model      string    `json:"model"`
	CreatedAt  Timestamp `json:"created_at"`
	Message    Message   `json:"message"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`
	Metrics
}

// EmbedRequest embeds one or more inputs. A nil Truncate sends true, the
// server default.
type EmbedRequest struct {
	Model     string
	Input     []string
	Truncate  *bool
	Options   *Options
	KeepAlive string
}

type EmbedResponse struct {
	Model           string        `json:"model"`
	Embeddings      [][]float64   `json:"embeddings"`
	TotalDuration   time.Duration `json:"total_duration,omitempty"`
	LoadDuration    time.Duration `json:"load_duration,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
}

type ModelDetails struct {
	ParentModel       string   `json:"parent_model"`
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// Model is a locally available model as listed by /api/tags.
type Model struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	ModifiedAt Timestamp    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// RunningModel is a model loaded in memory as listed by /api/ps.
type RunningModel struct {
	Name      string       `json:"name"`
	Model     string       `json:"model"`
	Size      int64        `json:"size"`
	Digest    string       `json:"digest"`
	Details   ModelDetails `json:"details"`
	ExpiresAt Timestamp    `json:"expires_at"`
	SizeVRAM  int64        `json:"size_vram"`
}

type ShowResponse struct {
	License      string                 `json:"license,omitempty"`
	Modelfile    string                 `json:"modelfile,omitempty"`
	Parameters   string                 `json:"parameters,omitempty"`
	Template     string                 `json:"template,omitempty"`
	System       string                 `json:"system,omitempty"`
	Details      ModelDetails           `json:"details"`
	Messages     []Message              `json:"messages,omitempty"`
	ModelInfo    map[string]value.Value `json:"model_info,omitempty"`
	Capabilities []string               `json:"capabilities,omitempty"`
	ModifiedAt   Timestamp              `json:"modified_at,omitzero"`
}

// CreateRequest builds a model from a Modelfile body or a path on the server.
type CreateRequest struct {
	Name      string
	Modelfile string
	Path      string
}

// ProgressResponse is one update from a pull or push.
type ProgressResponse struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
