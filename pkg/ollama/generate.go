package ollama

import (
	"context"
	"net/http"
	"slices"

	"ollama-go/pkg/tool"
)

// Generate runs a single completion and waits for the full response.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	p, err := req.params(false)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	resp, err := fetch[GenerateResponse](ctx, c, http.MethodPost, "/api/generate", p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateStream streams completion chunks as they are produced.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest) *Stream[GenerateResponse] {
	p, err := req.params(true)
	if err != nil {
		return failedStream[GenerateResponse](&RequestError{Err: err})
	}
	return openStream[GenerateResponse](ctx, c, http.MethodPost, "/api/generate", p)
}

// Chat sends a conversation and waits for the assistant's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p, err := req.params(false)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	resp, err := fetch[ChatResponse](ctx, c, http.MethodPost, "/api/chat", p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatStream streams the assistant's reply as partial messages.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) *Stream[ChatResponse] {
	p, err := req.params(true)
	if err != nil {
		return failedStream[ChatResponse](&RequestError{Err: err})
	}
	return openStream[ChatResponse](ctx, c, http.MethodPost, "/api/chat", p)
}

// ChatWithTools advertises the registry's tools (unless req already names
// some), runs every tool call in the reply in order, appends each result as
// a tool message and sends exactly one follow-up request. It returns the
// final reply and the whole conversation including both assistant turns.
// A failing tool aborts the exchange.
func (c *Client) ChatWithTools(ctx context.Context, req ChatRequest, registry *tool.Registry) (*ChatResponse, []Message, error) {
	if len(req.Tools) == 0 {
		req.Tools = registry.Tools()
	}

	first, err := c.Chat(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	conversation := append(slices.Clone(req.Messages), first.Message)
	if len(first.Message.ToolCalls) == 0 {
		return first, conversation, nil
	}

	for _, call := range first.Message.ToolCalls {
		result, err := registry.Execute(ctx, call)
		if err != nil {
			return nil, conversation, err
		}
		conversation = append(conversation, ToolMessage(result.Name, result.Content()))
	}

	followUp := req
	followUp.Messages = conversation
	final, err := c.Chat(ctx, followUp)
	if err != nil {
		return nil, conversation, err
	}
	return final, append(conversation, final.Message), nil
}

// Embed returns one embedding per input.
func (c *Client) Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error) {
	p, err := req.params()
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	resp, err := fetch[EmbedResponse](ctx, c, http.MethodPost, "/api/embed", p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
