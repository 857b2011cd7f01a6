package ollama

import (
	"context"
	"net/http"

	"ollama-go/pkg/value"
)

// ListModels returns the models available locally.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := fetch[struct {
		Models []Model `json:"models"`
	}](ctx, c, http.MethodGet, "/api/tags", value.Null())
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// ListRunning returns the models currently loaded in memory.
func (c *Client) ListRunning(ctx context.Context) ([]RunningModel, error) {
	resp, err := fetch[struct {
		Models []RunningModel `json:"models"`
	}](ctx, c, http.MethodGet, "/api/ps", value.Null())
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Show returns the modelfile, template, parameters and metadata of a model.
func (c *Client) Show(ctx context.Context, name string) (*ShowResponse, error) {
	resp, err := fetch[ShowResponse](ctx, c, http.MethodPost, "/api/show", nameParams(name))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// The management calls below report success as a bool. A non-2xx status
// is false with a nil error; only transport failures return an error.

// Create builds a model from a Modelfile or a server-side path.
func (c *Client) Create(ctx context.Context, req CreateRequest) (bool, error) {
	p := params{
		"name":   value.String(req.Name),
		"stream": value.Bool(false),
	}
	p.str("modelfile", req.Modelfile)
	p.str("path", req.Path)
	return fetch[bool](ctx, c, http.MethodPost, "/api/create", p.build())
}

// Copy duplicates a model under a new name.
func (c *Client) Copy(ctx context.Context, source, destination string) (bool, error) {
	p := params{
		"source":      value.String(source),
		"destination": value.String(destination),
	}
	return fetch[bool](ctx, c, http.MethodPost, "/api/copy", p.build())
}

// Delete removes a model. Deleting a model that does not exist is false.
func (c *Client) Delete(ctx context.Context, name string) (bool, error) {
	return fetch[bool](ctx, c, http.MethodDelete, "/api/delete", nameParams(name))
}

// Pull downloads a model from a registry and waits for completion.
func (c *Client) Pull(ctx context.Context, name string, insecure bool) (bool, error) {
	return fetch[bool](ctx, c, http.MethodPost, "/api/pull", transferParams(name, insecure, false))
}

// PullStream downloads a model and reports progress as it goes.
func (c *Client) PullStream(ctx context.Context, name string, insecure bool) *Stream[ProgressResponse] {
	return openStream[ProgressResponse](ctx, c, http.MethodPost, "/api/pull", transferParams(name, insecure, true))
}

// Push uploads a model to a registry and waits for completion.
func (c *Client) Push(ctx context.Context, name string, insecure bool) (bool, error) {
	return fetch[bool](ctx, c, http.MethodPost, "/api/push", transferParams(name, insecure, false))
}

// Version returns the server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := fetch[struct {
		Version string `json:"version"`
	}](ctx, c, http.MethodGet, "/api/version", value.Null())
	if err != nil {
		return "", err
	}
	return resp.Version, nil
}

func nameParams(name string) value.Value {
	return params{"name": value.String(name)}.build()
}

func transferParams(name string, insecure, stream bool) value.Value {
	return params{
		"name":     value.String(name),
		"insecure": value.Bool(insecure),
		"stream":   value.Bool(stream),
	}.build()
}
