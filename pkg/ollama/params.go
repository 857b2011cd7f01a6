package ollama

import (
	"encoding/base64"

	"ollama-go/pkg/value"
)

// params accumulates request fields, dropping empty optional ones.
type params map[string]value.Value

func (p params) str(key, s string) {
	if s != "" {
		p[key] = value.String(s)
	}
}

func (p params) set(key string, v value.Value) {
	if !v.IsNull() {
		p[key] = v
	}
}

func (p params) images(key string, images [][]byte) {
	if len(images) == 0 {
		return
	}
	items := make([]value.Value, len(images))
	for i, img := range images {
		items[i] = value.String(base64.StdEncoding.EncodeToString(img))
	}
	p[key] = value.Array(items...)
}

func (p params) options(opts *Options) error {
	if opts == nil {
		return nil
	}
	v, err := value.FromAny(opts)
	if err != nil {
		return err
	}
	if v.Len() > 0 {
		p["options"] = v
	}
	return nil
}

func (p params) build() value.Value {
	return value.Object(p)
}

func (r GenerateRequest) params(stream bool) (value.Value, error) {
	p := params{
		"model":  value.String(r.Model),
		"prompt": value.String(r.Prompt),
		"stream": value.Bool(stream),
		"raw":    value.Bool(r.Raw),
	}
	p.str("suffix", r.Suffix)
	p.str("system", r.System)
	p.str("template", r.Template)
	p.str("keep_alive", r.KeepAlive)
	p.images("images", r.Images)
	p.set("format", r.Format)
	if len(r.Context) > 0 {
		tokens := make([]value.Value, len(r.Context))
		for i, tok := range r.Context {
			tokens[i] = value.Int(int64(tok))
		}
		p["context"] = value.Array(tokens...)
	}
	if err := p.options(r.Options); err != nil {
		return value.Value{}, err
	}
	return p.build(), nil
}

func (r ChatRequest) params(stream bool) (value.Value, error) {
	messages := make([]value.Value, len(r.Messages))
	for i, m := range r.Messages {
		messages[i] = m.toValue()
	}
	p := params{
		"model":    value.String(r.Model),
		"messages": value.Array(messages...),
		"stream":   value.Bool(stream),
	}
	if len(r.Tools) > 0 {
		defs := make([]value.Value, len(r.Tools))
		for i, t := range r.Tools {
			defs[i] = t.Schema()
		}
		p["tools"] = value.Array(defs...)
	}
	p.str("template", r.Template)
	p.str("keep_alive", r.KeepAlive)
	p.set("format", r.Format)
	if err := p.options(r.Options); err != nil {
		return value.Value{}, err
	}
	return p.build(), nil
}

func (r EmbedRequest) params() (value.Value, error) {
	p := params{
		"model": value.String(r.Model),
		"input": value.Strings(r.Input...),
	}
	truncate := true
	if r.Truncate != nil {
		truncate = *r.Truncate
	}
	p["truncate"] = value.Bool(truncate)
	p.str("keep_alive", r.KeepAlive)
	if err := p.options(r.Options); err != nil {
		return value.Value{}, err
	}
	return p.build(), nil
}
