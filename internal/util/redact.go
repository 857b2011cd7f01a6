package util

import (
	"regexp"

	"ollama-go/pkg/value"
)

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|access_key|private_key)\s*[:=]\s*([^\s"']+)`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	skPattern       = regexp.MustCompile(`(?i)sk-[a-z0-9]{20,}`)
	bearerPattern   = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/-]{16,}=*`)
)

// sensitiveKeys are object keys whose values are always hidden.
var sensitiveKeys = regexp.MustCompile(`(?i)^(api_?key|secret|token|password|access_key|private_key|authorization)$`)

// RedactSecrets removes likely secrets from text.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = skPattern.ReplaceAllString(out, "[REDACTED KEY]")
	out = bearerPattern.ReplaceAllString(out, "Bearer [REDACTED]")
	return out
}

// RedactValue returns a copy of v with string leaves scrubbed and values
// under sensitive keys replaced. Binary payloads are replaced by a marker so
// logs never carry raw bytes.
func RedactValue(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString(true)
		return value.String(RedactSecrets(s))
	case value.KindBinary:
		mime, data, _ := v.AsBinary()
		return value.String("[" + mime + ", " + byteSize(len(data)) + "]")
	case value.KindArray:
		items, _ := v.AsArray()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = RedactValue(item)
		}
		return value.Array(out...)
	case value.KindObject:
		fields, _ := v.AsObject()
		out := make(map[string]value.Value, len(fields))
		for key, item := range fields {
			if sensitiveKeys.MatchString(key) {
				out[key] = value.String("[REDACTED]")
				continue
			}
			out[key] = RedactValue(item)
		}
		return value.Object(out)
	default:
		return v
	}
}
