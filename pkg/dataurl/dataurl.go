// Package dataurl implements the subset of RFC 2397 data URLs used to carry
// binary values through JSON strings.
package dataurl

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// DefaultMIME is used when a data URL omits its media type.
const DefaultMIME = "text/plain"

var pattern = regexp.MustCompile(`^data:([^;,]+)?(;charset=([^;,]+))?(;base64)?,(.*)$`)

// IsDataURL reports whether s matches the data URL grammar as a whole.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:") && pattern.MatchString(s)
}

// Parse extracts the media type and payload bytes from s. The charset
// parameter is kept on the returned media type only for text/* types.
// ok is false when s is not a data URL or its payload fails to decode.
func Parse(s string) (mime string, data []byte, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, false
	}
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return "", nil, false
	}

	mime = m[1]
	if mime == "" {
		mime = DefaultMIME
	}
	if charset := m[3]; charset != "" && strings.HasPrefix(mime, "text/") {
		mime += ";charset=" + charset
	}

	payload := m[5]
	if m[4] != "" {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, false
		}
		return mime, decoded, true
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, []byte(unescaped), true
}

// Encode renders data as a base64 data URL.
func Encode(data []byte, mime string) string {
	if mime == "" {
		mime = DefaultMIME
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
