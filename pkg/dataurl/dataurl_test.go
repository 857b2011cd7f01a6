package dataurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBase64(t *testing.T) {
	mime, data, ok := Parse("data:image/png;base64,AAEC")
	require.True(t, ok)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, data)
}

func TestParseDefaultsToTextPlain(t *testing.T) {
	mime, data, ok := Parse("data:,Hello%2C%20World")
	require.True(t, ok)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, "Hello, World", string(data))
}

func TestParseCharset(t *testing.T) {
	mime, data, ok := Parse("data:text/plain;charset=utf-8,hi")
	require.True(t, ok)
	assert.Equal(t, "text/plain;charset=utf-8", mime)
	assert.Equal(t, "hi", string(data))

	mime, _, ok = Parse("data:application/json;charset=utf-8;base64,e30=")
	require.True(t, ok)
	assert.Equal(t, "application/json", mime)
}

func TestParseRejects(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"data:image/png;base64",
		"xdata:,abc",
		"data:image/png;base64,!!!not-base64",
		"data:,%zz",
	}
	for _, input := range cases {
		_, _, ok := Parse(input)
		assert.False(t, ok, "input %q", input)
	}
	assert.False(t, IsDataURL("hello"))
	assert.True(t, IsDataURL("data:,x"))
}

func TestEncodeRoundTrip(t *testing.T) {
	payload := []byte("binary\x00\xffpayload")
	encoded := Encode(payload, "application/octet-stream")
	assert.Equal(t, "data:application/octet-stream;base64,YmluYXJ5AP9wYXlsb2Fk", encoded)

	mime, data, ok := Parse(encoded)
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", mime)
	assert.Equal(t, payload, data)

	assert.Equal(t, "data:text/plain;base64,", Encode(nil, ""))
}
