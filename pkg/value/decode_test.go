package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colorArgs struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

type searchArgs struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit,omitempty"`
	Exact   bool              `json:"exact"`
	Tags    []string          `json:"tags"`
	Labels  map[string]string `json:"labels"`
	Offset  *int              `json:"offset"`
	Payload []byte            `json:"payload"`
	Raw     Value             `json:"raw"`
	Extra   any               `json:"extra"`
}

func TestDecodeStructWithLooseScalars(t *testing.T) {
	args := Object(map[string]Value{
		"red":   Int(1),
		"green": String("0.5"),
		"blue":  Double(0),
	})

	var out colorArgs
	require.NoError(t, args.Decode(&out))
	assert.Equal(t, colorArgs{Red: 1, Green: 0.5, Blue: 0}, out)
}

func TestDecodeNestedShapes(t *testing.T) {
	args := Object(map[string]Value{
		"query":   String("llama"),
		"limit":   String("10"),
		"exact":   String("yes"),
		"tags":    Array(String("a"), Int(2)),
		"labels":  Object(map[string]Value{"env": String("dev")}),
		"offset":  Double(5),
		"payload": Binary("application/octet-stream", []byte{9, 8}),
		"raw":     Array(Bool(true)),
		"extra":   Object(map[string]Value{"n": Int(1)}),
		"ignored": String("unused"),
	})

	var out searchArgs
	require.NoError(t, args.Decode(&out))
	assert.Equal(t, "llama", out.Query)
	assert.Equal(t, 10, out.Limit)
	assert.True(t, out.Exact)
	assert.Equal(t, []string{"a", "2"}, out.Tags)
	assert.Equal(t, map[string]string{"env": "dev"}, out.Labels)
	require.NotNil(t, out.Offset)
	assert.Equal(t, 5, *out.Offset)
	assert.Equal(t, []byte{9, 8}, out.Payload)
	assert.True(t, Array(Bool(true)).Equal(out.Raw))
	assert.Equal(t, map[string]any{"n": int64(1)}, out.Extra)
}

func TestDecodeNullLeavesZero(t *testing.T) {
	args := Object(map[string]Value{"query": Null(), "offset": Null()})

	var out searchArgs
	require.NoError(t, args.Decode(&out))
	assert.Empty(t, out.Query)
	assert.Nil(t, out.Offset)
}

func TestDecodeBinaryIntoString(t *testing.T) {
	var out string
	require.NoError(t, Binary("text/plain", []byte("hi")).Decode(&out))
	assert.Equal(t, "data:text/plain;base64,aGk=", out)
}

func TestDecodeConversionFailure(t *testing.T) {
	args := Object(map[string]Value{"red": String("bright")})

	var out colorArgs
	err := args.Decode(&out)
	require.Error(t, err)

	var decodeErr *DecodingError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, err.Error(), "cannot convert string to float64")
}

func TestDecodeRejectsScalarForStruct(t *testing.T) {
	var out colorArgs
	err := Int(3).Decode(&out)
	var decodeErr *DecodingError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDecodeOverflow(t *testing.T) {
	var small int8
	err := Int(300).Decode(&small)
	assert.Error(t, err)

	var unsigned uint
	err = Int(-1).Decode(&unsigned)
	assert.Error(t, err)
}
