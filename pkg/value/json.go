package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"ollama-go/pkg/dataurl"
)

// DecodingError reports input that could not be turned into a Value, or a
// Value that could not be decoded into a Go type.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return "value: decode: " + e.Err.Error()
}

func (e *DecodingError) Unwrap() error { return e.Err }

// Marshal encodes v as JSON. Object keys are written in sorted order,
// binary values as base64 data URLs, integral doubles with a trailing ".0"
// and non-finite doubles as null.
func Marshal(v Value) []byte {
	return appendJSON(nil, v)
}

// Unmarshal decodes a single JSON document. Strings that parse as data URLs
// become binary values.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, &DecodingError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, &DecodingError{Err: errors.New("unexpected data after top-level value")}
	}
	return fromDecoded(raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromAny converts any JSON-marshalable Go value into a Value by way of its
// JSON encoding, so strings holding data URLs come back as binary.
func FromAny(x any) (Value, error) {
	switch typed := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed, nil
	case *Value:
		if typed == nil {
			return Null(), nil
		}
		return *typed, nil
	case bool:
		return Bool(typed), nil
	case int:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case float64:
		return Double(typed), nil
	}
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, &DecodingError{Err: err}
	}
	return Unmarshal(data)
}

func fromDecoded(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case json.Number:
		return parseNumber(string(typed))
	case string:
		if mime, data, ok := dataurl.Parse(typed); ok {
			return Binary(mime, data), nil
		}
		return String(typed), nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			converted, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			converted, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = converted
		}
		return Object(fields), nil
	default:
		return Value{}, &DecodingError{Err: fmt.Errorf("unsupported JSON type %T", raw)}
	}
}

func parseNumber(literal string) (Value, error) {
	if !strings.ContainsAny(literal, ".eE") {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Value{}, &DecodingError{Err: fmt.Errorf("invalid number %q", literal)}
	}
	return Double(f), nil
}

func appendJSON(buf []byte, v Value) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(buf, v.b)
	case KindInt:
		return strconv.AppendInt(buf, v.i, 10)
	case KindDouble:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return append(buf, "null"...)
		}
		return append(buf, formatDouble(v.f)...)
	case KindString:
		return appendQuoted(buf, v.s)
	case KindBinary:
		return appendQuoted(buf, dataurl.Encode(v.data, v.s))
	case KindArray:
		buf = append(buf, '[')
		for i, item := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSON(buf, item)
		}
		return append(buf, ']')
	case KindObject:
		buf = append(buf, '{')
		for i, key := range sortedKeys(v.obj) {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendQuoted(buf, key)
			buf = append(buf, ':')
			buf = appendJSON(buf, v.obj[key])
		}
		return append(buf, '}')
	default:
		return append(buf, "null"...)
	}
}

func appendQuoted(buf []byte, s string) []byte {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return append(buf, bytes.TrimSuffix(out.Bytes(), []byte("\n"))...)
}

// formatDouble keeps a fraction or exponent on every finite double so the
// literal decodes back as a double.
func formatDouble(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
