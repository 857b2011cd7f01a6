// Package value provides a dynamic JSON value that round-trips losslessly
// through the wire format, including binary payloads carried as data URLs.
package value

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
	"sort"
	"strconv"

	"ollama-go/pkg/dataurl"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindBinary
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value holds exactly one of null, bool, int, double, string, binary,
// array or object. The zero Value is null. Values are treated as
// immutable once built; accessors return the underlying slices and maps.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string // string payload, or MIME type for binary
	data []byte
	arr  []Value
	obj  map[string]Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Binary wraps raw bytes with their media type. An empty mime becomes text/plain.
func Binary(mime string, data []byte) Value {
	if mime == "" {
		mime = dataurl.DefaultMIME
	}
	if data == nil {
		data = []byte{}
	}
	return Value{kind: KindBinary, s: mime, data: data}
}

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// Strings builds an array of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = String(item)
	}
	return Array(out...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsZero reports whether v is null, which lets struct fields use omitzero.
func (v Value) IsZero() bool { return v.kind == KindNull }

// AsBinary returns the media type and bytes of a binary value.
func (v Value) AsBinary() (mime string, data []byte, ok bool) {
	if v.kind != KindBinary {
		return "", nil, false
	}
	return v.s, v.data, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Get looks up key in an object value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	item, ok := v.obj[key]
	return item, ok
}

// Index returns the i-th element of an array value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Len is the element count of an array or object, the byte count of a
// binary or string value, and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	case KindBinary:
		return len(v.data)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Keys returns the object keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return sortedKeys(v.obj)
}

// Equal reports structural equality. Int and Double never compare equal
// to each other, and object key order is irrelevant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindDouble:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindString:
		return v.s == other.s
	case KindBinary:
		return v.s == other.s && string(v.data) == string(other.data)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for key, item := range v.obj {
			otherItem, ok := other.obj[key]
			if !ok || !item.Equal(otherItem) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash returns an FNV-1a digest consistent with Equal.
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	var walk func(Value)
	walk = func(v Value) {
		_, _ = h.Write([]byte{byte(v.kind)})
		switch v.kind {
		case KindBool:
			if v.b {
				_, _ = h.Write([]byte{1})
			} else {
				_, _ = h.Write([]byte{0})
			}
		case KindInt:
			binary.BigEndian.PutUint64(scratch[:], uint64(v.i))
			_, _ = h.Write(scratch[:])
		case KindDouble:
			f := v.f
			bits := math.Float64bits(f)
			switch {
			case f == 0:
				bits = 0
			case math.IsNaN(f):
				bits = 0x7ff8000000000001
			}
			binary.BigEndian.PutUint64(scratch[:], bits)
			_, _ = h.Write(scratch[:])
		case KindString:
			writeSized(h, scratch[:], []byte(v.s))
		case KindBinary:
			writeSized(h, scratch[:], []byte(v.s))
			writeSized(h, scratch[:], v.data)
		case KindArray:
			binary.BigEndian.PutUint64(scratch[:], uint64(len(v.arr)))
			_, _ = h.Write(scratch[:])
			for _, item := range v.arr {
				walk(item)
			}
		case KindObject:
			binary.BigEndian.PutUint64(scratch[:], uint64(len(v.obj)))
			_, _ = h.Write(scratch[:])
			for _, key := range sortedKeys(v.obj) {
				writeSized(h, scratch[:], []byte(key))
				walk(v.obj[key])
			}
		}
	}
	walk(v)
	return h.Sum64()
}

func writeSized(w io.Writer, scratch []byte, b []byte) {
	binary.BigEndian.PutUint64(scratch, uint64(len(b)))
	_, _ = w.Write(scratch)
	_, _ = w.Write(b)
}

// String renders the display form: scalars as plain text, binary as its
// data URL, containers as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatDouble(v.f)
	case KindString:
		return v.s
	case KindBinary:
		return dataurl.Encode(v.data, v.s)
	default:
		return string(Marshal(v))
	}
}

// Native converts v into plain Go values: nil, bool, int64, float64,
// string, []byte, []any and map[string]any.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindBinary:
		return v.data
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Native()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for key, item := range v.obj {
			out[key] = item.Native()
		}
		return out
	default:
		return nil
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
