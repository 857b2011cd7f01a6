package value

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"ollama-go/pkg/dataurl"
)

var valueType = reflect.TypeOf(Value{})

// Decode fills out, which must be a non-nil pointer, from v. Struct fields
// are matched by their json tag and every scalar leaf goes through the
// non-strict conversions. Null leaves the target untouched.
func (v Value) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.DecodeHookFuncType(leafHook),
	})
	if err != nil {
		return &DecodingError{Err: err}
	}
	if err := decoder.Decode(v); err != nil {
		return &DecodingError{Err: err}
	}
	return nil
}

// leafHook converts a Value into whatever shape mapstructure needs for the
// target type. Containers come back as maps and slices of child Values so
// the hook runs again at every level.
func leafHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	v, ok := data.(Value)
	if !ok {
		return data, nil
	}
	if to == valueType {
		return v, nil
	}
	if v.IsNull() {
		return nil, nil
	}

	switch to.Kind() {
	case reflect.Ptr:
		return v, nil
	case reflect.Interface:
		return v.Native(), nil
	case reflect.Bool:
		b, ok := v.AsBool(false)
		if !ok {
			return nil, &ConversionError{From: v.kind, To: "bool"}
		}
		return b, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.AsInt(false)
		if !ok || reflect.Zero(to).OverflowInt(i) {
			return nil, &ConversionError{From: v.kind, To: to.String()}
		}
		return i, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := v.AsInt(false)
		if !ok || i < 0 || reflect.Zero(to).OverflowUint(uint64(i)) {
			return nil, &ConversionError{From: v.kind, To: to.String()}
		}
		return uint64(i), nil
	case reflect.Float32, reflect.Float64:
		f, ok := v.AsDouble(false)
		if !ok {
			return nil, &ConversionError{From: v.kind, To: to.String()}
		}
		return f, nil
	case reflect.String:
		if mime, payload, ok := v.AsBinary(); ok {
			return dataurl.Encode(payload, mime), nil
		}
		s, ok := v.AsString(false)
		if !ok {
			return nil, &ConversionError{From: v.kind, To: "string"}
		}
		return s, nil
	case reflect.Slice, reflect.Array:
		if to.Elem().Kind() == reflect.Uint8 {
			switch v.kind {
			case KindBinary:
				return v.data, nil
			case KindString:
				return []byte(v.s), nil
			}
		}
		items, ok := v.AsArray()
		if !ok {
			return nil, &ConversionError{From: v.kind, To: to.String()}
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, nil
	case reflect.Map, reflect.Struct:
		fields, ok := v.AsObject()
		if !ok {
			return nil, &ConversionError{From: v.kind, To: to.String()}
		}
		out := make(map[string]any, len(fields))
		for key, item := range fields {
			out[key] = item
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported target type %s", to)
	}
}
