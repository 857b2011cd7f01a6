package value

import (
	"fmt"
	"math"
	"strconv"
)

// ConversionError reports a scalar conversion that the source variant
// does not support.
type ConversionError struct {
	From Kind
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

var (
	trueTokens  = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "on": {}, "1": {}}
	falseTokens = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "off": {}, "0": {}}
)

// AsBool converts v to a bool. Strict mode accepts only bool values;
// otherwise 0/1 numbers and the usual lowercase tokens are accepted.
func (v Value) AsBool(strict bool) (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		if strict {
			return false, false
		}
		switch v.i {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case KindDouble:
		if strict {
			return false, false
		}
		switch v.f {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case KindString:
		if strict {
			return false, false
		}
		if _, ok := trueTokens[v.s]; ok {
			return true, true
		}
		if _, ok := falseTokens[v.s]; ok {
			return false, true
		}
	}
	return false, false
}

// AsInt converts v to an int64. Non-strict mode accepts integral doubles in
// range and strings that are entirely an integer literal.
func (v Value) AsInt(strict bool) (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindDouble:
		if strict {
			return 0, false
		}
		if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, false
		}
		return int64(v.f), true
	case KindString:
		if strict {
			return 0, false
		}
		i, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// AsDouble converts v to a float64. Ints always widen; non-strict mode also
// accepts strings that are entirely a float literal.
func (v Value) AsDouble(strict bool) (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		if strict {
			return 0, false
		}
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString converts v to a string. Non-strict mode renders ints, doubles and
// bools as their canonical text.
func (v Value) AsString(strict bool) (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt, KindDouble, KindBool:
		if strict {
			return "", false
		}
		return v.String(), true
	}
	return "", false
}
