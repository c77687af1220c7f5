package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/schema"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Coerce converts v to the bind value of col: int64 for Integer columns,
// string for Text columns. nil passes through.
func Coerce(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if col.Type == schema.Text {
		if s, ok := AsText(v); ok {
			return s, nil
		}
	} else if n, ok := AsInt(v); ok {
		return n, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidPropertyValue,
		"value %v (%T) cannot be bound to %s column %q", v, v, col.Type, col.Name)
}

// BindValue converts v by its runtime kind: integers, integral numbers and
// booleans bind as int64, anything else as text.
func BindValue(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case json.Number:
		if n, ok := AsInt(v); ok {
			return n
		}
	case string, []byte, fmt.Stringer, time.Time:
	default:
		if n, ok := AsInt(v); ok {
			return n
		}
	}
	if s, ok := AsText(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// normalize maps a driver value read from col onto string or int64.
// Integer values that do not parse (decimals, for instance) stay strings.
func normalize(col schema.Column, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		v = string(x)
	case time.Time:
		if col.DeclaredType == "date" {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	}

	if col.Type == schema.Text {
		if s, ok := AsText(v); ok {
			return s
		}
		return v
	}
	if n, ok := AsInt(v); ok {
		return n
	}
	return v
}

// AsInt reports v as int64 when it is an integer that fits, an integral
// float (as decoded from JSON), a boolean or a string of decimal digits.
func AsInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return unsigned(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return unsigned(x)
	case float32:
		return integral(float64(x))
	case float64:
		return integral(x)
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func unsigned(x uint64) (int64, bool) {
	if x > math.MaxInt64 {
		return 0, false
	}
	return int64(x), true
}

// integral accepts floats without a fractional part inside the int64 range.
// 2^63 itself is representable as a float64 but not as an int64.
func integral(x float64) (int64, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Trunc(x) != x {
		return 0, false
	}
	if x < math.MinInt64 || x >= math.MaxInt64 {
		return 0, false
	}
	return int64(x), true
}

// AsText reports v as string when it is text, a time or an integer.
func AsText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case time.Time:
		return x.Format(time.DateOnly), true
	case json.Number:
		return x.String(), true
	case fmt.Stringer:
		return x.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	case float32, float64:
		if n, ok := AsInt(x); ok {
			return strconv.FormatInt(n, 10), true
		}
	}
	return "", false
}
