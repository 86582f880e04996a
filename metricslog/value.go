package metricslog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// The kinds of values that can be logged.
const (
	KindFloat Kind = iota + 1
	KindInt
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// Value is a metric value: a float, an integer or a string.
type Value struct {
	kind Kind
	f    float64
	i    int64
	s    string
}

// Float returns a floating-point value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Text returns a string value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// Numeric reports whether the value is a float or an integer.
func (v Value) Numeric() bool { return v.kind == KindFloat || v.kind == KindInt }

// Float64 returns the value as a float. Text values return 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	}
	return 0
}

// Int64 returns the integer held by an integer value.
func (v Value) Int64() int64 { return v.i }

// Str returns the string held by a text value.
func (v Value) Str() string { return v.s }

// String formats the value the way it is printed in the console table.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return formatFloat(v.f)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindText:
		return v.s
	default:
		return "<invalid>"
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// Scalarer is implemented by boxed numeric scalars from numeric libraries.
// Such values are logged as floats.
type Scalarer interface {
	Float64() float64
}

// ValueOf converts a raw value to a Value.
// Floats, integers, booleans, strings, json.Number and Scalarer values are accepted;
// any other type results in ErrUnsupportedValue.
func ValueOf(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		if v.kind == 0 {
			break
		}
		return v, nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v)
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case string:
		return Text(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: malformed number %q", ErrUnsupportedValue, v.String())
		}
		return Float(f), nil
	case Scalarer:
		return Float(v.Float64()), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
}

func fromUint(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, v)
	}
	return Int(int64(v)), nil
}

// Field is a named value.
type Field struct {
	Name  string
	Value Value
}

// Record is a list of fields sorted by name.
type Record []Field

// NewRecord selects values from the map and returns them sorted by name.
// If fields is empty, every entry is used; otherwise the named entries are looked up
// and a MissingFieldError is returned for the first one that is absent.
func NewRecord(values map[string]any, fields []string) (Record, error) {
	var rec Record
	add := func(name string, raw any) error {
		v, err := ValueOf(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		rec = append(rec, Field{Name: name, Value: v})
		return nil
	}

	if len(fields) > 0 {
		rec = make(Record, 0, len(fields))
		for _, name := range fields {
			raw, ok := values[name]
			if !ok {
				return nil, &MissingFieldError{Field: name}
			}
			if err := add(name, raw); err != nil {
				return nil, err
			}
		}
	} else {
		rec = make(Record, 0, len(values))
		for name, raw := range values {
			if err := add(name, raw); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(rec, func(i, j int) bool { return rec[i].Name < rec[j].Name })
	return rec, nil
}

// StepOf converts a raw step value to an integer.
// Floats are truncated toward zero and strings are parsed as decimal integers.
func StepOf(raw any) (int64, error) {
	v, err := ValueOf(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) || v.f >= math.MaxInt64 || v.f < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidStep, v.f)
		}
		return int64(v.f), nil
	default:
		step, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidStep, v.s)
		}
		return step, nil
	}
}
