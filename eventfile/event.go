// Package eventfile reads and writes TensorBoard event files.
//
// An event file is a sequence of records (see internal/recordio), each holding one
// serialized tensorflow.Event message. Only the parts of the message needed for scalar
// summaries are modelled here; other fields are skipped when reading.
package eventfile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// FileVersion is written in the first event of every file.
const FileVersion = "brain.Event:2"

// tensorflow.Event
const (
	fieldWallTime    protowire.Number = 1
	fieldStep        protowire.Number = 2
	fieldFileVersion protowire.Number = 3
	fieldSummary     protowire.Number = 5
)

// tensorflow.Summary and tensorflow.Summary.Value
const (
	fieldSummaryValue protowire.Number = 1
	fieldTag          protowire.Number = 1
	fieldSimpleValue  protowire.Number = 2
)

// Scalar is a single tagged value of a summary.
type Scalar struct {
	Tag   string
	Value float32
}

// Event is a single entry of an event file.
// An event either carries the file version, or a (possibly empty) summary of scalars.
type Event struct {
	// WallTime is the time the event was created, in seconds since the Unix epoch.
	WallTime    float64
	Step        int64
	FileVersion string
	Scalars     []Scalar
}

// NewScalarEvent returns a summary event for the given step.
func NewScalarEvent(wallTime time.Time, step int64, scalars []Scalar) *Event {
	return &Event{
		WallTime: wallSeconds(wallTime),
		Step:     step,
		Scalars:  scalars,
	}
}

func wallSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// Time returns the wall time of the event.
func (e *Event) Time() time.Time {
	sec, frac := math.Modf(e.WallTime)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Marshal returns the protobuf wire encoding of the event.
func (e *Event) Marshal() []byte {
	var b []byte
	if e.WallTime != 0 {
		b = protowire.AppendTag(b, fieldWallTime, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(e.WallTime))
	}
	if e.Step != 0 {
		b = protowire.AppendTag(b, fieldStep, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Step))
	}
	if e.FileVersion != "" {
		b = protowire.AppendTag(b, fieldFileVersion, protowire.BytesType)
		b = protowire.AppendString(b, e.FileVersion)
		return b
	}
	b = protowire.AppendTag(b, fieldSummary, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalSummary(e.Scalars))
	return b
}

func marshalSummary(scalars []Scalar) []byte {
	var b []byte
	for _, s := range scalars {
		var v []byte
		if s.Tag != "" {
			v = protowire.AppendTag(v, fieldTag, protowire.BytesType)
			v = protowire.AppendString(v, s.Tag)
		}
		// simple_value is part of a oneof, so it is present even when zero.
		v = protowire.AppendTag(v, fieldSimpleValue, protowire.Fixed32Type)
		v = protowire.AppendFixed32(v, math.Float32bits(s.Value))

		b = protowire.AppendTag(b, fieldSummaryValue, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b
}

var errMalformed = errors.New("eventfile: malformed event")

// Unmarshal decodes an event from its protobuf wire encoding.
// Summary values that are not simple scalars are skipped.
func Unmarshal(b []byte) (*Event, error) {
	ev := &Event{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldWallTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			ev.WallTime = math.Float64frombits(v)
			return n, nil
		case num == fieldStep && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			ev.Step = int64(v)
			return n, nil
		case num == fieldFileVersion && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			ev.FileVersion = v
			return n, nil
		case num == fieldSummary && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			scalars, err := unmarshalSummary(v)
			if err != nil {
				return 0, err
			}
			ev.Scalars = append(ev.Scalars, scalars...)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func unmarshalSummary(b []byte) (scalars []Scalar, err error) {
	err = consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldSummaryValue || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		s, ok, err := unmarshalValue(v)
		if err != nil {
			return 0, err
		}
		if ok {
			scalars = append(scalars, s)
		}
		return n, nil
	})
	return scalars, err
}

func unmarshalValue(b []byte) (s Scalar, simple bool, err error) {
	err = consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldTag && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			s.Tag = v
			return n, nil
		case num == fieldSimpleValue && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			s.Value = math.Float32frombits(v)
			simple = true
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return s, simple, err
}

// consumeFields calls fn for every field in b. fn returns the number of bytes it consumed
// from the field value, or a negative protowire error code.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
