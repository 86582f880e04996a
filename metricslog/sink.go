package metricslog

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/PenroseTiles/amplification/eventfile"
	"go.uber.org/multierr"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

//go:generate mockgen -destination=../internal/mocks/sink_mock.go -package=mocks . Sink

// Sink receives the events produced by a Logger.
type Sink interface {
	// Write writes the event. The event must be durable, or at least visible to readers,
	// when Write returns.
	Write(*eventfile.Event) error
	io.Closer
}

var _ Sink = (*eventfile.Writer)(nil)

type nopSink struct{}

func (nopSink) Write(*eventfile.Event) error { return nil }
func (nopSink) Close() error                 { return nil }

// NopSink returns a sink that discards any events.
func NopSink() Sink {
	return nopSink{}
}

type jsonSink struct {
	mut   sync.Mutex
	wr    io.Writer
	first bool
}

// NewJSONSink returns a sink that writes events to wr as a JSON array.
// The array is terminated by Close, which also closes wr if it implements io.Closer.
func NewJSONSink(wr io.Writer) (Sink, error) {
	_, err := io.WriteString(wr, "[\n")
	if err != nil {
		return nil, fmt.Errorf("failed to write start of JSON array: %w", err)
	}
	return &jsonSink{wr: wr, first: true}, nil
}

func (s *jsonSink) Write(ev *eventfile.Event) error {
	msg, err := eventToStruct(ev)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{
		Indent:          "\t",
		EmitUnpopulated: true,
	}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	if s.first {
		s.first = false
	} else {
		// write a comma and newline to separate the events
		if _, err := io.WriteString(s.wr, ",\n"); err != nil {
			return err
		}
	}
	_, err = s.wr.Write(b)
	return err
}

func (s *jsonSink) Close() error {
	s.mut.Lock()
	defer s.mut.Unlock()
	_, err := io.WriteString(s.wr, "\n]\n")
	if closer, ok := s.wr.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

func eventToStruct(ev *eventfile.Event) (*structpb.Struct, error) {
	scalars := make(map[string]interface{}, len(ev.Scalars))
	for _, sc := range ev.Scalars {
		v := float64(sc.Value)
		// JSON has no representation for NaN and infinities.
		if math.IsNaN(v) || math.IsInf(v, 0) {
			scalars[sc.Tag] = formatFloat(v)
			continue
		}
		scalars[sc.Tag] = v
	}
	msg, err := structpb.NewStruct(map[string]interface{}{
		"wall_time": ev.WallTime,
		"step":      ev.Step,
		"scalars":   scalars,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert event: %w", err)
	}
	return msg, nil
}
