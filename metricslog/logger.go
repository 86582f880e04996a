// Package metricslog prints named metric values as a table and records the numeric ones
// as scalar summaries in a TensorBoard event log.
//
// A Logger is created once per experiment run. Every call to Log takes one record of
// metric values, determines its step, forwards the numeric values to the configured
// sinks and prints the record:
//
//	========================================
//	accuracy : 0.912000
//	epoch    : 3
//	loss     : 0.123457
//	========================================
//
// A Logger is not safe for concurrent use.
package metricslog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/PenroseTiles/amplification/logging"
	"go.uber.org/multierr"
)

// EventsDir is the name of the directory that holds event files below the log path.
const EventsDir = "events"

// Options configures a Logger. The zero value logs every field to stdout with an
// auto-incrementing step and no event log.
type Options struct {
	// Fields selects the fields to log, in order. If empty, all fields of a record are logged.
	Fields []string
	// Dir enables the event log in Dir/events.
	Dir string
	// StepField names the record entry that holds the step. If empty, the logger counts steps itself.
	StepField string
	// Output receives the console table. Defaults to os.Stdout.
	Output io.Writer
	// Sinks receive every event in addition to the event log.
	Sinks []Sink
	// Logger receives diagnostics. Defaults to a logger named "metricslog".
	Logger logging.Logger
}

// Logger logs records of metric values.
type Logger struct {
	fields    []string
	stepField string
	out       io.Writer
	logger    logging.Logger

	eventPath string
	sinks     []Sink
	now       func() time.Time

	step   int64 // fallback step counter
	closed bool
}

// New returns a new Logger. If opts.Dir is set, the event directory is created and an
// event file is opened; it stays open until Close is called.
func New(opts Options) (*Logger, error) {
	seen := make(map[string]bool, len(opts.Fields))
	for _, f := range opts.Fields {
		if seen[f] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f)
		}
		seen[f] = true
	}

	l := &Logger{
		fields:    append([]string(nil), opts.Fields...),
		stepField: opts.StepField,
		out:       opts.Output,
		logger:    opts.Logger,
		now:       time.Now,
		step:      1,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.logger == nil {
		l.logger = logging.New("metricslog")
	}

	if opts.Dir != "" {
		dir, err := filepath.Abs(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("metricslog: failed to get absolute path: %w", err)
		}
		l.eventPath = filepath.Join(dir, EventsDir)
		l.logger.Infof("events_path: %s", l.eventPath)
		w, err := eventfile.NewWriter(l.eventPath)
		if err != nil {
			return nil, err
		}
		l.sinks = append(l.sinks, w)
	}
	l.sinks = append(l.sinks, opts.Sinks...)
	return l, nil
}

// EventPath returns the directory that event files are written to,
// or the empty string if the event log is disabled.
func (l *Logger) EventPath() string {
	return l.eventPath
}

// Step returns the value of the fallback step counter, which is the step the next record
// gets when no step field is configured.
func (l *Logger) Step() int64 {
	return l.step
}

// Log logs a record. The record is validated completely before anything is written:
// configured fields and the step field must be present, and every value must be a float,
// an integer or a string (see ValueOf). Numeric values are written to the sinks as one
// event; string values are only printed.
func (l *Logger) Log(values map[string]any) error {
	if l.closed {
		return ErrClosed
	}
	if len(values) == 0 {
		return ErrEmptyRecord
	}

	rec, err := NewRecord(values, l.fields)
	if err != nil {
		if errors.Is(err, ErrUnsupportedValue) {
			l.logger.Errorf("cannot log record: %v", err)
		}
		return err
	}
	if len(rec) == 0 {
		return ErrEmptyRecord
	}

	step := l.step
	if l.stepField != "" {
		raw, ok := values[l.stepField]
		if !ok {
			return &MissingFieldError{Field: l.stepField}
		}
		step, err = StepOf(raw)
		if err != nil {
			return err
		}
	}

	accepted, err := l.forward(step, rec)
	if !accepted {
		return err
	}
	// the counter advances even when the step comes from the record, and as soon as
	// one sink holds the event, so that no step is written twice.
	l.step++

	return multierr.Append(err, l.print(rec))
}

// forward writes the numeric values of rec to every sink. It reports whether at least
// one sink accepted the event, or whether there are no sinks at all.
func (l *Logger) forward(step int64, rec Record) (accepted bool, err error) {
	if len(l.sinks) == 0 {
		return true, nil
	}
	var scalars []eventfile.Scalar
	for _, f := range rec {
		if f.Value.Numeric() {
			scalars = append(scalars, eventfile.Scalar{Tag: f.Name, Value: float32(f.Value.Float64())})
		}
	}
	ev := eventfile.NewScalarEvent(l.now(), step, scalars)

	for _, s := range l.sinks {
		if werr := s.Write(ev); werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		accepted = true
	}
	if err != nil {
		return accepted, fmt.Errorf("metricslog: failed to write event for step %d: %w", step, err)
	}
	l.logger.Debugf("wrote %d scalars for step %d", len(scalars), step)
	return true, nil
}

// Close closes the event log and all sinks. Calling Close more than once is a no-op.
func (l *Logger) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	var err error
	for _, s := range l.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
