package eventfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PenroseTiles/amplification/internal/recordio"
)

// ErrCorrupt is returned when a record in an event file fails its checksum.
var ErrCorrupt = recordio.ErrCorrupt

// Reader reads events from an event file.
type Reader struct {
	src io.Reader
	rec *recordio.Reader
}

// NewReader returns a new Reader. src is the io.Reader that the Reader should read events from.
// The Reader will close src in Close if src implements io.Closer.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src, rec: recordio.NewReader(src)}
}

// Read reads the next event. It returns io.EOF when there are no more events.
func (r *Reader) Read() (*Event, error) {
	data, err := r.rec.Read()
	if err != nil {
		return nil, err
	}
	ev, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Close closes the Reader. If the src reader implements io.Closer, it will be closed.
func (r *Reader) Close() error {
	if closer, ok := r.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadAll reads events until the end of the stream.
func (r *Reader) ReadAll() ([]*Event, error) {
	var events []*Event
	for {
		ev, err := r.Read()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// ReadFile reads all events in the event file at path.
func ReadFile(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f)
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("eventfile: %s: %w", filepath.Base(path), err)
	}
	return events, nil
}

// Files returns the event files in dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.Contains(e.Name(), ".tfevents.") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadDir reads the events of every event file in dir, in file name order.
func ReadDir(dir string) ([]*Event, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	var events []*Event
	for _, f := range files {
		ev, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}
	return events, nil
}
