package eventfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PenroseTiles/amplification/internal/recordio"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("eventfile: writer is closed")

// syncFile commits the file to stable storage. Replaced in tests.
var syncFile = (*os.File).Sync

// Writer appends events to a single event file.
// The file is opened when the Writer is created and stays open until Close is called.
type Writer struct {
	mut    sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	rec    *recordio.Writer
	path   string
	closed bool
}

// NewWriter creates the directory dir if needed, and opens a new event file inside it.
// The file is named events.out.tfevents.<unix seconds>.<hostname>, with a numeric suffix
// added if such a file already exists. The file version event is written and flushed
// before NewWriter returns.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventfile: failed to create directory: %w", err)
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	now := time.Now()
	base := filepath.Join(dir, fmt.Sprintf("events.out.tfevents.%010d.%s", now.Unix(), host))

	var file *os.File
	path := base
	for i := 1; ; i++ {
		file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("eventfile: failed to create event file: %w", err)
		}
		path = fmt.Sprintf("%s.%d", base, i)
	}

	buf := bufio.NewWriter(file)
	w := &Writer{
		file: file,
		buf:  buf,
		rec:  recordio.NewWriter(buf),
		path: path,
	}
	header := &Event{WallTime: wallSeconds(now), FileVersion: FileVersion}
	if err := w.Write(header); err != nil {
		file.Close()
		// a file without a version header cannot be read back.
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

// Path returns the path of the event file.
func (w *Writer) Path() string {
	return w.path
}

// WriteEvent appends an event to the file buffer.
func (w *Writer) WriteEvent(ev *Event) error {
	w.mut.Lock()
	defer w.mut.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.rec.Write(ev.Marshal()); err != nil {
		return fmt.Errorf("eventfile: failed to write event: %w", err)
	}
	return nil
}

// Flush writes buffered events to the file and syncs it to stable storage.
func (w *Writer) Flush() error {
	w.mut.Lock()
	defer w.mut.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("eventfile: failed to flush: %w", err)
	}
	if err := syncFile(w.file); err != nil {
		return fmt.Errorf("eventfile: failed to sync: %w", err)
	}
	return nil
}

// Write writes the event and flushes it, so that it is immediately visible to readers.
func (w *Writer) Write(ev *Event) error {
	if err := w.WriteEvent(ev); err != nil {
		return err
	}
	return w.Flush()
}

// Close flushes any buffered events and closes the file. Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	w.mut.Lock()
	defer w.mut.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.flush()
	if cerr := w.file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("eventfile: failed to close: %w", cerr)
	}
	return err
}
