package eventfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/google/go-cmp/cmp"
)

func TestWriterReader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run", "events")
	w, err := eventfile.NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(w.Path()), "events.out.tfevents.") {
		t.Errorf("unexpected file name %q", w.Path())
	}

	want := []*eventfile.Event{
		eventfile.NewScalarEvent(time.Unix(10, 0), 1, []eventfile.Scalar{{Tag: "loss", Value: 1}}),
		eventfile.NewScalarEvent(time.Unix(11, 0), 2, []eventfile.Scalar{{Tag: "loss", Value: 0.5}}),
	}
	for _, ev := range want {
		if err := w.Write(ev); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	// events are flushed by Write, so they are readable before Close.
	got, err := eventfile.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].FileVersion != eventfile.FileVersion {
		t.Errorf("first event file_version = %q, want %q", got[0].FileVersion, eventfile.FileVersion)
	}
	if diff := cmp.Diff(want, got[1:]); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := w.Write(want[0]); !errors.Is(err, eventfile.ErrClosed) {
		t.Errorf("Write after Close: got %v, want ErrClosed", err)
	}
}

func TestWriterUniqueFiles(t *testing.T) {
	dir := t.TempDir()
	w1, err := eventfile.NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w1.Close()
	w2, err := eventfile.NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()

	if w1.Path() == w2.Path() {
		t.Fatalf("writers share file %q", w1.Path())
	}
	files, err := eventfile.Files(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("got %d event files, want 2", len(files))
	}
}

func TestReadFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	w, err := eventfile.NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	b[len(b)-1] ^= 0xff
	if err := os.WriteFile(w.Path(), b, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := eventfile.ReadFile(w.Path()); !errors.Is(err, eventfile.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}
