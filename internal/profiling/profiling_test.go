package profiling_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PenroseTiles/amplification/internal/profiling"
)

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	p := profiling.Profiles{
		CPU:    filepath.Join(dir, "cpu.prof"),
		Mem:    filepath.Join(dir, "mem.prof"),
		FgProf: filepath.Join(dir, "fgprof.prof"),
	}
	stop, err := profiling.Start(p)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	for _, path := range []string{p.CPU, p.Mem, p.FgProf} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("profile not written: %v", err)
		}
	}
}

func TestStartNothing(t *testing.T) {
	stop, err := profiling.Start(profiling.Profiles{})
	if err != nil {
		t.Fatal(err)
	}
	if err := stop(); err != nil {
		t.Fatal(err)
	}
}
