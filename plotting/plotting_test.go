package plotting_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/PenroseTiles/amplification/plotting"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testSeries() *plotting.Series {
	s := plotting.NewSeries()
	s.Add(&eventfile.Event{FileVersion: eventfile.FileVersion})
	for i, v := range []float32{4, 2, 3} {
		s.Add(eventfile.NewScalarEvent(time.Now(), int64(i+1), []eventfile.Scalar{{Tag: "loss", Value: v}}))
	}
	s.Add(eventfile.NewScalarEvent(time.Now(), 3, []eventfile.Scalar{{Tag: "acc", Value: 0.5}}))
	return s
}

func TestSeries(t *testing.T) {
	s := testSeries()
	if diff := cmp.Diff([]string{"acc", "loss"}, s.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	points, ok := s.Get("loss")
	if !ok {
		t.Fatal("loss missing")
	}
	want := []plotting.Point{{Step: 1, Value: 4}, {Step: 2, Value: 2}, {Step: 3, Value: 3}}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	got := testSeries().Summarize()
	want := []plotting.Summary{
		{Tag: "acc", Count: 1, Mean: 0.5, Variance: math.NaN(), Min: 0.5, Max: 0.5, Last: plotting.Point{Step: 3, Value: 0.5}},
		{Tag: "loss", Count: 3, Mean: 3, Variance: 1, Min: 2, Max: 4, Last: plotting.Point{Step: 3, Value: 3}},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAndPlot(t *testing.T) {
	dir := t.TempDir()
	w, err := eventfile.NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		ev := eventfile.NewScalarEvent(time.Now(), int64(i), []eventfile.Scalar{{Tag: "loss", Value: 1 / float32(i)}})
		if err := w.Write(ev); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := plotting.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if points, _ := s.Get("loss"); len(points) != 5 {
		t.Fatalf("got %d points, want 5", len(points))
	}

	out := filepath.Join(t.TempDir(), "loss.png")
	if err := s.Plot(out); err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}
	if err := s.Plot(out, "accuracy"); err == nil {
		t.Error("expected error for unknown tag")
	}
}
