// Package plotting reads scalar series from event files, summarizes them and plots them.
package plotting

import (
	"sort"

	"github.com/PenroseTiles/amplification/eventfile"
)

// Point is a single scalar measurement.
type Point struct {
	Step  int64
	Value float64
}

// Series holds the points of every scalar tag, in the order they were logged.
type Series struct {
	m map[string][]Point
}

// NewSeries constructs a new Series.
func NewSeries() *Series {
	return &Series{m: make(map[string][]Point)}
}

// Load reads every event file in dir into a new Series.
func Load(dir string) (*Series, error) {
	events, err := eventfile.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	s := NewSeries()
	for _, ev := range events {
		s.Add(ev)
	}
	return s, nil
}

// Add adds the scalars of an event. Events without scalars are ignored.
func (s *Series) Add(ev *eventfile.Event) {
	for _, sc := range ev.Scalars {
		s.m[sc.Tag] = append(s.m[sc.Tag], Point{Step: ev.Step, Value: float64(sc.Value)})
	}
}

// Tags returns the tags in the series, sorted.
func (s *Series) Tags() []string {
	tags := make([]string, 0, len(s.m))
	for tag := range s.m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Get returns the points logged for tag.
func (s *Series) Get(tag string) (points []Point, ok bool) {
	points, ok = s.m[tag]
	return
}

type xyer []Point

// Len returns the number of x, y pairs.
func (xy xyer) Len() int {
	return len(xy)
}

// XY returns an x, y pair.
func (xy xyer) XY(i int) (x float64, y float64) {
	p := xy[i]
	return float64(p.Step), p.Value
}
