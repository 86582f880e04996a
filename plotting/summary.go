package plotting

import "math"

// welford is an implementation of Welford's online algorithm for calculating variance.
type welford struct {
	mean  float64
	m2    float64
	count uint64
}

// update adds the value to the current estimate.
func (w *welford) update(val float64) {
	w.count++
	delta := val - w.mean
	w.mean += delta / float64(w.count)
	delta2 := val - w.mean
	w.m2 += delta * delta2
}

// get returns the current mean and sample variance estimate.
func (w *welford) get() (mean, variance float64, count uint64) {
	if w.count < 2 {
		return w.mean, math.NaN(), w.count
	}
	return w.mean, w.m2 / (float64(w.count - 1)), w.count
}

// Summary describes the values logged for one tag.
type Summary struct {
	Tag      string
	Count    uint64
	Mean     float64
	Variance float64 // sample variance, NaN for fewer than two values
	Min      float64
	Max      float64
	Last     Point
}

// Summarize returns a summary of every tag, sorted by tag.
func (s *Series) Summarize() []Summary {
	tags := s.Tags()
	summaries := make([]Summary, 0, len(tags))
	for _, tag := range tags {
		points := s.m[tag]
		sum := Summary{Tag: tag, Min: math.Inf(1), Max: math.Inf(-1)}
		var w welford
		for _, p := range points {
			w.update(p.Value)
			sum.Min = math.Min(sum.Min, p.Value)
			sum.Max = math.Max(sum.Max, p.Value)
		}
		sum.Mean, sum.Variance, sum.Count = w.get()
		sum.Last = points[len(points)-1]
		summaries = append(summaries, sum)
	}
	return summaries
}
