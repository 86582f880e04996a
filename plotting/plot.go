package plotting

import (
	"fmt"
	"image/color"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot draws one line per tag, value against step, and saves it to filename.
// The image format is chosen from the file extension. If no tags are given, all tags are plotted.
func (s *Series) Plot(filename string, tags ...string) error {
	if len(tags) == 0 {
		tags = s.Tags()
	}
	if len(tags) == 0 {
		return fmt.Errorf("no scalars to plot")
	}

	plt := plot.New()

	grid := plotter.NewGrid()
	grid.Horizontal.Color = color.Gray{Y: 200}
	grid.Horizontal.Dashes = plotutil.Dashes(2)
	grid.Vertical.Color = color.Gray{Y: 200}
	grid.Vertical.Dashes = plotutil.Dashes(2)
	plt.Add(grid)

	plt.X.Label.Text = "Step"
	plt.X.Tick.Marker = hplot.Ticks{N: 10}
	plt.Y.Label.Text = "Value"
	plt.Y.Tick.Marker = hplot.Ticks{N: 10}
	plt.Legend.Top = true

	lines := make([]interface{}, 0, 2*len(tags))
	for _, tag := range tags {
		points, ok := s.m[tag]
		if !ok {
			return fmt.Errorf("unknown tag %q", tag)
		}
		lines = append(lines, tag, xyer(points))
	}
	if err := plotutil.AddLinePoints(plt, lines...); err != nil {
		return fmt.Errorf("failed to add line plot: %w", err)
	}

	if err := plt.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
