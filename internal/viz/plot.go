package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotScores renders episode scores and their moving average as an ASCII
// chart.
func PlotScores(scores, averages []float64, height, width int) string {
	if len(scores) == 0 {
		return "no episodes"
	}
	series := [][]float64{scores}
	caption := "score"
	if len(averages) == len(scores) {
		series = append(series, averages)
		caption = "score and moving average"
	}
	if len(scores) == 1 {
		// asciigraph needs two points to draw a line
		for i := range series {
			series[i] = []float64{series[i][0], series[i][0]}
		}
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// SavePNG writes the learning curve to path.
func SavePNG(path, title string, scores, averages []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Score"

	names := []string{"score", "moving average"}
	for i, ys := range [][]float64{scores, averages} {
		if len(ys) == 0 {
			continue
		}
		points := make(plotter.XYs, len(ys))
		for j, v := range ys {
			points[j] = plotter.XY{X: float64(j + 1), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plot %s: %w", names[i], err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
