// Package quicklook renders one variable of a converted dataset as a static
// PNG or an interactive HTML chart for a first look at the data.
package quicklook

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot/plotter"

	"github.com/banshee-data/ctdconvert/internal/dataset"
)

var (
	ErrUnknownVariable = errors.New("no such variable")
	ErrNotPlottable    = errors.New("variable is not a numeric series")
	ErrNoData          = errors.New("variable has no valid samples")
)

// Series is one line of a chart.
type Series struct {
	Label  string
	Points plotter.XYs
}

// Chart is a variable's data arranged for plotting. Time series put time
// (Unix seconds) on X; profiles put the value on X and depth on Y.
type Chart struct {
	Title    string
	Subtitle string
	XLabel   string
	YLabel   string
	// TimeX is set when X holds Unix seconds.
	TimeX bool
	// DepthY is set when Y grows downwards.
	DepthY bool
	Series []Series
}

// Extract arranges the named variable for plotting. Missing values are
// dropped from the series.
func Extract(ds *dataset.Dataset, name string) (*Chart, error) {
	v, ok := ds.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownVariable)
	}

	c := &Chart{
		Title:    name,
		Subtitle: fmt.Sprintf("%s %s", ds.Meta.SourceFile, ds.Meta.FeatureType),
	}
	label := name
	if v.Comment != "" {
		label = fmt.Sprintf("%s (%s)", name, v.Comment)
	}

	switch data := v.Data.(type) {
	case dataset.Values:
		if len(v.Dims) != 1 {
			return nil, fmt.Errorf("%s: %w", name, ErrNotPlottable)
		}
		dim := ds.Dimensions[v.Dims[0]]
		switch dim.Axis {
		case dataset.AxisTime:
			times, _ := dim.Data.(dataset.Instants)
			c.TimeX, c.XLabel, c.YLabel = true, "Time (UTC)", label
			c.Series = []Series{{Label: name, Points: againstTime(data, times)}}
		case dataset.AxisVertical:
			depth, _ := dim.Data.(dataset.Values)
			c.DepthY, c.XLabel, c.YLabel = true, label, dim.Name
			c.Series = []Series{{Label: legLabel(ds, 0), Points: againstDepth(data, depth)}}
		default:
			return nil, fmt.Errorf("%s on %s: %w", name, dim.Name, ErrNotPlottable)
		}
	case *dataset.Grid:
		depth, ok := depthGrid(ds)
		if !ok {
			return nil, fmt.Errorf("%s: no DEPTH grid: %w", name, ErrNotPlottable)
		}
		c.DepthY, c.XLabel, c.YLabel = true, label, "DEPTH"
		for leg := 0; leg < data.Cols; leg++ {
			c.Series = append(c.Series, Series{
				Label:  legLabel(ds, leg),
				Points: againstDepth(data.Column(leg), depth.Column(leg)),
			})
		}
	default:
		return nil, fmt.Errorf("%s is %T: %w", name, v.Data, ErrNotPlottable)
	}

	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNoData)
}

func againstTime(v dataset.Values, times dataset.Instants) plotter.XYs {
	pts := make(plotter.XYs, 0, len(v))
	for i, x := range v {
		y, ok := x.Get()
		if !ok || i >= len(times) {
			continue
		}
		t, ok := times[i].Get()
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(t.UnixMilli()) / 1000, Y: y})
	}
	return pts
}

func againstDepth(v, depth dataset.Values) plotter.XYs {
	pts := make(plotter.XYs, 0, len(v))
	for i, x := range v {
		val, ok := x.Get()
		if !ok || i >= len(depth) {
			continue
		}
		z, ok := depth[i].Get()
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: val, Y: z})
	}
	return pts
}

func depthGrid(ds *dataset.Dataset) (*dataset.Grid, bool) {
	v, ok := ds.Variable("DEPTH")
	if !ok {
		return nil, false
	}
	g, ok := v.Data.(*dataset.Grid)
	return g, ok
}

// legLabel names a profile leg from its DIRECTION flag.
func legLabel(ds *dataset.Dataset, leg int) string {
	v, ok := ds.Variable("DIRECTION")
	if !ok {
		return fmt.Sprintf("profile %d", leg+1)
	}
	dirs, ok := v.Data.(dataset.Labels)
	if !ok || leg >= len(dirs) {
		return fmt.Sprintf("profile %d", leg+1)
	}
	switch dirs[leg] {
	case "D":
		return "descending"
	case "A":
		return "ascending"
	}
	return dirs[leg]
}
