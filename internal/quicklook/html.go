package quicklook

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders the chart as a self-contained go-echarts page with one
// scatter series per line.
func (c *Chart) WriteHTML(w io.Writer) error {
	xAxis := opts.XAxis{Name: c.XLabel, NameLocation: "middle", NameGap: 25}
	if c.TimeX {
		xAxis.Type = "time"
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: c.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel, NameLocation: "middle", NameGap: 40}),
	)

	for _, s := range c.Series {
		data := make([]opts.ScatterData, 0, len(s.Points))
		for _, pt := range s.Points {
			x, y := any(pt.X), pt.Y
			if c.TimeX {
				x = time.UnixMilli(int64(pt.X * 1000)).UTC().Format("2006-01-02 15:04:05")
			}
			if c.DepthY {
				// Plotted as negative height so deeper samples sit lower.
				y = -y
			}
			data = append(data, opts.ScatterData{Value: []interface{}{x, y}})
		}
		scatter.AddSeries(s.Label, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
