package quicklook

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var legColours = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
}

// WritePNG draws the chart as a PNG image.
func (c *Chart) WritePNG(w io.Writer) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())
	if c.TimeX {
		p.X.Tick.Marker = plot.TimeTicks{Format: "01-02\n15:04:05"}
	}
	if c.DepthY {
		p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	}

	for i, s := range c.Series {
		if len(s.Points) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.Points)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.Label, err)
		}
		line.Color = legColours[i%len(legColours)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = c.DepthY

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
