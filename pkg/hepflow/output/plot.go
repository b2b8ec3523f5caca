package output

import (
	"fmt"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// SavePlot renders a 1-D histogram to an image file. The format follows the
// file extension (png, svg, pdf, ...).
func SavePlot(h Histogram, path string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.Dims != 1 {
		return fmt.Errorf("histogram %s: only 1-D histograms can be plotted", h.Name)
	}

	h1 := h.H1
	if h1 == nil {
		h1 = h.ToH1D()
	}

	p := plot.New()
	p.Title.Text = h.Title
	if p.Title.Text == "" {
		p.Title.Text = h.Name
	}
	p.Y.Label.Text = "events"

	hp := hplot.NewH1D(h1)
	p.Add(hp)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
