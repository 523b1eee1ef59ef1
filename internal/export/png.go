package export

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/viz"
)

var (
	pngColors = []color.RGBA{
		{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
		{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	}
	seriesNames = []string{"master", "slave"}
)

// TraceToPNG renders one plot view of a trace against time in seconds,
// tickMs apart, as a PNG of widthIn x heightIn inches.
func TraceToPNG(w io.Writer, trace []control.TickRecord, field string, tickMs, widthIn, heightIn float64) error {
	if len(trace) < 2 {
		return fmt.Errorf("need at least 2 ticks to plot, got %d", len(trace))
	}
	series, caption, err := viz.TraceSeries(trace, field)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = caption
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = field
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, len(s))
		for j, v := range s {
			pts[j].X = float64(trace[j].Tick) * tickMs / 1000
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s series %d: %w", field, i, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = pngColors[i%len(pngColors)]
		p.Add(line)
		if len(series) > 1 {
			p.Legend.Add(seriesNames[i%len(seriesNames)], line)
		}
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(96),
	)
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
