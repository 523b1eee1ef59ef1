package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/viz"
)

// SeriesColors are used in order for master and slave.
var SeriesColors = []string{"#3b82f6", "#ef4444", "#22c55e"}

// SeriesToSVG draws each series as a polyline over a shared tick axis and
// value range. NaN samples break the line.
func SeriesToSVG(series [][]float64, width, height int, title string) (string, error) {
	n := 0
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if len(s) > n {
			n = len(s)
		}
		for _, v := range s {
			if math.IsNaN(v) {
				continue
			}
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if n < 2 || math.IsInf(minY, 1) {
		return "", fmt.Errorf("need at least 2 samples to draw")
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	if title != "" {
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#aaaaaa\" font-family=\"monospace\" font-size=\"12\">%s</text>\n", escape(title))
	}

	if minY < 0 && maxY > 0 {
		y0 := float64(height) - (0-minY)/rangeY*float64(height)
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#333333\"/>\n", y0, width, y0)
	}

	for i, s := range series {
		color := SeriesColors[i%len(SeriesColors)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
		pen := false
		for j, v := range s {
			if math.IsNaN(v) {
				pen = false
				continue
			}
			x := float64(j) / float64(n-1) * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if pen {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " M%.1f,%.1f", x, y)
				pen = true
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// TraceToSVG renders one plot view of a trace, using the same views as the
// terminal plot.
func TraceToSVG(trace []control.TickRecord, field string, width, height int) (string, error) {
	series, caption, err := viz.TraceSeries(trace, field)
	if err != nil {
		return "", err
	}
	return SeriesToSVG(series, width, height, caption)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
