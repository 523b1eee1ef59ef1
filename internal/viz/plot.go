package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/drive"
)

// PlotFields are the trace views PlotTrace accepts.
var PlotFields = []string{"position", "error", "lateral", "commands"}

// TraceSeries extracts one view of a tick trace. Two-series views hold
// master first, then slave.
func TraceSeries(trace []control.TickRecord, field string) ([][]float64, string, error) {
	switch field {
	case "position":
		return [][]float64{
			column(trace, func(r control.TickRecord) float64 { return r.Master.Position }),
			column(trace, func(r control.TickRecord) float64 { return r.Slave.Position }),
		}, "master (blue) / slave (red) position, rot", nil
	case "error":
		return [][]float64{column(trace, func(r control.TickRecord) float64 { return r.PositionError })},
			"position error, rot", nil
	case "lateral":
		return [][]float64{column(trace, func(r control.TickRecord) float64 { return r.LateralError })},
			"lateral error (master - slave), rot", nil
	case "commands":
		return [][]float64{heldCommands(trace, drive.Master), heldCommands(trace, drive.Slave)},
			"master (blue) / slave (red) velocity override", nil
	}
	return nil, "", fmt.Errorf("unknown plot field %q, want one of %v", field, PlotFields)
}

// PlotTrace charts one view of a tick trace.
func PlotTrace(trace []control.TickRecord, field string, width, height int) (string, error) {
	if len(trace) < 2 {
		return "", fmt.Errorf("need at least 2 ticks to plot, got %d", len(trace))
	}
	series, caption, err := TraceSeries(trace, field)
	if err != nil {
		return "", err
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	}
	if len(series) == 1 {
		return asciigraph.Plot(series[0], opts...), nil
	}
	opts = append(opts, asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red))
	return asciigraph.PlotMany(series, opts...), nil
}

// PlotSpectrum charts a power spectrum up to the Nyquist bin.
func PlotSpectrum(spectrum []float64, caption string, width, height int) string {
	if len(spectrum) == 0 {
		return ""
	}
	return asciigraph.Plot(spectrum,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

func column(trace []control.TickRecord, get func(control.TickRecord) float64) []float64 {
	out := make([]float64, len(trace))
	for i, rec := range trace {
		out[i] = get(rec)
	}
	return out
}

// heldCommands returns the override in force on each tick: an actuator
// keeps its last override until the next one, 0 before the first.
func heldCommands(trace []control.TickRecord, r drive.Role) []float64 {
	out := make([]float64, len(trace))
	held := 0.0
	for i, rec := range trace {
		if v, ok := rec.Commands.Get(r); ok && !math.IsNaN(v) {
			held = v
		}
		out[i] = held
	}
	return out
}
