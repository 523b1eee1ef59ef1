package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/drivectl/internal/analysis"
	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/export"
	"github.com/san-kum/drivectl/internal/storage"
	"github.com/san-kum/drivectl/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTRATEGY\tTIME\tDIST\tTICKS\tGAINS\tOUTCOME")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%.2f/%.2f/%.2f\t%s\n",
			run.ID,
			run.Strategy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Distance,
			run.Ticks,
			run.KS, run.KP, run.KD,
			run.Outcome,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []control.TickRecord, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, trace, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fields := args[1:]
	if len(fields) == 0 {
		fields = []string{"position", "lateral"}
	}

	fmt.Printf("run: %s (%s, %d ticks, %s)\n\n", meta.ID, meta.Strategy, meta.Ticks, meta.Outcome)
	for _, field := range fields {
		graph, err := viz.PlotTrace(trace, field, plotWidth, 10)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(trace) < 4 {
		return fmt.Errorf("run %s has too few ticks to analyze", meta.ID)
	}
	if meta.TickMs <= 0 {
		return fmt.Errorf("run %s has no tick interval recorded", meta.ID)
	}
	sampleRate := 1000 / meta.TickMs

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("strategy: %s, %d ticks at %.1f Hz\n\n", meta.Strategy, len(trace), sampleRate)

	series := map[string][]float64{
		"position error": make([]float64, len(trace)),
		"lateral error":  make([]float64, len(trace)),
	}
	for i, rec := range trace {
		series["position error"][i] = rec.PositionError
		series["lateral error"][i] = rec.LateralError
	}

	for _, name := range []string{"position error", "lateral error"} {
		data := series[name]
		ps := analysis.PowerSpectrum(data)
		if len(ps) > 4 {
			fmt.Println(viz.PlotSpectrum(ps[:len(ps)/4], "power spectrum ("+name+")", 80, 10))
			fmt.Println()
		}

		osc := analysis.DominantOscillation(data, sampleRate)
		fmt.Printf("%s: dominant %.3f Hz (magnitude %.4g, %.1fx mean bin)\n", name, osc.Frequency, osc.Magnitude, osc.Ratio)
		if osc.Frequency > 0 {
			fmt.Printf("  period: %.3f s\n", 1/osc.Frequency)
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteTrace(os.Stdout, trace)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	strategy, err := control.ParseStrategy(meta.Strategy)
	if err != nil {
		return err
	}
	result := &control.Result{
		Strategy: strategy,
		Goal:     meta.Goal,
		Ticks:    meta.Ticks,
		Trace:    trace,
		Metrics:  meta.Metrics,
	}
	return storage.WriteJSON(os.Stdout, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	field := "position"
	if len(args) > 1 {
		field = args[1]
	}

	svg, err := export.TraceToSVG(trace, field, svgWidth, svgWidth/2)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, svg)
	return err
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	field := "position"
	if len(args) > 1 {
		field = args[1]
	}

	out := pngOut
	if out == "" {
		out = fmt.Sprintf("%s_%s.png", meta.ID, field)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writePNG(f, trace, field, meta.TickMs); err != nil {
		os.Remove(out)
		return err
	}
	fmt.Println("wrote", out)
	return nil
}

// writePNG renders into f and closes it.
func writePNG(f *os.File, trace []control.TickRecord, field string, tickMs float64) error {
	if err := export.TraceToPNG(f, trace, field, tickMs, 8, 4); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
