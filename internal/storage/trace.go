package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/drive"
)

// TraceHeader is the column layout of ticks.csv. Override columns are
// empty on ticks where the role received no override.
var TraceHeader = []string{
	"tick", "goal",
	"master_pos", "slave_pos", "master_vel", "slave_vel",
	"pos_err", "lateral_err", "prev_err",
	"master_cmd", "slave_cmd",
}

func WriteTrace(w io.Writer, trace []control.TickRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TraceHeader); err != nil {
		return err
	}

	for _, rec := range trace {
		row := []string{
			strconv.Itoa(rec.Tick),
			formatFloat(rec.Goal),
			formatFloat(rec.Master.Position),
			formatFloat(rec.Slave.Position),
			formatFloat(rec.Master.Velocity),
			formatFloat(rec.Slave.Velocity),
			formatFloat(rec.PositionError),
			formatFloat(rec.LateralError),
			formatFloat(rec.PreviousError),
			formatCommand(rec.Commands, drive.Master),
			formatCommand(rec.Commands, drive.Slave),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadTrace(r io.Reader) ([]control.TickRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TraceHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []control.TickRecord{}, nil
	}

	trace := make([]control.TickRecord, 0, len(records)-1)
	for i, row := range records[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		trace = append(trace, rec)
	}
	return trace, nil
}

func parseRow(row []string) (control.TickRecord, error) {
	var rec control.TickRecord

	tick, err := strconv.Atoi(row[0])
	if err != nil {
		return rec, err
	}
	rec.Tick = tick

	fields := []*float64{
		&rec.Goal,
		&rec.Master.Position, &rec.Slave.Position,
		&rec.Master.Velocity, &rec.Slave.Velocity,
		&rec.PositionError, &rec.LateralError, &rec.PreviousError,
	}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return rec, err
		}
		*dst = v
	}

	for i, role := range drive.Roles {
		cell := row[len(fields)+1+i]
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return rec, err
		}
		rec.Commands.Set(role, v)
	}
	return rec, nil
}

type ExportData struct {
	Strategy string               `json:"strategy"`
	Goal     float64              `json:"goal"`
	Ticks    int                  `json:"ticks"`
	Metrics  map[string]float64   `json:"metrics"`
	Trace    []map[string]float64 `json:"trace"`
}

// WriteJSON encodes a result with one object per tick; unset overrides are
// omitted.
func WriteJSON(w io.Writer, result *control.Result) error {
	data := ExportData{
		Strategy: result.Strategy.String(),
		Goal:     result.Goal,
		Ticks:    result.Ticks,
		Metrics:  result.Metrics,
		Trace:    make([]map[string]float64, len(result.Trace)),
	}

	for i, rec := range result.Trace {
		row := map[string]float64{
			"tick":        float64(rec.Tick),
			"master_pos":  rec.Master.Position,
			"slave_pos":   rec.Slave.Position,
			"master_vel":  rec.Master.Velocity,
			"slave_vel":   rec.Slave.Velocity,
			"pos_err":     rec.PositionError,
			"lateral_err": rec.LateralError,
		}
		if v, ok := rec.Commands.Get(drive.Master); ok {
			row["master_cmd"] = v
		}
		if v, ok := rec.Commands.Get(drive.Slave); ok {
			row["slave_cmd"] = v
		}
		data.Trace[i] = row
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatCommand(c control.Commands, r drive.Role) string {
	if v, ok := c.Get(r); ok {
		return formatFloat(v)
	}
	return ""
}
