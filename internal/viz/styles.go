package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/drivectl/internal/control"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	StatusOK     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusFailed = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	Subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	KeyHint = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func row(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value) + "\n"
}

// Summary renders one run. err is the error returned with the result, if
// any.
func Summary(result *control.Result, err error) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(result.Strategy.String())) + "\n")

	if err != nil {
		s.WriteString(StatusFailed.Render("FAILED: "+err.Error()) + "\n\n")
	} else {
		s.WriteString(StatusOK.Render("DONE") + "\n\n")
	}

	s.WriteString(row("goal", fmt.Sprintf("%.4f rot", result.Goal)))
	s.WriteString(row("ticks", fmt.Sprintf("%d", result.Ticks)))
	s.WriteString(row("master", fmt.Sprintf("%.4f rot", result.Final.Master.Position)))
	s.WriteString(row("slave", fmt.Sprintf("%.4f rot", result.Final.Slave.Position)))
	s.WriteString(row("lateral", fmt.Sprintf("%+.4f rot", result.Final.LateralError())))

	if len(result.Metrics) > 0 {
		s.WriteString("\n")
		for _, name := range sortedMetricNames(result.Metrics) {
			s.WriteString(row(name, fmt.Sprintf("%.6f", result.Metrics[name])))
		}
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// CompareRow is one strategy's line in CompareTable.
type CompareRow struct {
	Strategy string
	Result   *control.Result
	Err      error
}

// CompareTable renders strategies side by side with their shared metrics.
func CompareTable(rows []CompareRow) string {
	names := map[string]bool{}
	for _, r := range rows {
		if r.Result == nil {
			continue
		}
		for name := range r.Result.Metrics {
			names[name] = true
		}
	}
	cols := make([]string, 0, len(names))
	for name := range names {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	cell := lipgloss.NewStyle().Width(16)
	var s strings.Builder
	header := cell.Render("strategy") + cell.Render("ticks")
	for _, c := range cols {
		header += cell.Render(c)
	}
	s.WriteString(HeaderStyle.Render(header) + "\n")

	for _, r := range rows {
		line := cell.Render(r.Strategy)
		if r.Result == nil {
			line += StatusFailed.Render(r.Err.Error())
			s.WriteString(line + "\n")
			continue
		}
		ticks := fmt.Sprintf("%d", r.Result.Ticks)
		if r.Err != nil {
			ticks += "!"
		}
		line += cell.Render(ticks)
		for _, c := range cols {
			line += cell.Render(fmt.Sprintf("%.4f", r.Result.Metrics[c]))
		}
		s.WriteString(line + "\n")
	}
	return s.String()
}

// ProgressBar renders frac of width as a colored bar.
func ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case frac > 0.8:
		return barHigh.Render(bar)
	case frac > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

func Separator(width int) string {
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
