package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/drive"
)

const (
	laneWidth       = 60
	laneHeight      = 4
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// TickMsg carries one controller tick into the live view.
type TickMsg struct {
	Record control.TickRecord
}

// DoneMsg reports that the command returned.
type DoneMsg struct {
	Result *control.Result
	Err    error
}

// LiveObserver forwards every Nth tick to a running program. It is
// attached with Controller.AddObserver.
type LiveObserver struct {
	send  func(tea.Msg)
	every int
}

func NewLiveObserver(p *tea.Program, every int) *LiveObserver {
	return newLiveObserver(p.Send, every)
}

func newLiveObserver(send func(tea.Msg), every int) *LiveObserver {
	if every < 1 {
		every = 1
	}
	return &LiveObserver{send: send, every: every}
}

func (o *LiveObserver) OnTick(rec control.TickRecord) {
	if rec.Tick%o.every == 0 {
		o.send(TickMsg{Record: rec})
	}
}

// LiveModel shows both wheels' travel, the latest overrides and a rolling
// lateral error chart while a command runs.
type LiveModel struct {
	strategy  control.Strategy
	goal      float64
	cancel    context.CancelFunc
	canvas    *Canvas
	last      control.TickRecord
	ticks     int
	lateral   []float64
	showChart bool
	done      bool
	result    *control.Result
	err       error
}

// NewLiveModel builds the view. cancel stops the running command when the
// user quits; it may be nil.
func NewLiveModel(strategy control.Strategy, goal float64, cancel context.CancelFunc) LiveModel {
	return LiveModel{
		strategy:  strategy,
		goal:      goal,
		cancel:    cancel,
		canvas:    NewCanvas(laneWidth, laneHeight),
		lateral:   make([]float64, 0, historyCapacity),
		showChart: true,
	}
}

func (m LiveModel) Init() tea.Cmd { return nil }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "p":
			m.showChart = !m.showChart
		}
	case TickMsg:
		m.last = msg.Record
		m.ticks = msg.Record.Tick + 1
		if len(m.lateral) == historyCapacity {
			m.lateral = m.lateral[1:]
		}
		m.lateral = append(m.lateral, msg.Record.LateralError)
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Result != nil {
			m.ticks = msg.Result.Ticks
		}
	}
	return m, nil
}

func (m LiveModel) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.strategy.String())) + "\n")

	switch {
	case m.done && m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED: "+m.err.Error()) + "\n")
	case m.done:
		s.WriteString(StatusOK.Render("DONE") + "\n")
	default:
		s.WriteString(StatusOK.Render("RUNNING") + "\n")
	}

	master, slave := m.last.Master.Position, m.last.Slave.Position
	if m.result != nil {
		master, slave = m.result.Final.Master.Position, m.result.Final.Slave.Position
	}
	m.canvas.DrawLanes(master, slave, m.goal)
	s.WriteString(canvasStyle.Render(m.canvas.String()) + "\n")

	s.WriteString(row("tick", fmt.Sprintf("%d", m.ticks)))
	s.WriteString(row("goal", fmt.Sprintf("%.4f rot", m.goal)))
	s.WriteString(row("master", fmt.Sprintf("%.4f rot  %s", master, ProgressBar(fraction(master, m.goal), 20))))
	s.WriteString(row("slave", fmt.Sprintf("%.4f rot  %s", slave, ProgressBar(fraction(slave, m.goal), 20))))
	s.WriteString(row("lateral", fmt.Sprintf("%+.4f rot", master-slave)))
	s.WriteString(row("override M", commandText(m.last.Commands, drive.Master)))
	s.WriteString(row("override S", commandText(m.last.Commands, drive.Slave)))

	if m.showChart && len(m.lateral) > 1 {
		chart := asciigraph.Plot(m.lateral, asciigraph.Height(6), asciigraph.Width(laneWidth), asciigraph.Caption("lateral error"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(KeyHint.Render("\nq: stop and quit  p: toggle chart"))
	return s.String()
}

func fraction(pos, goal float64) float64 {
	if goal == 0 {
		return 1
	}
	return pos / goal
}

func commandText(c control.Commands, r drive.Role) string {
	if v, ok := c.Get(r); ok {
		return fmt.Sprintf("%.4f", v)
	}
	return "-"
}
