// Package viz renders a live terminal view of a running session: the vision
// grid the oracle sees, brush status, and a coverage sparkline.
package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/opcanvas/internal/memory"
	"github.com/san-kum/opcanvas/internal/session"
)

const historyCapacity = 200

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	reasonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

// CycleMsg carries one completed cycle from the session goroutine.
type CycleMsg struct {
	Rec   memory.Record
	Frame string
}

// DoneMsg arrives when the session loop exits.
type DoneMsg struct {
	Result *session.Result
	Err    error
}

// Model is the bubbletea state for the live view. The session itself runs on
// its own goroutine; the model only consumes cycle updates.
type Model struct {
	id      string
	cancel  context.CancelFunc
	updates chan CycleMsg
	done    chan DoneMsg

	frame    string
	rec      memory.Record
	coverage []float64
	result   *session.Result
	err      error
	finished bool
	quitting bool
}

// NewModel wires a model to a session. The returned observer must be added to
// the session before Run; cancel is invoked when the user quits.
func NewModel(id string, cancel context.CancelFunc) (Model, session.Observer, chan<- DoneMsg) {
	updates := make(chan CycleMsg, 16)
	done := make(chan DoneMsg, 1)
	m := Model{
		id:       id,
		cancel:   cancel,
		updates:  updates,
		done:     done,
		coverage: make([]float64, 0, historyCapacity),
	}
	return m, observerFunc(func(rec memory.Record, frame string) {
		// Drop frames rather than stall the drawing loop when the view
		// falls behind or has already quit.
		select {
		case updates <- CycleMsg{Rec: rec, Frame: frame}:
		default:
		}
	}), done
}

type observerFunc func(memory.Record, string)

func (f observerFunc) OnCycle(rec memory.Record, frame string) { f(rec, frame) }

func (m Model) Init() tea.Cmd {
	return m.wait()
}

// wait blocks on the next session event.
func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-m.updates:
			return c
		case d := <-m.done:
			return d
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			m.quitting = true
			if m.finished {
				return m, tea.Quit
			}
			return m, nil
		}

	case CycleMsg:
		m.rec = msg.Rec
		m.frame = msg.Frame
		m.coverage = append(m.coverage, msg.Rec.Coverage.Ratio)
		if len(m.coverage) > historyCapacity {
			m.coverage = m.coverage[1:]
		}
		return m, m.wait()

	case DoneMsg:
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	frame := m.frame
	if frame == "" {
		frame = "waiting for the first cycle..."
	}
	canvasView := canvasStyle.Render(frame)

	var s strings.Builder
	s.WriteString(headerStyle.Render("OPCANVAS "+m.id) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.finished:
		s.WriteString(doneStyle.Render("FINISHED") + "\n\n")
	default:
		s.WriteString("DRAWING\n\n")
	}

	if len(m.coverage) > 1 {
		chart := asciigraph.Plot(m.coverage, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Coverage"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.rec.Step)) + "\n")
	s.WriteString(labelStyle.Render("Code") + valueStyle.Render(fmt.Sprintf("%q", m.rec.Code)) + "\n")
	s.WriteString(labelStyle.Render("Tool") + valueStyle.Render(m.rec.Tool) + "\n")
	s.WriteString(labelStyle.Render("Color") + valueStyle.Render(m.rec.Color) + "\n")
	s.WriteString(labelStyle.Render("Pace") + valueStyle.Render(fmt.Sprintf("%.2f", m.rec.Pace)) + "\n")
	s.WriteString(labelStyle.Render("Stamps") + valueStyle.Render(fmt.Sprintf("%d", m.rec.Stamps)) + "\n")
	s.WriteString(labelStyle.Render("Coverage") + valueStyle.Render(fmt.Sprintf("%.2f", m.rec.Coverage.Ratio)) + "\n")

	if m.finished && m.result != nil {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Cycles") + valueStyle.Render(fmt.Sprintf("%d", m.result.Cycles)) + "\n")
		s.WriteString(labelStyle.Render("Skipped") + valueStyle.Render(fmt.Sprintf("%d", m.result.Skipped)) + "\n")
		s.WriteString(labelStyle.Render("Painted") + valueStyle.Render(fmt.Sprintf("%.1f%%", 100*m.result.Coverage)) + "\n")
		s.WriteString(reasonStyle.Render("\npress q to exit"))
	} else {
		s.WriteString(helpStyle.Render("\nQ: stop"))
	}

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// Live runs the session under a bubbletea program and blocks until the user
// quits or the loop ends.
func Live(ctx context.Context, sess *session.Session) (*session.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model, obs, done := NewModel(sess.ID(), cancel)
	sess.AddObserver(obs)

	go func() {
		result, err := sess.Run(ctx)
		done <- DoneMsg{Result: result, Err: err}
	}()

	p := tea.NewProgram(model)
	final, err := p.Run()
	cancel()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(Model); ok {
		return m.result, m.err
	}
	return nil, nil
}
