package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/linsim/internal/experiment"
	"github.com/san-kum/linsim/internal/params"
	"github.com/san-kum/linsim/internal/sim"
	"github.com/san-kum/linsim/internal/viz"
)

const source = "tui"

type Options struct {
	TFinal float64
	Seed   int64
	Theme  string
}

type resultMsg struct {
	result *sim.Result
	err    error
	run    int
}

// Panel is a slider per scenario value. Left and right preview a value on
// the bus; enter commits it, and the commit subscriber marks the run stale
// so the next update re-simulates from a bus snapshot.
type Panel struct {
	scenario *experiment.Scenario
	bus      *params.Bus
	stale    *atomic.Bool
	unsub    []func()

	opts      Options
	cursor    int
	committed map[string]float64

	result  *sim.Result
	err     error
	running bool
	runs    int

	styles viz.Styles
	width  int
	height int
}

// NewPanel returns the slider panel for one scenario. The bus starts with
// the scenario defaults, committed.
func NewPanel(scenario *experiment.Scenario, opts Options) *Panel {
	m := &Panel{
		scenario:  scenario,
		bus:       params.NewBus(),
		stale:     new(atomic.Bool),
		opts:      opts,
		committed: scenario.Defaults(),
		styles:    viz.NewStyles(viz.GetTheme(opts.Theme)),
		width:     80,
		height:    24,
	}

	for _, p := range scenario.Params {
		m.bus.Commit(p.Name, p.Default, source)
		stale := m.stale
		m.unsub = append(m.unsub, m.bus.Subscribe(p.Name, func(params.Change) {
			stale.Store(true)
		}, false))
	}
	m.stale.Store(true)
	return m
}

// Bus exposes the panel's values.
func (m *Panel) Bus() *params.Bus { return m.bus }

// Close removes the panel's bus subscriptions.
func (m *Panel) Close() {
	for _, unsub := range m.unsub {
		unsub()
	}
}

func (m *Panel) Init() tea.Cmd {
	return m.resimulate()
}

func (m *Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case resultMsg:
		if msg.run != m.runs {
			return m, nil
		}
		m.running = false
		m.result, m.err = msg.result, msg.err
		cmd := m.resimulate()
		return m, cmd
	}
	return m, nil
}

func (m *Panel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenario.Params)-1 {
			m.cursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "enter", " ":
		if p, ok := m.selected(); ok {
			v, _ := m.bus.Get(p.Name)
			m.bus.Commit(p.Name, v, source)
			m.committed[p.Name] = v
		}
	case "s":
		m.opts.Seed++
		m.stale.Store(true)
	case "t":
		m.styles = viz.NewStyles(viz.NextTheme(m.styles.Theme))
	}
	cmd := m.resimulate()
	return m, cmd
}

func (m *Panel) selected() (experiment.Param, bool) {
	if len(m.scenario.Params) == 0 {
		return experiment.Param{}, false
	}
	return m.scenario.Params[m.cursor], true
}

// nudge previews the selected value one step up or down.
func (m *Panel) nudge(dir float64) {
	p, ok := m.selected()
	if !ok {
		return
	}
	v, _ := m.bus.Get(p.Name)
	step := p.Step
	if step == 0 {
		step = 0.1
	}
	v = math.Round((v+dir*step)/step) * step
	v = math.Min(math.Max(v, p.Min), p.Max)
	m.bus.Set(p.Name, v, source, true)
}

// resimulate starts a run when the committed values changed and no run is in
// flight.
func (m *Panel) resimulate() tea.Cmd {
	if m.running || !m.stale.Load() {
		return nil
	}
	m.stale.Store(false)
	m.running = true
	m.runs++

	scenario, run := m.scenario, m.runs
	values := m.committedSnapshot()
	cfg := sim.Config{TFinal: m.opts.TFinal, Seed: m.opts.Seed}

	return func() tea.Msg {
		sys, init, err := scenario.Build(values)
		if err != nil {
			return resultMsg{err: err, run: run}
		}
		result, err := sim.Simulate(context.Background(), sys, init, cfg)
		if err == nil && scenario.HideForce {
			result.Force.Hidden = true
		}
		return resultMsg{result: result, err: err, run: run}
	}
}

// committedSnapshot drops values that are only being previewed.
func (m *Panel) committedSnapshot() map[string]float64 {
	out := m.bus.Snapshot()
	for name := range out {
		if v, ok := m.committed[name]; ok {
			out[name] = v
		}
	}
	return out
}

func (m *Panel) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.Title.Render(m.scenario.Title) + "\n\n")

	nameWidth := 0
	for _, p := range m.scenario.Params {
		nameWidth = max(nameWidth, len(p.Name))
	}
	for i, p := range m.scenario.Params {
		v, _ := m.bus.Get(p.Name)
		cursor := "  "
		name := s.Label.Render(fmt.Sprintf("%-*s", nameWidth, p.Name))
		if i == m.cursor {
			cursor = s.Selected.Render("▸ ")
			name = s.Selected.Render(fmt.Sprintf("%-*s", nameWidth, p.Name))
		}
		value := s.Value.Render(fmt.Sprintf("%8.3f", v))
		if v != m.committed[p.Name] {
			value = s.Preview.Render(fmt.Sprintf("%8.3f", v)) + s.Hint.Render(" (enter)")
		}
		b.WriteString(cursor + name + " " + viz.Slider(v, p.Min, p.Max, 24) + " " + value + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(s.Error.Render("error: "+m.err.Error()) + "\n")
	case m.result != nil:
		width := max(m.width-12, 20)
		b.WriteString(viz.Render(m.result, viz.ChartOptions{Width: width, Height: 6, Legend: true}) + "\n\n")
		b.WriteString(s.Label.Render(fmt.Sprintf("final pos %.4f  vel %.4f  ticks %d  seed %d",
			m.result.Final.Pos(), m.result.Final.Vel(), m.result.Ticks, m.opts.Seed)) + "\n")
	case m.running:
		b.WriteString(s.Hint.Render("simulating...") + "\n")
	}

	b.WriteString("\n" + s.Hint.Render("↑↓ select   ←→ preview   enter commit   s reseed   t theme   q quit") + "\n")
	return b.String()
}
