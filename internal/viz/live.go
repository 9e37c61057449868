package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rrk/internal/integrators"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
)

const historyCapacity = 600

type TickMsg time.Time

// LiveModel steps one system in real time, applying the relaxation
// correction after every step when the system carries an entropy
// functional.
type LiveModel struct {
	sys     ode.System
	erk     *integrators.ERK
	relaxer *relax.Relaxer

	state   ode.State
	initial ode.State
	t, dt   float64
	steps   int
	name    string

	entropy0     float64
	haveBase     bool
	driftHistory []float64
	paramHistory []float64

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	running  bool
	failMsg  string
	showHelp bool
}

// NewLiveModel initializes the live view. Relaxation turns on
// automatically when sys implements [ode.Entropy].
func NewLiveModel(sys ode.System, erk *integrators.ERK, initState ode.State, dt float64, name string) LiveModel {
	params := make(map[string]float64)
	if c, ok := sys.(ode.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initialParams := make(map[string]float64)
	for k, v := range params {
		keys = append(keys, k)
		if v == 0 {
			v = 1e-6
		}
		initialParams[k] = v
	}
	sort.Strings(keys)

	m := LiveModel{
		sys:           sys,
		erk:           erk,
		state:         initState.Clone(),
		initial:       initState.Clone(),
		dt:            dt,
		name:          name,
		driftHistory:  make([]float64, 0, historyCapacity),
		paramHistory:  make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		running:       true,
	}
	if ent, ok := sys.(ode.Entropy); ok {
		if rx, err := relax.New(erk, ent.Entropy, ent.EntropyJac, relax.DefaultConfig()); err == nil {
			m.relaxer = rx
			if e0, err := ent.Entropy(m.state); err == nil {
				m.entropy0 = e0
				m.haveBase = true
			}
		}
	}
	return m
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.failMsg == "" {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.failMsg == "" {
			m.step()
		}
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *LiveModel) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *LiveModel) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.params[key] * factor
	m.params[key] = newVal
	if c, ok := m.sys.(ode.Configurable); ok {
		c.SetParam(key, newVal)
	}
}

// step takes one fixed step and applies the relaxation correction.
func (m *LiveModel) step() {
	ynew, _ := m.erk.Step(m.sys, m.state, m.t, m.dt, 0, 0)
	if !ynew.IsValid() {
		m.failMsg = "state diverged"
		m.running = false
		return
	}

	hUsed := m.dt
	param := 1.0
	if m.relaxer != nil {
		out := m.relaxer.Relax(&relax.Attempt{Yn: m.state, Ycur: ynew, H: m.dt, FixedStep: true})
		if out.Verdict != relax.Accepted {
			m.failMsg = out.Err.Error()
			m.running = false
			return
		}
		param = out.Param
		hUsed = out.H
	}

	m.state = ynew
	m.t += hUsed
	m.steps++

	if ent, ok := m.sys.(ode.Entropy); ok {
		if e, err := ent.Entropy(m.state); err == nil {
			if !m.haveBase {
				m.entropy0 = e
				m.haveBase = true
			}
			m.driftHistory = append(m.driftHistory, e-m.entropy0)
			if len(m.driftHistory) > historyCapacity {
				m.driftHistory = m.driftHistory[1:]
			}
		}
	}
	m.paramHistory = append(m.paramHistory, param)
	if len(m.paramHistory) > historyCapacity {
		m.paramHistory = m.paramHistory[1:]
	}
}

// reset restores the initial state and parameters. Cumulative solver
// statistics survive a reset.
func (m *LiveModel) reset() {
	m.state = m.initial.Clone()
	m.t = 0
	m.steps = 0
	m.failMsg = ""
	m.driftHistory = m.driftHistory[:0]
	m.paramHistory = m.paramHistory[:0]
	for k, v := range m.initialParams {
		m.params[k] = v
		if c, ok := m.sys.(ode.Configurable); ok {
			c.SetParam(k, v)
		}
	}
	if ent, ok := m.sys.(ode.Entropy); ok {
		if e0, err := ent.Entropy(m.state); err == nil {
			m.entropy0 = e0
			m.haveBase = true
		}
	}
}

func (m LiveModel) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.failMsg != "":
		s.WriteString(statusFailed.Render("FAILED") + " " + subtleStyle.Render(m.failMsg) + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.driftHistory) > 1 {
		series, exp := rescale(m.driftHistory)
		caption := "entropy drift"
		if exp != 0 {
			caption = fmt.Sprintf("entropy drift ×1e%d", exp)
		}
		chart := asciigraph.Plot(series,
			asciigraph.Height(4), asciigraph.Width(40),
			asciigraph.Precision(2), asciigraph.Caption(caption))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", m.steps)) + "\n")
	if m.haveBase && len(m.driftHistory) > 0 {
		drift := m.driftHistory[len(m.driftHistory)-1]
		s.WriteString(labelStyle.Render("Drift") + valueStyle.Render(fmt.Sprintf("%.3e", drift)) + "\n")
	}
	if len(m.paramHistory) > 0 {
		s.WriteString(labelStyle.Render("Param r") +
			valueStyle.Render(fmt.Sprintf("%.8f  ", m.paramHistory[len(m.paramHistory)-1])) +
			Sparkline(m.paramHistory, 24) + "\n")
	}
	if m.relaxer != nil {
		st := m.relaxer.Stats()
		s.WriteString(labelStyle.Render("Relax work") +
			valueStyle.Render(fmt.Sprintf("fn %d  jac %d  iters %d", st.FnEvals, st.JacEvals, st.SolverIters)) + "\n")
		if st.TotalFails > 0 {
			s.WriteString(labelStyle.Render("Relax fails") +
				statusFailed.Render(fmt.Sprintf("%d", st.TotalFails)) + "\n")
		}
	}

	if len(m.paramKeys) > 0 {
		s.WriteString("\n" + subtleStyle.Render("PARAMETERS") + "\n")
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-10s %8.3f", k, m.params[k])
			if i == m.selected {
				s.WriteString("  " + activeStyle.Render("▸ "+line) + "\n")
			} else {
				s.WriteString("    " + subtleStyle.Render(line) + "\n")
			}
		}
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause/resume   r reset   tab select param   ↑/↓ adjust   ? close help   q quit"))
	} else {
		s.WriteString(helpStyle.Render("space pause   r reset   ? help   q quit"))
	}
	return s.String()
}

// RunLive starts the live TUI.
func RunLive(sys ode.System, erk *integrators.ERK, initState ode.State, dt float64, name string) error {
	return tea.NewProgram(NewLiveModel(sys, erk, initState, dt, name), tea.WithAltScreen()).Start()
}
