package viz

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pathtracer/internal/config"
	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/integrators"
	"github.com/san-kum/pathtracer/internal/labels"
	"github.com/san-kum/pathtracer/internal/projection"
	"github.com/san-kum/pathtracer/internal/sim"
	"github.com/san-kum/pathtracer/internal/trajectory"
)

type fixture struct {
	cfg     *config.Config
	stepper *integrators.Stepper
	sched   *sim.Scheduler
	mailbox *sim.Mailbox
	buffer  *trajectory.Buffer
	project ProjectorFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.GetPreset("oscillator")
	st, err := cfg.Stepper()
	require.NoError(t, err)

	f := &fixture{
		cfg:     cfg,
		stepper: st,
		mailbox: sim.NewMailbox(),
		buffer:  trajectory.New(cfg.Plot.MaxSegments),
		project: cfg.Projector,
	}
	f.sched, err = sim.New(st, cfg.SchedulerOptions(nil), f.buffer, f.mailbox)
	require.NoError(t, err)
	t.Cleanup(f.sched.Stop)
	return f
}

func (f *fixture) options() Options {
	return Options{
		Title:       f.cfg.Name,
		Description: f.cfg.Description,
		Scheduler:   f.sched,
		Mailbox:     f.mailbox,
		Buffer:      f.buffer,
		Projector:   f.project,
		Viewport:    f.cfg.Viewport(),
		ParamNames:  f.cfg.ParameterNames(),
		Labels:      f.cfg.Plot.LabelParameters,
	}
}

func (f *fixture) model(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(f.options())
	require.NoError(t, err)
	return m
}

// advance computes n steps into the buffer and returns the last one.
func (f *fixture) advance(t *testing.T, n int) dynamo.Point {
	t.Helper()
	var p dynamo.Point
	for i := 0; i < n; i++ {
		var err error
		p, err = f.stepper.CalculateStep()
		require.NoError(t, err)
		f.buffer.Push(p)
	}
	return p
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "got %T", next)
	return nm, cmd
}

func lit(c *Canvas) int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				n++
			}
		}
	}
	return n
}

func TestNewModel_RequiresWiring(t *testing.T) {
	_, err := NewModel(Options{})
	assert.Error(t, err)

	f := newFixture(t)
	opts := f.options()
	opts.Viewport = projection.Viewport{X1: 1, X2: 1, Y1: 0, Y2: 1}
	_, err = NewModel(opts)
	assert.Error(t, err)
}

func TestModel_InitialView(t *testing.T) {
	m := newFixture(t).model(t)

	view := m.View()
	assert.Contains(t, view, "OSCILLATOR")
	assert.Contains(t, view, "PAUSED")
	assert.Contains(t, view, labels.Placeholder)
	assert.NotNil(t, m.Init())
}

func TestModel_PointUpdatesLabelsAndTrail(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	p := f.advance(t, 20)

	m, cmd := update(t, m, pointMsg(p))
	assert.NotNil(t, cmd)

	rows := m.board.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "t", rows[0].Name)
	assert.False(t, rows[0].Removable)
	assert.Equal(t, "1", rows[0].Value)
	assert.Equal(t, "energy", rows[1].Name)
	assert.NotEqual(t, labels.Placeholder, rows[1].Value)

	assert.Greater(t, lit(m.canvas), 0)
	assert.NoError(t, m.plotErr)
	assert.Contains(t, m.View(), "energy")
}

func TestModel_SpaceTogglesRun(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m, _ = update(t, m, key(" "))
	assert.Equal(t, sim.Running, f.sched.State())
	assert.Contains(t, m.View(), "RUNNING")

	m, _ = update(t, m, key(" "))
	assert.Equal(t, sim.Suspended, f.sched.State())
	assert.Contains(t, m.View(), "PAUSED")
}

func TestModel_QuitStopsThenExits(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.Start(context.Background()))
	m := f.model(t)

	m, cmd := update(t, m, key("q"))
	assert.Nil(t, cmd)
	assert.True(t, m.quitting)

	msg := waitForStop(f.sched)()
	assert.Equal(t, stoppedMsg{}, msg)
	assert.Equal(t, sim.Stopped, f.sched.State())

	m, cmd = update(t, m, msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "STOPPED")

	_, cmd = update(t, m, key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_ShowsRunError(t *testing.T) {
	m := newFixture(t).model(t)

	m, cmd := update(t, m, stoppedMsg{err: errors.New("sim: undefined operation")})
	assert.Nil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "ERROR")
	assert.Contains(t, view, "undefined operation")
}

func TestModel_ShowsPlotError(t *testing.T) {
	f := newFixture(t)
	f.project = func(opts ...projection.Option) (*projection.Projector, error) {
		opts = append(opts, projection.WithVariables(f.cfg.VariableNames()))
		return projection.New("x", "sqrt(x - 100)", f.cfg.ParameterNames(), opts...)
	}
	m := f.model(t)

	m, _ = update(t, m, pointMsg(f.advance(t, 3)))
	assert.ErrorIs(t, m.plotErr, dynamo.ErrEvaluation)
	assert.Contains(t, m.View(), "PLOT ERROR")
}

func TestWaitForPoint(t *testing.T) {
	f := newFixture(t)
	f.mailbox.OnPoint(dynamo.Point{T: 2})

	msg := waitForPoint(f.mailbox, f.sched.Done())()
	p, ok := msg.(pointMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, 2.0, p.T)

	f.mailbox.OnPoint(dynamo.Point{T: 3})
	f.sched.Stop()
	msg = waitForPoint(f.mailbox, f.sched.Done())()
	assert.Equal(t, 3.0, msg.(pointMsg).T)
	assert.Nil(t, waitForPoint(f.mailbox, f.sched.Done())())
}

func TestModel_LabelKeys(t *testing.T) {
	m := newFixture(t).model(t)
	names := func() []string {
		var out []string
		for _, r := range m.board.Rows() {
			out = append(out, r.Name)
		}
		return out
	}

	m, _ = update(t, m, key("a"))
	assert.Equal(t, []string{"t", "energy", "omega"}, names())
	m, _ = update(t, m, key("a"))
	assert.Equal(t, []string{"t", "energy", "omega"}, names())

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, key("x"))
	}
	assert.Equal(t, []string{"t"}, names())
}

func TestModel_ZoomAndClear(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	m, _ = update(t, m, pointMsg(f.advance(t, 10)))

	full := m.viewport()
	m, _ = update(t, m, key("+"))
	zoomed := m.viewport()
	assert.InDelta(t, full.Width()*zoomStep, zoomed.Width(), 1e-12)
	assert.InDelta(t, (full.X1+full.X2)/2, (zoomed.X1+zoomed.X2)/2, 1e-12)

	m, _ = update(t, m, key("0"))
	assert.Equal(t, full, m.viewport())

	m, _ = update(t, m, key("c"))
	assert.Zero(t, f.buffer.Len())
}

func TestModel_ChartFollowsSelectedLabel(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	assert.Empty(t, m.chart())

	m, _ = update(t, m, pointMsg(f.advance(t, 30)))
	assert.Contains(t, m.chart(), "energy")

	m, _ = update(t, m, key("tab"))
	assert.Contains(t, m.chart(), "t")
}

func TestModel_WindowResize(t *testing.T) {
	m := newFixture(t).model(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120-sidebarWidth-6, m.canvas.Width)
	assert.Equal(t, 38, m.canvas.Height)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 3})
	assert.Equal(t, minCanvasW, m.canvas.Width)
	assert.Equal(t, minCanvasH, m.canvas.Height)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, []string{"cyberpunk", "retro", "ocean"}, ThemeNames())
	assert.Equal(t, "ocean", GetTheme("ocean").Name)
	assert.Equal(t, "cyberpunk", GetTheme("nope").Name)

	f := newFixture(t)
	m := f.model(t)
	m, _ = update(t, m, pointMsg(f.advance(t, 10)))
	assert.True(t, hasColor(m.canvas, GetTheme("cyberpunk").Head))

	m, _ = update(t, m, key("t"))
	assert.Equal(t, "retro", m.theme.Name)
	assert.True(t, hasColor(m.canvas, GetTheme("retro").Head), "trail not recoloured")
	assert.False(t, hasColor(m.canvas, GetTheme("cyberpunk").Head))
	assert.True(t, strings.Contains(m.View(), "OSCILLATOR"))
}

func TestNewModel_ProjectorError(t *testing.T) {
	f := newFixture(t)
	f.project = func(...projection.Option) (*projection.Projector, error) {
		return projection.New("x +", "y", nil)
	}
	_, err := NewModel(f.options())
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)
}

func hasColor(c *Canvas, col colorful.Color) bool {
	want := lipgloss.Color(col.Hex())
	for _, row := range c.Colors {
		for _, got := range row {
			if got == want {
				return true
			}
		}
	}
	return false
}
