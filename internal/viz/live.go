package viz

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/labels"
	"github.com/san-kum/pathtracer/internal/projection"
	"github.com/san-kum/pathtracer/internal/sim"
	"github.com/san-kum/pathtracer/internal/trajectory"
)

const (
	width      = 80
	height     = 24
	minCanvasW = 10
	minCanvasH = 4
	zoomStep   = 0.8
)

type pointMsg dynamo.Point

type stoppedMsg struct{ err error }

// ProjectorFunc compiles the plot transforms with extra projection options.
// (*config.Config).Projector satisfies it.
type ProjectorFunc func(opts ...projection.Option) (*projection.Projector, error)

// Options wires a Model to a run. Buffer must observe the same Scheduler that
// feeds Mailbox, so the trail keeps every emitted point even when the view falls
// behind; the mailbox only tells the view a redraw is due.
type Options struct {
	Title       string
	Description string
	Scheduler   *sim.Scheduler
	Mailbox     *sim.Mailbox
	Buffer      *trajectory.Buffer
	Projector   ProjectorFunc
	Viewport    projection.Viewport
	ParamNames  []string
	Labels      []string
	Theme       string
	Logger      *zap.Logger
}

// Model is the live view. It owns its projector, rebuilt with the trail colours of
// every theme it switches to, and must only be driven by the Bubble Tea program.
type Model struct {
	title, desc string
	sched       *sim.Scheduler
	mailbox     *sim.Mailbox
	buffer      *trajectory.Buffer
	board       *labels.Board
	newProj     ProjectorFunc
	proj        *projection.Projector
	view        projection.Viewport
	paramIndex  map[string]int
	log         *zap.Logger

	canvas   *Canvas
	theme    Theme
	st       styles
	zoom     float64
	graph    int
	received uint64
	err      error
	plotErr  error
	stopped  bool
	quitting bool
}

func NewModel(opts Options) (Model, error) {
	if opts.Scheduler == nil || opts.Mailbox == nil || opts.Buffer == nil || opts.Projector == nil {
		return Model{}, errors.New("viz: scheduler, mailbox, buffer and projector are required")
	}
	if err := opts.Viewport.Validate(); err != nil {
		return Model{}, fmt.Errorf("viz: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	board := labels.New(opts.ParamNames, log)
	_ = board.Add(dynamo.TimeName, false)
	for _, name := range opts.Labels {
		_ = board.Add(name, true)
	}

	idx := make(map[string]int, len(opts.ParamNames))
	for i, name := range opts.ParamNames {
		idx[name] = i
	}

	theme := GetTheme(opts.Theme)
	proj, err := opts.Projector(projection.WithColors(theme.Head, theme.Tail))
	if err != nil {
		return Model{}, fmt.Errorf("viz: %w", err)
	}
	m := Model{
		title:      opts.Title,
		desc:       opts.Description,
		sched:      opts.Scheduler,
		mailbox:    opts.Mailbox,
		buffer:     opts.Buffer,
		board:      board,
		newProj:    opts.Projector,
		proj:       proj,
		view:       opts.Viewport,
		paramIndex: idx,
		log:        log.Named("viz"),
		theme:      theme,
		st:         newStyles(theme),
		zoom:       1,
	}
	if len(opts.Labels) > 0 {
		m.graph = 1
	}
	m.resize(width, height)
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForPoint(m.mailbox, m.sched.Done()), waitForStop(m.sched))
}

// waitForPoint delivers the next mailbox point. Once the run is over it delivers
// the last unread point, if any, and then nothing.
func waitForPoint(mb *sim.Mailbox, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-mb.C():
			return pointMsg(p)
		case <-done:
			select {
			case p := <-mb.C():
				return pointMsg(p)
			default:
				return nil
			}
		}
	}
}

func waitForStop(s *sim.Scheduler) tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: s.Wait()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pointMsg:
		m.board.Update(dynamo.Point(msg))
		m.received++
		m.redraw()
		return m, waitForPoint(m.mailbox, m.sched.Done())
	case stoppedMsg:
		m.stopped = true
		m.err = msg.err
		if m.quitting {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.redraw()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.sched.Stop()
		if m.stopped {
			return m, tea.Quit
		}
	case " ":
		m.sched.Toggle()
	case "tab":
		m.graph++
	case "a":
		m.addLabel()
	case "x":
		m.removeLabel()
	case "+", "=":
		m.zoom *= zoomStep
		m.redraw()
	case "-", "_":
		m.zoom /= zoomStep
		m.redraw()
	case "0":
		m.zoom = 1
		m.redraw()
	case "c":
		m.buffer.Reset()
		m.redraw()
	case "t":
		m.setTheme(nextTheme(m.theme))
		m.redraw()
	}
	return m, nil
}

func (m *Model) setTheme(t Theme) {
	m.theme = t
	m.st = newStyles(t)
	proj, err := m.newProj(projection.WithColors(t.Head, t.Tail))
	if err != nil {
		m.log.Warn("can't recolour trail", zap.String("theme", t.Name), zap.Error(err))
		return
	}
	m.proj = proj
}

// addLabel shows the first available name that is not on the board yet.
func (m *Model) addLabel() {
	shown := make(map[string]bool)
	for _, r := range m.board.Rows() {
		shown[r.Name] = true
	}
	for _, name := range m.board.Available() {
		if !shown[name] {
			_ = m.board.Add(name, true)
			if p, ok := m.buffer.Newest(); ok {
				m.board.Update(p)
			}
			return
		}
	}
}

// removeLabel drops the most recently added removable label.
func (m *Model) removeLabel() {
	rows := m.board.Rows()
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Removable {
			_ = m.board.Remove(rows[i].Name)
			return
		}
	}
}

func (m *Model) resize(w, h int) {
	cw := w - sidebarWidth - 6
	ch := h - 2
	m.canvas = NewCanvas(max(cw, minCanvasW), max(ch, minCanvasH))
}

// viewport is the configured rectangle scaled about its centre by the zoom factor.
func (m *Model) viewport() projection.Viewport {
	cx, cy := (m.view.X1+m.view.X2)/2, (m.view.Y1+m.view.Y2)/2
	hw, hh := m.view.Width()/2*m.zoom, m.view.Height()/2*m.zoom
	return projection.Viewport{X1: cx - hw, Y1: cy - hh, X2: cx + hw, Y2: cy + hh}
}

func (m *Model) redraw() {
	m.canvas.Clear()
	w, h := m.canvas.Dots()
	vp := m.viewport().Fit(w, h)
	m.drawAxes(vp, w, h)

	path, err := m.proj.Path(m.buffer.Points())
	if err != nil {
		if m.plotErr == nil {
			m.log.Warn("can't project trail", zap.Error(err))
		}
		m.plotErr = err
		return
	}
	m.plotErr = nil

	// Oldest segments first so newer ones win shared cells.
	for i := len(path) - 1; i > 0; i-- {
		a, b := path[i], path[i-1]
		x0, y0, ok0 := vp.ToPixel(a.X, a.Y, w, h)
		x1, y1, ok1 := vp.ToPixel(b.X, b.Y, w, h)
		if !ok0 || !ok1 {
			continue
		}
		m.canvas.DrawLine(x0, y0, x1, y1, lipgloss.Color(b.Color.Hex()))
	}
	if len(path) > 0 {
		if x, y, ok := vp.ToPixel(path[0].X, path[0].Y, w, h); ok {
			m.canvas.Set(x, y, lipgloss.Color(path[0].Color.Hex()))
		}
	}
}

// drawAxes dots the world axes when they cross the viewport.
func (m *Model) drawAxes(vp projection.Viewport, w, h int) {
	if vp.X1 < 0 && vp.X2 > 0 {
		if x, _, ok := vp.ToPixel(0, vp.Y1, w, h); ok {
			for y := 0; y < h; y += 2 {
				m.canvas.Set(x, y, m.theme.Axis)
			}
		}
	}
	if vp.Y1 < 0 && vp.Y2 > 0 {
		if _, y, ok := vp.ToPixel(vp.X1, 0, w, h); ok {
			for x := 0; x < w; x += 2 {
				m.canvas.Set(x, y, m.theme.Axis)
			}
		}
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.title.Render(strings.ToUpper(m.title)) + "\n")
	if m.desc != "" {
		s.WriteString(m.st.desc.Render(m.desc) + "\n")
	}
	s.WriteString("\n" + m.status() + "\n\n")

	stats := m.sched.Stats()
	m.row(&s, "Steps", fmt.Sprint(stats.Steps))
	m.row(&s, "Emitted", fmt.Sprint(stats.Emitted))
	m.row(&s, "Frames", fmt.Sprint(m.received))
	m.row(&s, "Dropped", fmt.Sprint(m.mailbox.Dropped()))
	m.row(&s, "Trail", fmt.Sprintf("%d/%d", m.buffer.Len(), m.buffer.Cap()))

	s.WriteString("\nLABELS\n")
	for _, r := range m.board.Rows() {
		name := r.Name
		if !r.Removable {
			name = m.st.fixed.Render(fmt.Sprintf("%-12s", name))
		} else {
			name = m.st.label.Render(name)
		}
		s.WriteString(name + m.st.value.Render(r.Value) + "\n")
	}

	if chart := m.chart(); chart != "" {
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}
	s.WriteString(m.st.help.Render("SP:Run/Pause  Q:Quit  C:Clear\nTAB:Chart  A/X:Labels  T:Theme\n+/-/0:Zoom"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.st.canvas.Render(m.canvas.Render()),
		m.st.sidebar.Render(s.String()))
}

func (m Model) row(s *strings.Builder, label, value string) {
	s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.failed.Render("ERROR") + " " + m.err.Error()
	case m.stopped:
		return m.st.paused.Render("STOPPED")
	case m.quitting:
		return m.st.paused.Render("STOPPING")
	case m.plotErr != nil:
		return m.st.failed.Render("PLOT ERROR") + " " + m.plotErr.Error()
	}
	if m.sched.State() == sim.Running {
		return m.st.running.Render("RUNNING")
	}
	return m.st.paused.Render("PAUSED")
}

// chart plots the selected label over the trail window.
func (m Model) chart() string {
	rows := m.board.Rows()
	if len(rows) == 0 {
		return ""
	}
	name := rows[m.graph%len(rows)].Name
	series := make([]float64, 0, m.buffer.Len())
	complete := true
	m.buffer.Each(func(_ int, p dynamo.Point) bool {
		v, ok := m.value(name, p)
		series = append(series, v)
		complete = ok
		return ok
	})
	if !complete || len(series) < 2 {
		return ""
	}
	slices.Reverse(series)
	return asciigraph.Plot(series,
		asciigraph.Height(4),
		asciigraph.Width(sidebarWidth-14),
		asciigraph.Caption(name))
}

func (m Model) value(name string, p dynamo.Point) (float64, bool) {
	if name == dynamo.TimeName {
		return p.T, true
	}
	i, ok := m.paramIndex[name]
	if !ok || i >= len(p.Params) {
		return 0, false
	}
	return p.Params[i], true
}
