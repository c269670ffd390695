package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravsim/internal/render"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	historyCapacity = 600
	defaultTrail    = 200
	nudge           = 0.05
)

type TickMsg time.Time

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Options configures a viewer.
type Options struct {
	Title        string
	Theme        string
	FPS          int
	StepsPerTick int
	TrailLength  int
}

// Model is a bubbletea model that pulls frames from a render.Source and
// draws them on a braille canvas.
type Model struct {
	src    render.Source
	opts   Options
	cam    *render.Camera
	trails map[string][]mgl64.Vec3

	frame   render.Frame
	hasData bool
	frames  int
	spread  []float64

	width, height int
	theme         int
	styles        styles
	running       bool
	done          bool
	err           error
	showTrails    bool
	showHelp      bool
}

func NewModel(src render.Source, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.StepsPerTick <= 0 {
		opts.StepsPerTick = 1
	}
	if opts.TrailLength <= 0 {
		opts.TrailLength = defaultTrail
	}
	if opts.Title == "" {
		opts.Title = "gravsim"
	}
	theme := themeIndex(opts.Theme)
	return Model{
		src:        src,
		opts:       opts,
		cam:        render.NewCamera(),
		trails:     make(map[string][]mgl64.Vec3),
		spread:     make([]float64, 0, historyCapacity),
		width:      defaultWidth,
		height:     defaultHeight,
		theme:      theme,
		styles:     newStyles(Themes[theme]),
		running:    true,
		showTrails: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick(m.opts.FPS)
}

// Err reports why the source stopped, if it failed.
func (m Model) Err() error { return m.err }

func (m Model) Done() bool { return m.done }

func (m Model) Frame() render.Frame { return m.frame }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, tick(m.opts.FPS)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
		m.styles = newStyles(Themes[m.theme])
	case "c":
		m.showTrails = !m.showTrails
	case "?":
		m.showHelp = !m.showHelp
	case "+", "=":
		m.cam.ZoomIn()
	case "-", "_":
		m.cam.ZoomOut()
	case "left", "h":
		m.cam.Trackball.Nudge(-nudge, 0)
	case "right", "l":
		m.cam.Trackball.Nudge(nudge, 0)
	case "up", "k":
		m.cam.Trackball.Nudge(0, -nudge)
	case "down", "j":
		m.cam.Trackball.Nudge(0, nudge)
	case "0":
		m.cam.Reset()
	}
	return m, nil
}

// handleMouse drags the trackball with the left button. Cell coordinates
// are mapped into [-1, 1] over the canvas.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	cw, ch := m.canvasSize()
	x := 2*float64(msg.X)/float64(cw) - 1
	y := 2*float64(msg.Y)/float64(ch) - 1

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.cam.Trackball.Start(x, y)
		} else if msg.Button == tea.MouseButtonWheelUp {
			m.cam.ZoomIn()
		} else if msg.Button == tea.MouseButtonWheelDown {
			m.cam.ZoomOut()
		}
	case tea.MouseActionMotion:
		if m.cam.Trackball.Active() {
			m.cam.Trackball.Move(x, y)
		}
	case tea.MouseActionRelease:
		if m.cam.Trackball.Active() {
			m.cam.Trackball.End(x, y)
		}
	}
}

// step pulls up to StepsPerTick frames from the source, keeping the last.
func (m *Model) step() {
	for i := 0; i < m.opts.StepsPerTick; i++ {
		f, ok := m.src.NextFrame()
		if !ok {
			m.done = true
			m.err = m.src.Err()
			return
		}
		m.frame, m.hasData = f, true
		m.frames++
		m.record(f)
	}
}

func (m *Model) record(f render.Frame) {
	var ext float64
	for _, in := range f.Instances {
		c := in.Center()
		ext = max(ext, c.Len()*f.Scale)

		tr := append(m.trails[in.Label], c)
		if len(tr) > m.opts.TrailLength {
			tr = tr[len(tr)-m.opts.TrailLength:]
		}
		m.trails[in.Label] = tr
	}
	m.spread = append(m.spread, ext)
	if len(m.spread) > historyCapacity {
		m.spread = m.spread[1:]
	}
}

func (m *Model) reset() {
	m.src.Reset()
	m.cam.Reset()
	m.trails = make(map[string][]mgl64.Vec3)
	m.spread = m.spread[:0]
	m.frame, m.hasData = render.Frame{}, false
	m.frames = 0
	m.done, m.err = false, nil
	m.running = true
}

// canvasSize is the canvas size in cells after the side panel.
func (m Model) canvasSize() (int, int) {
	w := m.width - panelWidth - 6
	h := m.height - 2
	return max(w, 10), max(h, 5)
}

func (m Model) View() string {
	cw, ch := m.canvasSize()
	canvasView := m.styles.canvas.Render(m.drawCanvas(cw, ch))
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.panel.Render(m.panel()))
	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, main, m.styles.muted.Render(helpText))
	}
	return main
}

const helpText = `space pause/resume   r reset        q quit
arrows rotate        drag rotate    +/- zoom
0 reset camera       c trails       t theme`

// drawCanvas renders trails and bodies on separate canvases so each can be
// colored, then overlays them cell by cell.
func (m Model) drawCanvas(cw, ch int) string {
	if !m.hasData {
		return strings.Repeat(strings.Repeat(" ", cw)+"\n", ch)
	}
	// owner[row][col] is the index of the body drawn in that cell, or -1
	owner := make([][]int, ch)
	for row := range owner {
		owner[row] = make([]int, cw)
		for col := range owner[row] {
			owner[row][col] = -1
		}
	}
	bodies := render.NewCanvas(cw, ch)
	for i, in := range m.frame.Instances {
		one := render.NewCanvas(cw, ch)
		render.Draw(one, m.cam, render.Frame{Scale: m.frame.Scale, Instances: []render.Instance{in}}, nil)
		for row := 0; row < ch; row++ {
			for col := 0; col < cw; col++ {
				if r := one.Grid[row][col]; r != blankCell {
					bodies.Grid[row][col] |= r
					owner[row][col] = i
				}
			}
		}
	}

	trails := render.NewCanvas(cw, ch)
	if m.showTrails {
		paths := make([][]mgl64.Vec3, 0, len(m.frame.Instances))
		for _, in := range m.frame.Instances {
			paths = append(paths, m.trails[in.Label])
		}
		render.Draw(trails, m.cam, render.Frame{Scale: m.frame.Scale}, paths)
	}

	theme := Themes[m.theme]
	var b strings.Builder
	for row := 0; row < ch; row++ {
		var run []rune
		cur := -1
		flush := func() {
			if len(run) == 0 {
				return
			}
			if cur >= 0 {
				b.WriteString(lipgloss.NewStyle().Foreground(theme.BodyColor(cur)).Render(string(run)))
			} else {
				b.WriteString(m.styles.trail.Render(string(run)))
			}
			run = run[:0]
		}
		for col := 0; col < cw; col++ {
			if o := owner[row][col]; o != cur {
				flush()
				cur = o
			}
			run = append(run, bodies.Grid[row][col]|trails.Grid[row][col])
		}
		flush()
		b.WriteString("\n")
	}
	return b.String()
}

const blankCell = rune(0x2800)

func (m Model) panel() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	switch {
	case m.err != nil:
		b.WriteString(s.warning.Render("FAILED") + "\n")
	case m.done:
		b.WriteString(s.muted.Render("FINISHED") + "\n")
	case !m.running:
		b.WriteString(s.warning.Render("PAUSED") + "\n")
	default:
		b.WriteString(s.accent.Render(spinner(m.frames)+" RUNNING") + "\n")
	}
	b.WriteString(s.muted.Render(separator(panelWidth-4)) + "\n")

	b.WriteString(s.row("t", fmt.Sprintf("%.2f", m.frame.T)))
	b.WriteString(s.row("steps", fmt.Sprintf("%d", m.frames)))
	b.WriteString(s.row("scale", fmt.Sprintf("%.3g", m.frame.Scale)))
	b.WriteString(s.row("zoom", fmt.Sprintf("%.2fx", m.cam.Zoom)))
	b.WriteString(s.row("theme", Themes[m.theme].Name))

	if len(m.spread) > 1 {
		chart := asciigraph.Plot(m.spread, asciigraph.Height(4), asciigraph.Width(panelWidth-12), asciigraph.Caption("spread"))
		b.WriteString("\n" + s.graph.Render(chart) + "\n")
	}

	b.WriteString("\n")
	for i, in := range m.frame.Instances {
		dot := lipgloss.NewStyle().Foreground(Themes[m.theme].BodyColor(i)).Render("●")
		p := in.Position
		b.WriteString(fmt.Sprintf("%s %-8s %s\n", dot, in.Label, s.muted.Render(fmt.Sprintf("%.3g %.3g %.3g", p[0], p[1], p[2]))))
	}
	if m.err != nil {
		b.WriteString("\n" + s.warning.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + s.muted.Render("? help  q quit"))
	return b.String()
}
