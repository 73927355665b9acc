package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/blobsim/internal/config"
	"github.com/san-kum/blobsim/internal/logging"
	"github.com/san-kum/blobsim/internal/metrics"
	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/world"
)

const (
	canvasCols      = 80
	canvasRows      = 24
	historyCapacity = 600
	tuneStep        = 1.05
)

type TickMsg time.Time

// param is a physics constant the live view can tune.
type param struct {
	name string
	get  func(world.Config) float64
	set  func(*world.Config, float64)
}

var tunable = []param{
	{"repel_force", func(c world.Config) float64 { return c.RepelForce }, func(c *world.Config, v float64) { c.RepelForce = v }},
	{"repel_dist", func(c world.Config) float64 { return c.RepelDistance }, func(c *world.Config, v float64) { c.RepelDistance = v }},
	{"friction", func(c world.Config) float64 { return c.FrictionForce }, func(c *world.Config, v float64) { c.FrictionForce = v }},
	{"min_accel", func(c world.Config) float64 { return c.MinAcceleration }, func(c *world.Config, v float64) { c.MinAcceleration = v }},
	{"max_accel", func(c world.Config) float64 { return c.MaxAcceleration }, func(c *world.Config, v float64) { c.MaxAcceleration = v }},
}

type Options struct {
	// FPS is both the redraw rate and, through Dt = 1/FPS, the step size.
	FPS         int
	Reloader    sim.Reloader
	ReloadEvery time.Duration
	RecordPath  string
	Log         *zap.Logger
}

// Model owns a world and steps it once per tick.
type Model struct {
	world         *world.World
	initial       []world.Blob
	initialCfg    world.Config
	frame         []byte
	canvas        *Canvas
	fps           int
	dt, t         float64
	running       bool
	selected      int
	energyHistory []float64
	spreadHistory []float64
	sinceReload   float64
	reloader      sim.Reloader
	reloadEvery   time.Duration
	recorder      *Recorder
	recording     bool
	recordPath    string
	showHelp      bool
	log           *zap.Logger
}

// NewModel wraps w. The population present now is what R restores.
func NewModel(w *world.World, opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	path := opts.RecordPath
	if path == "" {
		path = "blobsim.gif"
	}

	initial := make([]world.Blob, len(w.Blobs()))
	copy(initial, w.Blobs())

	return Model{
		world:         w,
		initial:       initial,
		initialCfg:    w.Config(),
		frame:         make([]byte, w.FrameSize()),
		canvas:        NewCanvas(canvasCols, canvasRows),
		fps:           fps,
		dt:            1 / float64(fps),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		spreadHistory: make([]float64, 0, historyCapacity),
		reloader:      opts.Reloader,
		reloadEvery:   opts.ReloadEvery,
		recorder:      NewRecorder(max(1, 100/fps)),
		recordPath:    path,
		recording:     opts.RecordPath != "",
		log:           logging.OrNop(opts.Log),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "a":
			m.world.AddRandomBlob()
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(tunable)
		case "up", "k":
			m.adjustParam(tuneStep)
		case "down", "j":
			m.adjustParam(1 / tuneStep)
		case "t":
			NextTheme()
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.frame, m.world.Height())
		}
		return m, m.tick()
	}
	return m, nil
}

// step polls the reloader, advances the world by one tick and records
// the observables.
func (m *Model) step() {
	if m.reloader != nil && m.reloadEvery > 0 {
		m.sinceReload += m.dt
		if m.sinceReload >= m.reloadEvery.Seconds() {
			m.sinceReload = 0
			m.reload()
		}
	}

	m.world.Update(m.dt)
	m.t += m.dt

	m.energyHistory = appendCapped(m.energyHistory, metrics.TotalKineticEnergy(m.world))
	m.spreadHistory = appendCapped(m.spreadHistory, metrics.MeanDistanceFromCentroid(m.world.Blobs()))
}

func (m *Model) reload() {
	next, changed, err := m.reloader.Reload()
	if err != nil {
		m.log.Warn("config reload failed", zap.Error(err))
		return
	}
	if !changed {
		return
	}
	for _, c := range config.Diff(m.world.Config(), next) {
		m.log.Info("config changed", zap.String("field", c.Field), zap.Any("new", c.New))
	}
	m.world.SetConfig(next)
}

func appendCapped(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > historyCapacity {
		history = history[1:]
	}
	return history
}

func (m *Model) adjustParam(factor float64) {
	p := tunable[m.selected]
	cfg := m.world.Config()
	v := p.get(cfg) * factor
	if v == 0 && factor > 1 {
		v = 0.1
	}
	p.set(&cfg, v)
	if err := cfg.Validate(); err != nil {
		m.log.Debug("rejected tuning", zap.String("param", p.name), zap.Error(err))
		return
	}
	m.world.SetConfig(cfg)
}

// reset restores the initial population and constants.
func (m *Model) reset() {
	m.world.SetConfig(m.initialCfg)
	m.world.Reset()
	for _, b := range m.initial {
		m.world.AddBlob(b.Position.X, b.Position.Y)
	}
	copy(m.world.Blobs(), m.initial)
	m.t = 0
	m.sinceReload = 0
	m.energyHistory = m.energyHistory[:0]
	m.spreadHistory = m.spreadHistory[:0]
}

func (m *Model) stopRecording() {
	m.recording = false
	if err := m.recorder.Save(m.recordPath); err != nil {
		m.log.Warn("gif not saved", zap.Error(err))
		return
	}
	m.log.Info("gif saved", zap.String("path", m.recordPath))
}

// draw rasterizes the world and downsamples the frame onto the canvas.
func (m *Model) draw() {
	m.world.Draw(m.frame)
	m.canvas.Clear()

	stride := m.world.Height()
	if stride <= 0 {
		return
	}
	rows := len(m.frame) / 4 / stride
	sx := float64(m.canvas.Width*2) / float64(stride)
	sy := float64(m.canvas.Height*4) / float64(max(rows, 1))
	m.canvas.DrawFrame(m.frame, stride, sx, sy)
	m.canvas.DrawBorder()
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(canvasColor().Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(headerStyle().Render("BLOBSIM") + "\n")

	switch {
	case m.recording:
		s.WriteString(StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len())))
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING"))
	default:
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	energy := 0.0
	if n := len(m.energyHistory); n > 0 {
		energy = m.energyHistory[n-1]
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Blobs") + valueStyle.Render(fmt.Sprintf("%d", m.world.Len())) + "\n")
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.2f", energy)) + "\n")
	s.WriteString(labelStyle.Render("Spread") + SparklineChart(m.spreadHistory, 20) + "\n")
	s.WriteString(labelStyle.Render("Friction") + valueStyle.Render(string(m.world.Config().Friction)) + "\n")

	s.WriteString("\nPARAMETERS\n")
	cfg := m.world.Config()
	for i, p := range tunable {
		val := p.get(cfg)
		line := fmt.Sprintf("%-12s %s %.2f", p.name, ParamBar(val, p.get(m.initialCfg), 10), val)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + paramStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause A:Add R:Reset Q:Quit\nT:Theme  G:Record ?:Help\nTab:Select ↑↓:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  A        - Add a random blob        ║
║  R        - Reset population         ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// World exposes the simulated world, mainly for tests.
func (m Model) World() *world.World { return m.world }

// Run starts the live view in the alternate screen and blocks until quit.
func Run(w *world.World, opts Options) error {
	_, err := tea.NewProgram(NewModel(w, opts), tea.WithAltScreen()).Run()
	return err
}
