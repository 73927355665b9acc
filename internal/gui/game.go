// Package gui runs a blob world in a desktop window. Each frame the
// world rasterizes itself into an RGBA8 buffer that is copied straight
// onto the screen.
package gui

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/san-kum/blobsim/internal/config"
	"github.com/san-kum/blobsim/internal/logging"
	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/vmath"
	"github.com/san-kum/blobsim/internal/world"
)

const (
	DefaultScale = 2
	DefaultTPS   = 60
	// maxStep bounds a single wall-clock step, e.g. after the window was
	// dragged or the process stopped.
	maxStep = 100 * time.Millisecond
)

type Options struct {
	Title       string
	Scale       int
	TPS         int
	Reloader    sim.Reloader
	ReloadEvery time.Duration
	Log         *zap.Logger
}

type Game struct {
	world       *world.World
	frame       []byte
	pixels      []byte
	scale       int
	paused      bool
	last        time.Time
	now         func() time.Time
	sinceReload time.Duration
	reloader    sim.Reloader
	reloadEvery time.Duration
	log         *zap.Logger
}

func New(w *world.World, opts Options) *Game {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Game{
		world:       w,
		frame:       make([]byte, w.FrameSize()),
		pixels:      make([]byte, w.FrameSize()),
		scale:       scale,
		now:         time.Now,
		reloader:    opts.Reloader,
		reloadEvery: opts.ReloadEvery,
		log:         logging.OrNop(opts.Log),
	}
}

// Update handles input and advances the world by the wall-clock time
// since the previous call.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.AddBlobAt(ebiten.CursorPosition())
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonRight) {
		g.Inspect(ebiten.CursorPosition())
	}

	now := g.now()
	if g.last.IsZero() {
		g.last = now
	}
	elapsed := now.Sub(g.last)
	g.last = now

	g.Advance(elapsed)
	return nil
}

// Advance polls the config source and steps the world by elapsed.
func (g *Game) Advance(elapsed time.Duration) {
	g.pollConfig(elapsed)
	if g.paused || elapsed <= 0 {
		return
	}
	g.world.Update(min(elapsed, maxStep).Seconds())
}

func (g *Game) pollConfig(elapsed time.Duration) {
	if g.reloader == nil || g.reloadEvery <= 0 {
		return
	}
	g.sinceReload += elapsed
	if g.sinceReload < g.reloadEvery {
		return
	}
	g.sinceReload = 0

	next, changed, err := g.reloader.Reload()
	if err != nil {
		g.log.Warn("config reload failed", zap.Error(err))
		return
	}
	if !changed {
		return
	}
	for _, c := range config.Diff(g.world.Config(), next) {
		g.log.Info("config changed", zap.String("field", c.Field), zap.Any("old", c.Old), zap.Any("new", c.New))
	}
	g.world.SetConfig(next)
}

// AddBlobAt adds a blob at the given cursor position. Cursor positions
// are in layout units, which are arena units since Layout returns the
// arena size.
func (g *Game) AddBlobAt(x, y int) {
	wx, wy := float64(x), float64(y)
	g.world.AddBlob(wx, wy)
	g.log.Debug("blob added", zap.Float64("x", wx), zap.Float64("y", wy), zap.Int("blobs", g.world.Len()))
}

// Inspect logs the blob under the given cursor position, if any.
func (g *Game) Inspect(x, y int) (world.Blob, bool) {
	i, ok := g.world.BlobAt(vmath.Vector2f{X: float64(x), Y: float64(y)})
	if !ok {
		return world.Blob{}, false
	}
	b := g.world.Blobs()[i]
	g.log.Info("blob",
		zap.Int("id", b.ID),
		zap.Stringer("position", b.Position),
		zap.Stringer("velocity", b.Velocity),
		zap.Stringer("acceleration", b.Acceleration))
	return b, true
}

// Draw rasterizes the world and re-strides the frame from rows of arena
// height to the rows of arena width that WritePixels reads.
func (g *Game) Draw(screen *ebiten.Image) {
	g.world.Draw(g.frame)
	restride(g.pixels, g.frame, g.world.Height(), g.world.Width())
	screen.WritePixels(g.pixels)
}

// restride copies RGBA8 pixels from src, laid out with srcStride pixels
// per row, into dst with dstStride pixels per row. Pixels whose column
// does not fit dst are dropped; dst is cleared first.
func restride(dst, src []byte, srcStride, dstStride int) {
	clear(dst)
	if srcStride <= 0 || dstStride <= 0 {
		return
	}
	for i := 0; i+4 <= len(src); i += 4 {
		k := i / 4
		px, py := k%srcStride, k/srcStride
		if px >= dstStride {
			continue
		}
		j := (py*dstStride + px) * 4
		if j+4 > len(dst) {
			continue
		}
		copy(dst[j:j+4], src[i:i+4])
	}
}

// Layout fixes the logical screen to the arena; ebiten scales it to the
// window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.world.Width(), g.world.Height()
}

func (g *Game) Paused() bool { return g.paused }

// Run opens the window and blocks until it is closed or Escape is pressed.
// Arenas wider than they are tall show blobs past column Height() on the
// next row, since World.Draw strides rows by the arena height.
func Run(w *world.World, opts Options) error {
	g := New(w, opts)

	title := opts.Title
	if title == "" {
		title = "blobsim"
	}
	tps := opts.TPS
	if tps <= 0 {
		tps = DefaultTPS
	}

	ebiten.SetWindowSize(w.Width()*g.scale, w.Height()*g.scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(tps)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("gui: %w", err)
	}
	return nil
}
