package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/blobsim/internal/config"
	"github.com/san-kum/blobsim/internal/logging"
	"github.com/san-kum/blobsim/internal/world"
)

// Runner drives a world headlessly with a fixed timestep.
type Runner struct {
	world       *world.World
	log         *zap.Logger
	metrics     []Metric
	observers   []Observer
	reloader    Reloader
	reloadEvery time.Duration
}

func New(w *world.World, log *zap.Logger) *Runner {
	return &Runner{
		world:     w,
		log:       logging.OrNop(log),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) World() *world.World    { return r.world }
func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// SetReloader polls rl each time simulated time advances by every.
func (r *Runner) SetReloader(rl Reloader, every time.Duration) {
	r.reloader = rl
	r.reloadEvery = every
}

func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	every := cfg.SnapshotEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Snapshots: make([]Snapshot, 0, steps/every+2),
		Times:     make([]float64, 0, steps/every+2),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	t := 0.0
	dt := cfg.Dt
	sinceReload := 0.0
	invalid := false

	result.Snapshots = append(result.Snapshots, Capture(r.world))
	result.Times = append(result.Times, t)

	r.log.Debug("run started",
		zap.Int("blobs", r.world.Len()),
		zap.Int("steps", steps),
		zap.Float64("dt", dt))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if r.reloader != nil && r.reloadEvery > 0 {
			sinceReload += dt
			if sinceReload >= r.reloadEvery.Seconds() {
				sinceReload = 0
				r.reload()
			}
		}

		r.world.Update(dt)
		t += dt
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(r.world, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(r.world, t)
		}

		if !invalid {
			if id, ok := firstInvalid(r.world); ok {
				invalid = true
				err := &StepError{Step: i, Time: t, BlobID: id, Wrapped: ErrInvalidState}
				result.Errors = append(result.Errors, err)
				r.log.Warn("non-finite blob state", zap.Error(err))
				if cfg.StopOnInvalid {
					result.Snapshots = append(result.Snapshots, Capture(r.world))
					result.Times = append(result.Times, t)
					break
				}
			}
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.Snapshots = append(result.Snapshots, Capture(r.world))
			result.Times = append(result.Times, t)
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	r.log.Debug("run finished",
		zap.Int("steps_taken", result.StepsTaken),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// reload applies a changed configuration at the tick boundary and logs
// each changed constant.
func (r *Runner) reload() {
	next, changed, err := r.reloader.Reload()
	if err != nil {
		r.log.Warn("config reload failed", zap.Error(err))
		return
	}
	if !changed {
		return
	}
	for _, c := range config.Diff(r.world.Config(), next) {
		r.log.Info("config changed",
			zap.String("field", c.Field),
			zap.Any("old", c.Old),
			zap.Any("new", c.New))
	}
	r.world.SetConfig(next)
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot interval must not be negative, got %d", ErrInvalidConfig, cfg.SnapshotEvery)
	}
	return nil
}

func firstInvalid(w *world.World) (int, bool) {
	for _, b := range w.Blobs() {
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return b.ID, true
		}
	}
	return 0, false
}
