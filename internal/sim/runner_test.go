package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/blobsim/internal/vmath"
	"github.com/san-kum/blobsim/internal/world"
)

func newTestWorld(seed int64, blobs int) *world.World {
	w := world.NewSeeded(100, 100, world.DefaultConfig(), seed)
	w.AddRandomBlobs(blobs)
	return w
}

type countMetric struct {
	samples int
	lastT   float64
}

func (c *countMetric) Observe(w *world.World, t float64) {
	c.samples++
	c.lastT = t
}

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Value() float64 { return float64(c.samples) }
func (c *countMetric) Reset()         { c.samples = 0 }

type countObserver struct{ calls int }

func (c *countObserver) OnStep(w *world.World, t float64) { c.calls++ }

type fakeReloader struct {
	cfg   world.Config
	calls int
	err   error
}

func (f *fakeReloader) Reload() (world.Config, bool, error) {
	f.calls++
	if f.err != nil {
		return world.Config{}, false, f.err
	}
	return f.cfg, f.calls == 1, nil
}

func TestRunnerRun(t *testing.T) {
	r := New(newTestWorld(1, 5), nil)

	result, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Snapshots) != 11 {
		t.Errorf("expected 11 snapshots, got %d", len(result.Snapshots))
	}
	if len(result.Times) != len(result.Snapshots) {
		t.Errorf("times and snapshots differ in length: %d vs %d", len(result.Times), len(result.Snapshots))
	}
	if math.Abs(result.Times[len(result.Times)-1]-1.0) > 1e-9 {
		t.Errorf("expected final time 1.0, got %f", result.Times[len(result.Times)-1])
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	for _, snap := range result.Snapshots {
		if len(snap) != 5 {
			t.Fatalf("expected 5 blobs per snapshot, got %d", len(snap))
		}
	}
}

func TestRunnerSnapshotEvery(t *testing.T) {
	r := New(newTestWorld(1, 3), nil)

	result, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0, SnapshotEvery: 4})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []float64{0, 0.4, 0.8, 1.0}
	if len(result.Times) != len(want) {
		t.Fatalf("expected %d snapshots, got %d (%v)", len(want), len(result.Times), result.Times)
	}
	for i, w := range want {
		if math.Abs(result.Times[i]-w) > 1e-9 {
			t.Errorf("snapshot %d at t=%f, want %f", i, result.Times[i], w)
		}
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	r := New(newTestWorld(1, 1), nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"negative snapshot interval", Config{Dt: 0.1, Duration: 1.0, SnapshotEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRunnerCanceled(t *testing.T) {
	r := New(newTestWorld(1, 2), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected partial result with no steps, got %+v", result)
	}
}

func TestRunnerMetricsAndObservers(t *testing.T) {
	r := New(newTestWorld(2, 4), nil)
	m := &countMetric{samples: 99}
	obs := &countObserver{}
	r.AddMetric(m)
	r.AddObserver(obs)

	result, err := r.Run(context.Background(), Config{Dt: 0.125, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Metrics["count"] != float64(result.StepsTaken) {
		t.Errorf("metric saw %v ticks, want %d", result.Metrics["count"], result.StepsTaken)
	}
	if obs.calls != result.StepsTaken {
		t.Errorf("observer saw %d ticks, want %d", obs.calls, result.StepsTaken)
	}
	if math.Abs(m.lastT-1.0) > 1e-9 {
		t.Errorf("last observation at t=%f, want 1.0", m.lastT)
	}
}

func coincidentWorld() *world.World {
	cfg := world.DefaultConfig()
	cfg.SkipCoincident = false
	w := world.New(100, 100, cfg)
	w.AddBlob(50, 50)
	w.AddBlob(50, 50)
	return w
}

func TestRunnerStopOnInvalid(t *testing.T) {
	r := New(coincidentWorld(), nil)

	result, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0, StopOnInvalid: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 1 {
		t.Errorf("expected run to stop after 1 step, took %d", result.StepsTaken)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}

	err = result.Errors[0]
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != 0 || stepErr.BlobID != 0 {
		t.Errorf("unexpected step error context: %+v", stepErr)
	}
	if result.Final().IsValid() {
		t.Error("final snapshot should hold the invalid state")
	}
}

func TestRunnerReportsInvalidOnce(t *testing.T) {
	r := New(coincidentWorld(), nil)

	result, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected all 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected a single error, got %d", len(result.Errors))
	}
}

func TestRunnerReload(t *testing.T) {
	w := newTestWorld(3, 2)
	next := world.DefaultConfig()
	next.RepelForce = 123

	rl := &fakeReloader{cfg: next}
	r := New(w, nil)
	r.SetReloader(rl, 200*time.Millisecond)

	if _, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rl.calls == 0 {
		t.Fatal("reloader never polled")
	}
	if rl.calls >= 10 {
		t.Errorf("reloader polled every tick (%d calls)", rl.calls)
	}
	if w.Config().RepelForce != 123 {
		t.Errorf("expected reloaded repel force 123, got %f", w.Config().RepelForce)
	}
}

func TestRunnerReloadError(t *testing.T) {
	w := newTestWorld(3, 2)
	before := w.Config()
	r := New(w, nil)
	r.SetReloader(&fakeReloader{err: errors.New("boom")}, 100*time.Millisecond)

	if _, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 0.5}); err != nil {
		t.Fatalf("reload errors must not fail the run: %v", err)
	}
	if w.Config() != before {
		t.Error("config changed despite reload error")
	}
}

func TestCapture(t *testing.T) {
	w := world.New(10, 10, world.DefaultConfig())
	w.AddBlob(1, 2)
	w.Blobs()[0].Velocity = vmath.Vector2f{X: 3, Y: 4}

	snap := Capture(w)
	w.Blobs()[0].Position = vmath.Vector2f{X: 9, Y: 9}

	if snap[0].Position != (vmath.Vector2f{X: 1, Y: 2}) {
		t.Errorf("capture must copy, got %v", snap[0].Position)
	}
	if snap[0].Velocity != (vmath.Vector2f{X: 3, Y: 4}) {
		t.Errorf("unexpected velocity %v", snap[0].Velocity)
	}
	if !snap.IsValid() {
		t.Error("finite snapshot reported invalid")
	}

	snap[0].Velocity.X = math.Inf(1)
	if snap.IsValid() {
		t.Error("snapshot with Inf reported valid")
	}
}

func TestResultFinal(t *testing.T) {
	var r Result
	if r.Final() != nil {
		t.Error("empty result should have no final snapshot")
	}
}
