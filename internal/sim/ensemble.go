package sim

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/blobsim/internal/logging"
	"github.com/san-kum/blobsim/internal/world"
)

// Ensemble runs independent seeded worlds concurrently. Each world is
// stepped by exactly one goroutine.
type Ensemble struct {
	build     func(seed int64) *world.World
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	log       *zap.Logger
}

func NewEnsemble(build func(seed int64) *world.World, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		numRuns:   numRuns,
		seedStart: seedStart,
		log:       zap.NewNop(),
	}
}

// WithMetrics sets a factory called once per run, so runs never share
// metric state.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

func (e *Ensemble) WithLogger(log *zap.Logger) *Ensemble {
	e.log = logging.OrNop(log)
	return e
}

// Run returns one result per seed, indexed by seed - seedStart. The first
// failing run cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		i := i
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			r := New(e.build(seed), e.log.With(zap.Int64("seed", seed)))
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}

			res, err := r.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("sim: ensemble seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
