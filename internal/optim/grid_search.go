// Package optim searches physics constants for the values that minimise
// a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/world"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

var setters = map[string]func(c *world.Config, v float64){
	"blob_size":        func(c *world.Config, v float64) { c.BlobSize = v },
	"repel_force":      func(c *world.Config, v float64) { c.RepelForce = v },
	"repel_distance":   func(c *world.Config, v float64) { c.RepelDistance = v },
	"friction_force":   func(c *world.Config, v float64) { c.FrictionForce = v },
	"max_acceleration": func(c *world.Config, v float64) { c.MaxAcceleration = v },
	"min_acceleration": func(c *world.Config, v float64) { c.MinAcceleration = v },
}

// Params lists the constants a grid search can vary.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := setters[p]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs build(cfg) for every grid point with base as the starting
// config and returns the trial with the lowest value of metricName.
// Points whose config is invalid, or whose metric is not finite, are
// skipped. The best trial has nil Params if nothing could be evaluated.
func (g *GridSearch) Search(
	ctx context.Context,
	base world.Config,
	build func(cfg world.Config) *world.World,
	metrics func() []sim.Metric,
	metricName string,
	runCfg sim.Config,
) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), func(cfg world.Config, params map[string]float64) error {
		if cfg.Validate() != nil {
			return nil
		}

		r := sim.New(build(cfg), nil)
		for _, m := range metrics() {
			r.AddMetric(m)
		}
		result, err := r.Run(ctx, runCfg)
		if err != nil {
			return err
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: no metric %q", metricName)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}

		trials = append(trials, Trial{Params: params, Value: val})
		if val < best.Value {
			best = Trial{Params: params, Value: val}
		}
		return nil
	})
	if err != nil {
		return Trial{}, nil, err
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	cfg world.Config,
	current map[string]float64,
	eval func(world.Config, map[string]float64) error,
) error {
	if depth == len(g.paramNames) {
		return eval(cfg, current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		if err := ctx.Err(); err != nil {
			return err
		}

		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		next := cfg
		setters[paramName](&next, val)
		if err := g.searchRecursive(ctx, depth+1, next, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
