// Package metrics provides per-tick observables of a blob world for the
// headless runner.
package metrics

import "github.com/san-kum/blobsim/internal/sim"

var (
	_ sim.Metric = (*KineticEnergy)(nil)
	_ sim.Metric = (*MeanSpeed)(nil)
	_ sim.Metric = (*Spread)(nil)
	_ sim.Metric = (*Containment)(nil)
)

// Default returns a fresh set of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewMeanSpeed(),
		NewContainment(),
		NewSpread(),
	}
}
