// Package analysis looks at metric series recorded over a run.
//
// [Spectrum] returns the magnitude spectrum of a series, zero padded to a
// power of two, and [DominantFrequency] picks its strongest non-DC bin:
//
//	f := analysis.DominantFrequency(speeds, dt)
//	if f > 0 {
//	    // blobs oscillate about once every 1/f seconds
//	}
package analysis
