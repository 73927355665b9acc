package analysis

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform. len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Spectrum returns |X[k]| for the lower half of the padded transform, after
// removing the mean. Non-finite samples are treated as zero.
func Spectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}

	var mean float64
	n := 0
	for _, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			mean += v
			n++
		}
	}
	if n > 0 {
		mean /= float64(n)
	}

	padded := make([]float64, nextPow2(len(series)))
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		padded[i] = v - mean
	}

	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantFrequency returns the frequency in hertz of the strongest non-DC
// component of a series sampled every dt seconds, or 0 when there is none.
func DominantFrequency(series []float64, dt float64) float64 {
	ps := Spectrum(series)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	best, bestIdx := 0.0, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, bestIdx = ps[k], k
		}
	}
	if bestIdx == 0 {
		return 0
	}
	return float64(bestIdx) / (float64(2*len(ps)) * dt)
}
