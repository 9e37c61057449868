// Package analysis provides frequency analysis of stored trajectories.
package analysis

import (
	"math"
	"math/cmplx"
)

// PowerSpectrum returns the magnitude spectrum of a uniformly sampled
// series. The input is zero-padded to the next power of two and only
// the first half of the spectrum is returned.
func PowerSpectrum(samples []float64) []float64 {
	if len(samples) < 2 {
		return nil
	}

	n := 1
	for n < len(samples) {
		n *= 2
	}

	buf := make([]complex128, n)
	for i, v := range samples {
		buf[i] = complex(v, 0)
	}

	fft(buf)

	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(buf[i])
	}
	return ps
}

// DominantFrequency scans a spectrum for the strongest bin above DC and
// converts it to hz. dt is the sample spacing of the original series.
func DominantFrequency(ps []float64, dt float64) (freq, power float64) {
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}

	maxIdx := 1
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			maxIdx = i
		}
	}

	// The padded length is twice the half-spectrum length.
	freq = float64(maxIdx) / (float64(2*len(ps)) * dt)
	return freq, power
}

// fft computes the radix-2 transform of buf in place. len(buf) must be
// a power of two.
func fft(buf []complex128) {
	n := len(buf)
	if n <= 1 {
		return
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = buf[2*i]
		odd[i] = buf[2*i+1]
	}

	fft(even)
	fft(odd)

	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		buf[k] = even[k] + w*odd[k]
		buf[k+n/2] = even[k] - w*odd[k]
	}
}
