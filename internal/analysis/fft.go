package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var ErrTooShort = errors.New("series too short for spectral analysis")

// FFT returns the discrete Fourier transform of data. Lengths that are not
// a power of two are zero padded up to the next one.
func FFT(data []float64) []complex128 {
	n := nextPow2(len(data))
	if n != len(data) {
		padded := make([]float64, n)
		copy(padded, data)
		data = padded
	}
	return fft(data)
}

func fft(data []float64) []complex128 {
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

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the magnitude of the first half of the FFT. Bin i
// sits at i/(N·dt) Hz where N is the padded length.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// Spectrum summarises the strongest oscillation in a series.
type Spectrum struct {
	Frequency float64
	Period    float64
	Magnitude float64
	// Resolution is the bin width in Hz.
	Resolution float64
	Bins       []float64
}

// DominantFrequency removes the mean from values, sampled every dt seconds,
// and returns the strongest non-DC bin of its spectrum.
func DominantFrequency(values []float64, dt float64) (*Spectrum, error) {
	if dt <= 0 || math.IsNaN(dt) {
		return nil, fmt.Errorf("sample interval must be positive, got %v", dt)
	}
	if len(values) < 4 {
		return nil, fmt.Errorf("%w: %d samples", ErrTooShort, len(values))
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	centred := make([]float64, len(values))
	for i, v := range values {
		centred[i] = v - mean
	}

	bins := PowerSpectrum(centred)
	n := 2 * len(bins)
	resolution := 1 / (float64(n) * dt)

	best := 1
	for i := 2; i < len(bins); i++ {
		if bins[i] > bins[best] {
			best = i
		}
	}

	out := &Spectrum{
		Frequency:  float64(best) * resolution,
		Magnitude:  bins[best],
		Resolution: resolution,
		Bins:       bins,
	}
	if out.Magnitude > 0 {
		out.Period = 1 / out.Frequency
	}
	return out, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
