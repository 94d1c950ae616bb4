package dsp

import (
	"fmt"
	"math"

	"github.com/contre95/bandpass/src/music"
	"github.com/gopxl/beep/v2"
)

// coefficients of a normalized second order section (a0 == 1).
type coefficients struct {
	b0, b1, b2, a1, a2 float64
}

// design computes RBJ cookbook coefficients. linearGain is the amplitude factor at
// the band (peak) or on the shelf.
func design(kind music.FilterKind, sampleRate beep.SampleRate, frequency, linearGain, q float64) (coefficients, error) {
	nyquist := float64(sampleRate) / 2
	switch {
	case frequency <= 0:
		return coefficients{}, fmt.Errorf("frequency must be positive, got %g", frequency)
	case frequency >= nyquist:
		return coefficients{}, fmt.Errorf("frequency %g Hz is not below nyquist %g Hz", frequency, nyquist)
	case q <= 0:
		return coefficients{}, fmt.Errorf("q must be positive, got %g", q)
	case linearGain <= 0 || math.IsInf(linearGain, 0) || math.IsNaN(linearGain):
		return coefficients{}, fmt.Errorf("invalid linear gain %g", linearGain)
	}

	w0 := 2 * math.Pi * frequency / float64(sampleRate)
	cosW, sinW := math.Cos(w0), math.Sin(w0)
	alpha := sinW / (2 * q)
	a := math.Sqrt(linearGain)
	sqrtA := math.Sqrt(a)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case music.FilterPeak:
		b0 = 1 + alpha*a
		b1 = -2 * cosW
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW
		a2 = 1 - alpha/a
	case music.FilterLowShelf:
		b0 = a * ((a + 1) - (a-1)*cosW + 2*sqrtA*alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW)
		b2 = a * ((a + 1) - (a-1)*cosW - 2*sqrtA*alpha)
		a0 = (a + 1) + (a-1)*cosW + 2*sqrtA*alpha
		a1 = -2 * ((a - 1) + (a+1)*cosW)
		a2 = (a + 1) + (a-1)*cosW - 2*sqrtA*alpha
	case music.FilterHighShelf:
		b0 = a * ((a + 1) + (a-1)*cosW + 2*sqrtA*alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW)
		b2 = a * ((a + 1) + (a-1)*cosW - 2*sqrtA*alpha)
		a0 = (a + 1) - (a-1)*cosW + 2*sqrtA*alpha
		a1 = 2 * ((a - 1) - (a+1)*cosW)
		a2 = (a + 1) - (a-1)*cosW - 2*sqrtA*alpha
	default:
		return coefficients{}, fmt.Errorf("unsupported filter kind %s", kind)
	}

	return coefficients{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}, nil
}

// Biquad is a stereo second order IIR filter in transposed direct form II.
type Biquad struct {
	input beep.Streamer
	c     coefficients
	z1    [2]float64
	z2    [2]float64
}

// Stream filters samples pulled from the input streamer.
func (b *Biquad) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = b.input.Stream(samples)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := b.c.b0*x + b.z1[ch]
			b.z1[ch] = b.c.b1*x - b.c.a1*y + b.z2[ch]
			b.z2[ch] = b.c.b2*x - b.c.a2*y
			samples[i][ch] = y
		}
	}
	return n, ok
}

// Err propagates the input error.
func (b *Biquad) Err() error {
	return b.input.Err()
}

// ResponseAt returns the magnitude response of the filter at frequency.
func (b *Biquad) ResponseAt(frequency float64, sampleRate beep.SampleRate) float64 {
	w := 2 * math.Pi * frequency / float64(sampleRate)
	// H(z) evaluated on the unit circle z = e^{jw}
	cos1, sin1 := math.Cos(w), math.Sin(w)
	cos2, sin2 := math.Cos(2*w), math.Sin(2*w)
	numRe := b.c.b0 + b.c.b1*cos1 + b.c.b2*cos2
	numIm := -(b.c.b1*sin1 + b.c.b2*sin2)
	denRe := 1 + b.c.a1*cos1 + b.c.a2*cos2
	denIm := -(b.c.a1*sin1 + b.c.a2*sin2)
	return math.Hypot(numRe, numIm) / math.Hypot(denRe, denIm)
}
