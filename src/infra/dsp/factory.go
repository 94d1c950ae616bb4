package dsp

import (
	"github.com/contre95/bandpass/src/music"
	"github.com/gopxl/beep/v2"
)

// Factory creates biquad stages for one sample rate.
type Factory struct {
	sampleRate beep.SampleRate
}

// NewFactory returns a stage factory for streams at sampleRate.
func NewFactory(sampleRate beep.SampleRate) *Factory {
	return &Factory{sampleRate: sampleRate}
}

// Create returns a biquad of the given kind fed by input.
func (f *Factory) Create(kind music.FilterKind, frequency, linearGain, q float64, input beep.Streamer) (beep.Streamer, error) {
	c, err := design(kind, f.sampleRate, frequency, linearGain, q)
	if err != nil {
		return nil, err
	}
	return &Biquad{input: input, c: c}, nil
}
