package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/features/playback"
	"github.com/contre95/bandpass/src/infra/dsp"
	"github.com/contre95/bandpass/src/music"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Engine builds decode -> equalizer -> master level graphs on a single output.
type Engine struct {
	output  Output
	rate    beep.SampleRate
	metrics *metrics.Metrics
}

// NewEngine creates an engine on the configured output.
func NewEngine(cfg *config.Manager, m *metrics.Metrics) (*Engine, error) {
	audioCfg := cfg.Get().Audio
	rate := beep.SampleRate(audioCfg.SampleRate)
	bufferSize := rate.N(time.Duration(audioCfg.BufferMs) * time.Millisecond)

	var output Output
	switch audioCfg.Output {
	case "silent":
		output = NewSilentOutput(rate, bufferSize)
	default:
		var err error
		output, err = NewSpeakerOutput(rate, bufferSize)
		if err != nil {
			return nil, err
		}
	}
	slog.Info("Audio engine ready", "output", audioCfg.Output, "sample_rate", int(rate))
	return &Engine{output: output, rate: rate, metrics: m}, nil
}

// Close releases the output.
func (e *Engine) Close() {
	e.output.Close()
}

// Build decodes path and wires it through the filter chain. onEnd runs once when the
// track drains naturally; it never runs after Stop.
func (e *Engine) Build(ctx context.Context, path string, filters []music.EQFilter, onEnd func()) (playback.Graph, error) {
	source, format, err := Decode(ctx, path, e.rate)
	if err != nil {
		return nil, err
	}

	var stream beep.Streamer = source
	if format.SampleRate != e.rate {
		stream = beep.Resample(4, format.SampleRate, e.rate, stream)
	}

	chain, err := equalizer.BuildChain(filters, stream, dsp.NewFactory(e.rate))
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to build filter chain: %w", err)
	}
	chain.Record(e.metrics)

	master := &effects.Gain{Streamer: chain.Output, Gain: chain.Plan.MasterLevel - 1}
	g := &graph{
		output: e.output,
		source: source,
		ctrl:   &beep.Ctrl{Streamer: master},
		onEnd:  onEnd,
	}
	slog.Debug("Audio graph built", "path", path, "source_rate", int(format.SampleRate), "stages", chain.Stages, "master_level", chain.Plan.MasterLevel)
	return g, nil
}

// graph is one playing track.
type graph struct {
	output  Output
	source  beep.StreamCloser
	ctrl    *beep.Ctrl
	onEnd   func()
	stopped atomic.Bool
	started atomic.Bool
}

func (g *graph) Start() {
	if !g.started.CompareAndSwap(false, true) {
		return
	}
	g.output.Play(beep.Seq(g.ctrl, beep.Callback(func() {
		if g.stopped.Load() || g.onEnd == nil {
			return
		}
		go g.onEnd()
	})))
}

func (g *graph) SetPaused(paused bool) {
	g.output.Lock()
	g.ctrl.Paused = paused
	g.output.Unlock()
}

// Stop detaches the graph from the output and releases the decoder.
func (g *graph) Stop() {
	if !g.stopped.CompareAndSwap(false, true) {
		return
	}
	g.output.Lock()
	g.ctrl.Streamer = nil
	g.output.Unlock()
	if err := g.source.Close(); err != nil {
		slog.Warn("Failed to close audio source", "error", err)
	}
}
