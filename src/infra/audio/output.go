package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the sink a graph plays into. Lock and Unlock guard changes to streamers
// that are already playing.
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
	Close()
}

var speakerInit sync.Once

// speakerOutput plays through the default sound device.
type speakerOutput struct{}

// NewSpeakerOutput initializes the sound device once per process.
func NewSpeakerOutput(rate beep.SampleRate, bufferSize int) (Output, error) {
	var err error
	speakerInit.Do(func() {
		err = speaker.Init(rate, bufferSize)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	slog.Info("Speaker initialized", "sample_rate", int(rate), "buffer", bufferSize)
	return speakerOutput{}, nil
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Close()               { speaker.Clear() }

// silentOutput drains streamers in real time without a device. Used on headless
// hosts and in tests.
type silentOutput struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	buf    [][2]float64
	period time.Duration
	done   chan struct{}
	once   sync.Once
}

// NewSilentOutput starts a sink that pulls bufferSize samples every buffer period.
func NewSilentOutput(rate beep.SampleRate, bufferSize int) Output {
	o := &silentOutput{
		mixer:  &beep.Mixer{},
		buf:    make([][2]float64, bufferSize),
		period: rate.D(bufferSize),
		done:   make(chan struct{}),
	}
	if o.period <= 0 {
		o.period = time.Millisecond
	}
	go o.loop()
	return o
}

func (o *silentOutput) loop() {
	ticker := time.NewTicker(o.period)
	defer ticker.Stop()
	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			o.mu.Lock()
			o.mixer.Stream(o.buf)
			o.mu.Unlock()
		}
	}
}

func (o *silentOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

func (o *silentOutput) Lock()   { o.mu.Lock() }
func (o *silentOutput) Unlock() { o.mu.Unlock() }

func (o *silentOutput) Clear() {
	o.mu.Lock()
	o.mixer.Clear()
	o.mu.Unlock()
}

func (o *silentOutput) Close() {
	o.once.Do(func() { close(o.done) })
}
