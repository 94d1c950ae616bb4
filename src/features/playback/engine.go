package playback

import (
	"context"

	"github.com/contre95/bandpass/src/music"
)

// Engine builds the audio graph for one track: decode, equalizer cascade and
// master level. onEnd runs when the track drains naturally.
type Engine interface {
	Build(ctx context.Context, path string, filters []music.EQFilter, onEnd func()) (Graph, error)
}

// Graph is a built, exclusive audio graph.
type Graph interface {
	Start()
	SetPaused(paused bool)
	Stop()
}

// FilterSource supplies the equalizer bands at build time.
type FilterSource interface {
	Filters() []music.EQFilter
}
