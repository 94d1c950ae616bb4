package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/contre95/bandpass/src/music"
)

type fakeGraph struct {
	path    string
	started bool
	paused  bool
	stopped bool
	onEnd   func()
}

func (g *fakeGraph) Start()                { g.started = true }
func (g *fakeGraph) SetPaused(paused bool) { g.paused = paused }
func (g *fakeGraph) Stop()                 { g.stopped = true }

// fakeEngine records built graphs. Paths in fail make Build return an error.
type fakeEngine struct {
	mu      sync.Mutex
	graphs  []*fakeGraph
	fail    map[string]bool
	filters [][]music.EQFilter
}

func (e *fakeEngine) Build(ctx context.Context, path string, filters []music.EQFilter, onEnd func()) (Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail[path] {
		return nil, errors.New("decode failed")
	}
	for _, g := range e.graphs {
		if !g.stopped {
			panic("previous graph still alive")
		}
	}
	g := &fakeGraph{path: path, onEnd: onEnd}
	e.graphs = append(e.graphs, g)
	e.filters = append(e.filters, filters)
	return g, nil
}

func (e *fakeEngine) last() *fakeGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.graphs) == 0 {
		return nil
	}
	return e.graphs[len(e.graphs)-1]
}

func (e *fakeEngine) builds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.graphs)
}

type staticFilters []music.EQFilter

func (s staticFilters) Filters() []music.EQFilter { return s }
