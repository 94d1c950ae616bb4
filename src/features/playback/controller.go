package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/contre95/bandpass/src/features/metrics"
)

// State of the controller.
type State string

const (
	StateIdle   State = "idle"
	StateLoaded State = "loaded"
)

// PlayerState is a snapshot of the controller.
type PlayerState struct {
	State      State  `json:"state"`
	Path       string `json:"path,omitempty"`
	Playing    bool   `json:"playing"`
	Generation uint64 `json:"generation"`
}

const stateBufferSize = 10

// Controller owns the single active audio graph. Every transition runs under one
// lock, and the previous graph is stopped before the next one is built.
type Controller struct {
	engine  Engine
	filters FilterSource
	metrics *metrics.Metrics

	mu         sync.Mutex
	graph      Graph
	current    string
	playing    bool
	generation uint64
	onTrackEnd func(path string)

	subMu       sync.Mutex
	subscribers map[chan PlayerState]struct{}
}

// NewController creates an idle controller.
func NewController(engine Engine, filters FilterSource, m *metrics.Metrics) *Controller {
	return &Controller{
		engine:      engine,
		filters:     filters,
		metrics:     m,
		subscribers: make(map[chan PlayerState]struct{}),
	}
}

// OnTrackEnd registers the handler for natural track ends.
func (c *Controller) OnTrackEnd(fn func(path string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrackEnd = fn
}

// TogglePlayback drives the controller for path:
//   - idle or a different track: build and start a new graph;
//   - same track with restart: rebuild and start from the beginning;
//   - same track with keepPlaying: nothing;
//   - same track otherwise: pause or resume without rebuilding.
func (c *Controller) TogglePlayback(ctx context.Context, path string, keepPlaying, restart bool) error {
	c.mu.Lock()
	var transition string
	err := func() error {
		if c.graph != nil && c.current == path {
			switch {
			case restart:
				transition = "restart"
				return c.rebuildLocked(ctx, path)
			case keepPlaying:
				transition = "keep"
				return nil
			default:
				c.playing = !c.playing
				c.graph.SetPaused(!c.playing)
				transition = "resume"
				if !c.playing {
					transition = "pause"
				}
				return nil
			}
		}
		transition = "load"
		return c.rebuildLocked(ctx, path)
	}()
	state := c.stateLocked()
	c.mu.Unlock()

	if err != nil {
		transition = "error"
	}
	c.metrics.Transition(transition)
	slog.Debug("Playback transition", "transition", transition, "path", path, "playing", state.Playing)
	c.notify(state)
	return err
}

// rebuildLocked releases the current graph and builds a new one for path.
func (c *Controller) rebuildLocked(ctx context.Context, path string) error {
	c.releaseLocked()

	c.generation++
	gen := c.generation
	filters := c.filters.Filters()
	graph, err := c.engine.Build(ctx, path, filters, func() { c.trackEnded(gen) })
	if err != nil {
		slog.Error("Failed to build audio graph", "path", path, "error", err)
		return fmt.Errorf("failed to play %s: %w", path, err)
	}
	graph.Start()
	c.graph = graph
	c.current = path
	c.playing = true
	slog.Info("Now playing", "path", path, "filters", len(filters))
	return nil
}

func (c *Controller) releaseLocked() {
	if c.graph != nil {
		c.graph.Stop()
	}
	c.graph = nil
	c.current = ""
	c.playing = false
}

// Stop releases the graph and returns to idle.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	c.releaseLocked()
	c.generation++
	state := c.stateLocked()
	c.mu.Unlock()

	c.metrics.Transition("stop")
	c.notify(state)
}

// State returns the current controller snapshot.
func (c *Controller) State() PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() PlayerState {
	s := PlayerState{State: StateIdle, Generation: c.generation}
	if c.graph != nil {
		s.State = StateLoaded
		s.Path = c.current
		s.Playing = c.playing
	}
	return s
}

// trackEnded handles a natural end of the graph built at generation gen. The drained
// graph is released so the next toggle rebuilds.
func (c *Controller) trackEnded(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.graph == nil {
		c.mu.Unlock()
		slog.Debug("Ignoring stale end of track", "generation", gen)
		return
	}
	path := c.current
	c.releaseLocked()
	handler := c.onTrackEnd
	state := c.stateLocked()
	c.mu.Unlock()

	c.metrics.Transition("end")
	c.notify(state)
	if handler != nil {
		handler(path)
	}
}

// Subscribe returns a channel of state snapshots.
func (c *Controller) Subscribe() chan PlayerState {
	ch := make(chan PlayerState, stateBufferSize)
	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (c *Controller) Unsubscribe(ch chan PlayerState) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if _, ok := c.subscribers[ch]; ok {
		delete(c.subscribers, ch)
		close(ch)
	}
}

func (c *Controller) notify(state PlayerState) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}
