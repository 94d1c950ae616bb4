package playback

import (
	"context"
	"testing"

	"github.com/contre95/bandpass/src/music"
)

func newTestController() (*Controller, *fakeEngine) {
	engine := &fakeEngine{fail: map[string]bool{}}
	filters := staticFilters{{ID: "f", Kind: music.FilterPeak, Frequency: 1000, Gain: 3, Q: 1}}
	return NewController(engine, filters, nil), engine
}

func TestController_Transitions(t *testing.T) {
	c, engine := newTestController()
	ctx := context.Background()

	if err := c.TogglePlayback(ctx, "/a.mp3", false, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first := engine.last()
	if !first.started || c.State().State != StateLoaded || !c.State().Playing {
		t.Fatalf("expected a started graph, got %+v", c.State())
	}
	if len(engine.filters[0]) != 1 {
		t.Errorf("expected filters to be passed to the engine")
	}

	// same track, keep playing: no rebuild
	if err := c.TogglePlayback(ctx, "/a.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if engine.builds() != 1 {
		t.Errorf("expected no rebuild, got %d builds", engine.builds())
	}

	// same track, toggle: pause then resume
	if err := c.TogglePlayback(ctx, "/a.mp3", false, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !first.paused || c.State().Playing {
		t.Error("expected paused")
	}
	if err := c.TogglePlayback(ctx, "/a.mp3", false, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.paused || !c.State().Playing {
		t.Error("expected resumed")
	}

	// restart: release and rebuild
	if err := c.TogglePlayback(ctx, "/a.mp3", true, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !first.stopped || engine.builds() != 2 {
		t.Error("expected the old graph stopped and a new one built")
	}

	// different track
	second := engine.last()
	if err := c.TogglePlayback(ctx, "/b.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !second.stopped || c.State().Path != "/b.mp3" {
		t.Errorf("expected switch to /b.mp3, got %+v", c.State())
	}
}

func TestController_BuildFailureGoesIdle(t *testing.T) {
	c, engine := newTestController()
	engine.fail["/bad.mp3"] = true
	ctx := context.Background()

	if err := c.TogglePlayback(ctx, "/a.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	old := engine.last()
	if err := c.TogglePlayback(ctx, "/bad.mp3", true, false); err == nil {
		t.Fatal("expected build error")
	}
	if !old.stopped {
		t.Error("expected previous graph to be released")
	}
	if c.State().State != StateIdle {
		t.Errorf("expected idle, got %s", c.State().State)
	}
}

func TestController_StaleEndIgnored(t *testing.T) {
	c, engine := newTestController()
	ctx := context.Background()
	ended := make(chan string, 2)
	c.OnTrackEnd(func(path string) { ended <- path })

	if err := c.TogglePlayback(ctx, "/a.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	stale := engine.last()
	if err := c.TogglePlayback(ctx, "/b.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stale.onEnd()
	if len(ended) != 0 {
		t.Fatal("expected stale end to be ignored")
	}
	if c.State().Path != "/b.mp3" {
		t.Errorf("expected /b.mp3 to keep playing, got %+v", c.State())
	}

	engine.last().onEnd()
	if got := <-ended; got != "/b.mp3" {
		t.Errorf("expected end of /b.mp3, got %s", got)
	}
	if c.State().State != StateIdle {
		t.Errorf("expected idle after track end, got %s", c.State().State)
	}
}

func TestController_StopAndSubscribe(t *testing.T) {
	c, engine := newTestController()
	ctx := context.Background()
	ch := c.Subscribe()
	defer c.Unsubscribe(ch)

	if err := c.TogglePlayback(ctx, "/a.mp3", true, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c.Stop(ctx)
	if !engine.last().stopped || c.State().State != StateIdle {
		t.Error("expected stop to release the graph")
	}

	first, second := <-ch, <-ch
	if first.State != StateLoaded || second.State != StateIdle {
		t.Errorf("expected loaded then idle, got %s then %s", first.State, second.State)
	}
}
