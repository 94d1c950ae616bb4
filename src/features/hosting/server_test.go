package hosting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/features/playback"
	"github.com/contre95/bandpass/src/infra/profile"
	"github.com/contre95/bandpass/src/music"
)

type emptyReader struct{}

func (emptyReader) ReadMetadata(ctx context.Context, path string) (*music.TrackMetadata, error) {
	return &music.TrackMetadata{}, nil
}

type idleGraph struct{}

func (idleGraph) Start()         {}
func (idleGraph) SetPaused(bool) {}
func (idleGraph) Stop()          {}

type idleEngine struct{}

func (idleEngine) Build(ctx context.Context, path string, filters []music.EQFilter, onEnd func()) (playback.Graph, error) {
	return idleGraph{}, nil
}

type passThumbnailer struct{}

func (passThumbnailer) Thumbnail(data []byte, size int) ([]byte, error) { return data, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		LibraryPath: filepath.Join(dir, "music"),
		Server:      config.Server{Port: 0},
		Library:     config.Library{ScanWorkers: 2},
		Equalizer:   config.Equalizer{ProfilePath: filepath.Join(dir, "profile.json")},
	}
	cfgManager := config.NewManager(cfg)

	lib := library.NewService(emptyReader{}, nil, cfgManager, nil)
	eq := equalizer.NewService(profile.NewFileStore(cfg.Equalizer.ProfilePath))
	eq.Load(context.Background())
	controller := playback.NewController(idleEngine{}, eq, nil)
	pb := playback.NewService(lib, controller, playback.NewQueue(), cfgManager)

	return NewServer(cfgManager, lib, passThumbnailer{}, eq, pb, nil)
}

func do(t *testing.T, s *Server, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	resp, _ := do(t, s, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_UnknownRouteIsJSONError(t *testing.T) {
	s := newTestServer(t)
	resp, body := do(t, s, http.MethodGet, "/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if _, ok := body["error"]; !ok {
		t.Errorf("expected error field, got %v", body)
	}
}

func TestServer_EqualizerRoundTrip(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/eq/filters", `{"type":"low-shelf","frequency":120,"gain":4,"q":0.7}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["type"] != "low-shelf" {
		t.Errorf("expected low-shelf, got %v", body["type"])
	}

	resp, body = do(t, s, http.MethodPost, "/eq/filters", `{"type":"notch"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d (%v)", resp.StatusCode, body)
	}

	resp, _ = do(t, s, http.MethodPost, "/eq/save", "")
	if resp.StatusCode >= 300 {
		t.Errorf("expected save to succeed, got %d", resp.StatusCode)
	}
}

func TestServer_LibraryScanAndPlaybackState(t *testing.T) {
	s := newTestServer(t)

	resp, _ := do(t, s, http.MethodPost, "/library/scan", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from scan, got %d", resp.StatusCode)
	}

	resp, body := do(t, s, http.MethodGet, "/playback/state", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, ok := body["player"]; !ok {
		t.Errorf("expected player field, got %v", body)
	}

	resp, _ = do(t, s, http.MethodPost, "/playback/play", `{"path":"/does/not/exist.mp3"}`)
	if resp.StatusCode < 400 {
		t.Errorf("expected an error for an unknown path, got %d", resp.StatusCode)
	}
}
