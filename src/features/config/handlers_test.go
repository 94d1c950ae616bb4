package config

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func loadTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BANDPASS_LIBRARY_PATH", filepath.Join(dir, "music"))
	t.Setenv("BANDPASS_PROFILE_PATH", filepath.Join(dir, "eq.json"))
	path := filepath.Join(dir, "config.yaml")
	manager, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return manager, path
}

func TestManager_SetAutoAdvancePersists(t *testing.T) {
	manager, path := loadTestManager(t)
	if manager.Path() != path {
		t.Fatalf("expected path %s, got %s", path, manager.Path())
	}
	if !manager.Get().Playback.AutoAdvance {
		t.Fatal("expected auto advance on by default")
	}

	if _, err := manager.SetAutoAdvance(false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if manager.Get().Playback.AutoAdvance {
		t.Error("expected auto advance off in memory")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reloaded.Get().Playback.AutoAdvance {
		t.Error("expected auto advance off after reload")
	}
}

func TestManager_SetAutoAdvanceInMemory(t *testing.T) {
	manager := NewManager(&Config{})
	cfg, err := manager.SetAutoAdvance(true)
	if err != nil {
		t.Fatalf("expected no error without a config file, got %v", err)
	}
	if !cfg.Playback.AutoAdvance || !manager.Get().Playback.AutoAdvance {
		t.Error("expected auto advance on")
	}
}

func TestPatchPlayback(t *testing.T) {
	manager, path := loadTestManager(t)
	app := fiber.New()
	RegisterRoutes(app, manager)

	tests := []struct {
		body       string
		wantStatus int
	}{
		{`{"auto_advance":false}`, http.StatusOK},
		{`{}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPatch, "/config/playback", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("body %s: expected %d, got %d (%s)", tt.body, tt.wantStatus, resp.StatusCode, body)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "auto_advance: false") {
		t.Errorf("expected persisted auto_advance: false, got\n%s", raw)
	}
}
