package equalizer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/contre95/bandpass/src/music"
)

// Service owns the in-memory equalizer profile. Edits apply to the next signal chain
// that is built and are only persisted on Save.
type Service struct {
	store music.ProfileStore

	mu      sync.RWMutex
	profile *music.Profile
}

// NewService creates an equalizer service with an empty profile.
func NewService(store music.ProfileStore) *Service {
	return &Service{
		store:   store,
		profile: &music.Profile{},
	}
}

// Load replaces the in-memory profile with the persisted one. A missing or unreadable
// profile leaves an empty profile behind and is not an error.
func (s *Service) Load(ctx context.Context) []music.EQFilter {
	profile, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load equalizer profile, starting empty", "error", err)
		profile = &music.Profile{}
	}
	if profile == nil {
		profile = &music.Profile{}
	}

	s.mu.Lock()
	s.profile = profile.Clone()
	s.mu.Unlock()
	slog.Info("Equalizer profile loaded", "filters", len(profile.Filters))
	return slices.Clone(profile.Filters)
}

// Save persists the current profile. On failure the in-memory profile is kept.
func (s *Service) Save(ctx context.Context) error {
	s.mu.RLock()
	snapshot := s.profile.Clone()
	s.mu.RUnlock()

	if err := s.store.Save(ctx, snapshot); err != nil {
		slog.Error("Failed to save equalizer profile", "error", err)
		return fmt.Errorf("failed to save equalizer profile: %w", err)
	}
	slog.Info("Equalizer profile saved", "filters", len(snapshot.Filters))
	return nil
}

// Filters returns the bands in insertion order, which is also chain order.
func (s *Service) Filters() []music.EQFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.profile.Filters)
}

// ByFrequency returns the bands sorted by frequency for display.
func (s *Service) ByFrequency() []music.EQFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.ByFrequency()
}

// Get returns a band by id.
func (s *Service) Get(id string) (music.EQFilter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Get(id)
}

// AddDefault appends a band with default settings.
func (s *Service) AddDefault() music.EQFilter {
	return s.mustAdd(music.NewEQFilter())
}

// Add appends a band. A missing id is generated.
func (s *Service) Add(f music.EQFilter) (music.EQFilter, error) {
	if f.ID == "" {
		f.ID = music.NewEQFilter().ID
	}
	if err := f.Validate(); err != nil {
		return music.EQFilter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profile.Get(f.ID); exists {
		return music.EQFilter{}, fmt.Errorf("filter %s already exists", f.ID)
	}
	slog.Debug("Equalizer filter added", "id", f.ID, "type", f.TypeName(), "frequency", f.Frequency)
	return s.profile.Add(f), nil
}

func (s *Service) mustAdd(f music.EQFilter) music.EQFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.Debug("Equalizer filter added", "id", f.ID, "type", f.TypeName(), "frequency", f.Frequency)
	return s.profile.Add(f)
}

// Update replaces a band in place; the id is stable.
func (s *Service) Update(f music.EQFilter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.profile.Update(f); err != nil {
		return fmt.Errorf("failed to update filter %s: %w", f.ID, err)
	}
	slog.Debug("Equalizer filter updated", "id", f.ID, "gain", f.Gain, "q", f.Q)
	return nil
}

// Delete removes a band by id.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.profile.Remove(id); err != nil {
		return fmt.Errorf("failed to delete filter %s: %w", id, err)
	}
	slog.Debug("Equalizer filter deleted", "id", id)
	return nil
}

// Plan returns the gain plan of the current profile.
func (s *Service) Plan() GainPlan {
	return PlanGain(s.Filters())
}
