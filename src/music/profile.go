package music

import (
	"context"
	"errors"
	"slices"
	"sort"
)

var ErrFilterNotFound = errors.New("filter not found")

// Profile is the ordered set of equalizer bands. Order is insertion order.
type Profile struct {
	Filters []EQFilter
}

// ProfileStore persists a Profile as a whole.
type ProfileStore interface {
	Load(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return &Profile{}
	}
	return &Profile{Filters: slices.Clone(p.Filters)}
}

// Add appends a filter and returns it.
func (p *Profile) Add(f EQFilter) EQFilter {
	p.Filters = append(p.Filters, f)
	return f
}

// Update replaces the filter with the same id, keeping its position.
func (p *Profile) Update(f EQFilter) error {
	i := p.indexOf(f.ID)
	if i < 0 {
		return ErrFilterNotFound
	}
	p.Filters[i] = f
	return nil
}

// Remove deletes the filter with the given id.
func (p *Profile) Remove(id string) error {
	i := p.indexOf(id)
	if i < 0 {
		return ErrFilterNotFound
	}
	p.Filters = slices.Delete(p.Filters, i, i+1)
	return nil
}

// Get returns the filter with the given id.
func (p *Profile) Get(id string) (EQFilter, bool) {
	i := p.indexOf(id)
	if i < 0 {
		return EQFilter{}, false
	}
	return p.Filters[i], true
}

// ByFrequency returns the filters sorted by ascending frequency for display.
func (p *Profile) ByFrequency() []EQFilter {
	out := slices.Clone(p.Filters)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency < out[j].Frequency
	})
	return out
}

func (p *Profile) indexOf(id string) int {
	return slices.IndexFunc(p.Filters, func(f EQFilter) bool { return f.ID == id })
}
