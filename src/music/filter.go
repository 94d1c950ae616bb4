package music

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// FilterKind is the response shape of an equalizer band.
type FilterKind uint8

const (
	FilterUnrecognized FilterKind = iota
	FilterPeak
	FilterLowShelf
	FilterHighShelf
)

const (
	DefaultFilterFrequency = 1000.0
	DefaultFilterGain      = 0.0
	DefaultFilterQ         = 1.41

	MinFilterGain = -30.0
	MaxFilterGain = 30.0
)

// ParseFilterKind maps persisted text to a FilterKind. Unknown text yields FilterUnrecognized.
func ParseFilterKind(s string) FilterKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peak":
		return FilterPeak
	case "low-shelf", "lowshelf":
		return FilterLowShelf
	case "high-shelf", "highshelf":
		return FilterHighShelf
	default:
		return FilterUnrecognized
	}
}

func (k FilterKind) String() string {
	switch k {
	case FilterPeak:
		return "peak"
	case FilterLowShelf:
		return "low-shelf"
	case FilterHighShelf:
		return "high-shelf"
	default:
		return "unrecognized"
	}
}

// EQFilter is one user-defined equalizer band.
type EQFilter struct {
	ID        string
	Kind      FilterKind
	Frequency float64 // Hz
	Gain      float64 // dB, clamped at use time
	Q         float64

	rawKind string // original text of an unrecognized kind
}

// NewEQFilter returns a band with the default settings and a fresh id.
func NewEQFilter() EQFilter {
	return EQFilter{
		ID:        uuid.New().String(),
		Kind:      FilterPeak,
		Frequency: DefaultFilterFrequency,
		Gain:      DefaultFilterGain,
		Q:         DefaultFilterQ,
	}
}

// TypeName returns the persisted text of the filter kind.
func (f EQFilter) TypeName() string {
	if f.Kind == FilterUnrecognized && f.rawKind != "" {
		return f.rawKind
	}
	return f.Kind.String()
}

// ClampedGain returns the gain limited to [MinFilterGain, MaxFilterGain].
func (f EQFilter) ClampedGain() float64 {
	return max(min(f.Gain, MaxFilterGain), MinFilterGain)
}

// Realizable reports whether the band can become a filter stage.
func (f EQFilter) Realizable() bool {
	return f.Q != 0 && f.Kind != FilterUnrecognized
}

// Validate checks user-supplied values. Persisted filters are not validated on load.
func (f EQFilter) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("filter id cannot be empty")
	}
	if f.Kind == FilterUnrecognized {
		return fmt.Errorf("unsupported filter type %q", f.TypeName())
	}
	for _, field := range []struct {
		name  string
		value float64
	}{{"frequency", f.Frequency}, {"gain", f.Gain}, {"q", f.Q}} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("%s must be a finite number, got %f", field.name, field.value)
		}
	}
	if f.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %f", f.Frequency)
	}
	if f.Q < 0 {
		return fmt.Errorf("q cannot be negative, got %f", f.Q)
	}
	return nil
}

type eqFilterJSON struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Frequency float64 `json:"frequency"`
	Gain      float64 `json:"gain"`
	Q         float64 `json:"q"`
}

func (f EQFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(eqFilterJSON{
		ID:        f.ID,
		Type:      f.TypeName(),
		Frequency: f.Frequency,
		Gain:      f.Gain,
		Q:         f.Q,
	})
}

func (f *EQFilter) UnmarshalJSON(data []byte) error {
	var raw eqFilterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = EQFilter{
		ID:        raw.ID,
		Kind:      ParseFilterKind(raw.Type),
		Frequency: raw.Frequency,
		Gain:      raw.Gain,
		Q:         raw.Q,
	}
	if f.Kind == FilterUnrecognized {
		f.rawKind = raw.Type
	}
	return nil
}
