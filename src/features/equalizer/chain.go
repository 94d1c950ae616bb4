package equalizer

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/music"
	"github.com/gopxl/beep/v2"
)

// SkipReason explains why a filter did not become a stage.
type SkipReason string

const (
	SkipZeroQ        SkipReason = "zero_q"
	SkipUnknownKind  SkipReason = "unknown_kind"
	SkipStageFailure SkipReason = "stage_failure"
)

// PlannedStage is a filter that passed gain staging.
type PlannedStage struct {
	FilterID   string           `json:"filter_id"`
	Kind       music.FilterKind `json:"-"`
	Type       string           `json:"type"`
	Frequency  float64          `json:"frequency"`
	ScaledDB   float64          `json:"scaled_db"`
	LinearGain float64          `json:"linear_gain"`
	Q          float64          `json:"q"`
}

// SkippedFilter is a filter excluded from the chain.
type SkippedFilter struct {
	FilterID string     `json:"filter_id"`
	Reason   SkipReason `json:"reason"`
	Detail   string     `json:"detail,omitempty"`
}

// GainPlan is the outcome of gain staging a profile.
type GainPlan struct {
	Stages        []PlannedStage  `json:"stages"`
	Skipped       []SkippedFilter `json:"skipped"`
	MaxLinearGain float64         `json:"max_linear_gain"`
	Preamp        float64         `json:"preamp"`
	MasterLevel   float64         `json:"master_level"`
}

// FilterStage creates one filter node fed by input.
type FilterStage interface {
	Create(kind music.FilterKind, frequency, linearGain, q float64, input beep.Streamer) (beep.Streamer, error)
}

// Chain is a built filter cascade. Output still needs the master level applied.
type Chain struct {
	Output beep.Streamer
	Plan   GainPlan
	Stages int
}

// PlanGain computes the stages and the master level for filters in insertion order.
// Each gain is clamped to +-30 dB and doubled before conversion to a linear factor.
// The master level compensates for the largest boost only; it never amplifies.
func PlanGain(filters []music.EQFilter) GainPlan {
	plan := GainPlan{
		Stages:        []PlannedStage{},
		Skipped:       []SkippedFilter{},
		MaxLinearGain: 1.0,
	}
	for _, f := range filters {
		scaled := f.ClampedGain() * 2
		linear := math.Pow(10, scaled/20)

		if f.Q == 0 {
			slog.Warn("Filter has zero Q, skipping", "id", f.ID)
			plan.Skipped = append(plan.Skipped, SkippedFilter{FilterID: f.ID, Reason: SkipZeroQ})
			continue
		}

		// Unknown kinds still count towards headroom.
		plan.MaxLinearGain = max(plan.MaxLinearGain, linear)
		if f.Kind == music.FilterUnrecognized {
			slog.Warn("Unknown filter type, skipping", "id", f.ID, "type", f.TypeName())
			plan.Skipped = append(plan.Skipped, SkippedFilter{FilterID: f.ID, Reason: SkipUnknownKind, Detail: f.TypeName()})
			continue
		}
		plan.Stages = append(plan.Stages, PlannedStage{
			FilterID:   f.ID,
			Kind:       f.Kind,
			Type:       f.Kind.String(),
			Frequency:  f.Frequency,
			ScaledDB:   scaled,
			LinearGain: linear,
			Q:          f.Q,
		})
	}

	plan.Preamp = 1 / plan.MaxLinearGain
	plan.MasterLevel = 1
	if plan.Preamp < 1 {
		plan.MasterLevel = plan.Preamp
	}
	return plan
}

// BuildChain cascades a stage per planned filter onto source. A stage that cannot be
// created is logged and left out; the master level is not recomputed for it.
func BuildChain(filters []music.EQFilter, source beep.Streamer, stage FilterStage) (*Chain, error) {
	if source == nil {
		return nil, fmt.Errorf("filter chain needs a source")
	}
	if stage == nil {
		return nil, fmt.Errorf("filter chain needs a stage factory")
	}
	plan := PlanGain(filters)
	current := source
	built := 0
	for _, p := range plan.Stages {
		next, err := stage.Create(p.Kind, p.Frequency, p.LinearGain, p.Q, current)
		if err != nil {
			slog.Warn("Failed to create filter stage, skipping", "id", p.FilterID, "type", p.Type, "frequency", p.Frequency, "error", err)
			plan.Skipped = append(plan.Skipped, SkippedFilter{FilterID: p.FilterID, Reason: SkipStageFailure, Detail: err.Error()})
			continue
		}
		current = next
		built++
	}
	slog.Debug("Filter chain built", "stages", built, "skipped", len(plan.Skipped), "master_level", plan.MasterLevel)
	return &Chain{Output: current, Plan: plan, Stages: built}, nil
}

// Record reports the chain shape to metrics.
func (c *Chain) Record(m *metrics.Metrics) {
	m.ChainBuilt(c.Stages, c.Plan.MasterLevel)
	for _, s := range c.Plan.Skipped {
		m.FilterSkipped(string(s.Reason))
	}
}
