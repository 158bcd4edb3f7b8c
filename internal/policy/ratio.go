package policy

import (
	"context"

	"github.com/torrkit/seedsweep/internal/core"
)

const (
	secondsPerDay  = 86400
	secondsPerYear = 365 * secondsPerDay
)

// Decision reasons.
const (
	ReasonTooYoung   = "too_young"
	ReasonNoRatio    = "no_ratio"
	ReasonRatioOK    = "ratio_ok"
	ReasonBelowRatio = "ratio_below_target"
)

// RatioPolicy marks a torrent for removal when its ratio, extrapolated
// linearly to a one-year accrual horizon, falls below MinRatio. Torrents
// younger than MinAgeDays are never candidates.
//
// The projection is a deliberately simple linear model: it over-penalizes
// torrents whose seeding rate is still ramping up and under-penalizes
// torrents whose rate is decaying. Known approximation, kept on purpose.
type RatioPolicy struct {
	MinAgeDays int
	MinRatio   float64
}

// NewRatioPolicy creates the retention policy.
func NewRatioPolicy(minAgeDays int, minRatio float64) *RatioPolicy {
	return &RatioPolicy{MinAgeDays: minAgeDays, MinRatio: minRatio}
}

// Evaluate is pure: no I/O, no clock access. The reference time comes in
// through env and must be the same value for every torrent in a run.
func (p *RatioPolicy) Evaluate(_ context.Context, t core.Torrent, env core.EnvSnapshot) core.Decision {
	age := env.Now.Unix() - t.AddedOn
	if age < 0 {
		// added_on ahead of the reference clock (skew); saturate at zero
		age = 0
	}

	dec := core.Decision{
		AgeSeconds: age,
		AgeDays:    age / secondsPerDay,
	}

	// Age floor: equal-to-threshold is not past it, which also guarantees
	// age > 0 whenever a projection is computed below.
	if age <= int64(p.MinAgeDays)*secondsPerDay {
		dec.Action = core.ActionTooYoung
		dec.Reason = ReasonTooYoung
		return dec
	}

	if t.Ratio == nil {
		// No measured ratio: nothing to project, keep conservatively.
		dec.Action = core.ActionKeep
		dec.Reason = ReasonNoRatio
		return dec
	}

	ratio := *t.Ratio
	if ratio < 0 {
		ratio = 0
	}

	dec.ProjectedRatio = ratio * (float64(secondsPerYear) / float64(age))
	dec.HasProjection = true

	if dec.ProjectedRatio < p.MinRatio {
		dec.Action = core.ActionRemove
		dec.Reason = ReasonBelowRatio
		return dec
	}

	dec.Action = core.ActionKeep
	dec.Reason = ReasonRatioOK
	return dec
}
