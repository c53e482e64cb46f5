package models

import id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"

const (
	DefaultFanout   = 2
	DefaultMaxDepth = 50
	MinFanout       = 1
	MaxFanout       = 5
)

// PlanSettings is the read-only view of a compensation plan that placement needs.
// Plans are immutable once any position references them: fanout partitions the
// forest, so changing it would orphan existing positions.
type PlanSettings struct {
	PlanID             id.PlanID `json:"plan_id"`
	Fanout             int       `json:"pairing_limit"`
	MaxDepth           int       `json:"max_depth"`
	CashbackPercentage float64   `json:"cashback_percentage"`
}

// DefaultPlanSettings is used for plans that have no settings row.
func DefaultPlanSettings(planID id.PlanID) PlanSettings {
	return PlanSettings{
		PlanID:   planID,
		Fanout:   DefaultFanout,
		MaxDepth: DefaultMaxDepth,
	}
}

// Normalize replaces out-of-range fields with defaults. The boolean reports
// whether anything was replaced so callers can log the misconfiguration.
func (p PlanSettings) Normalize() (PlanSettings, bool) {
	changed := false
	if p.Fanout < MinFanout || p.Fanout > MaxFanout {
		p.Fanout = DefaultFanout
		changed = true
	}
	if p.MaxDepth < 1 {
		p.MaxDepth = DefaultMaxDepth
		changed = true
	}
	return p, changed
}
