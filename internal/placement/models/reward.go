package models

import (
	"time"

	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

// LockedReward is held for AgentID until some descendant's subtree reaches the
// plan's max depth. IsReleased only moves false → true.
type LockedReward struct {
	ID           id.RewardID `json:"id"`
	AgentID      id.AgentID  `json:"agent_id"`
	PlanID       id.PlanID   `json:"plan_id"`
	LockedAmount int64       `json:"locked_amount"`
	IsReleased   bool        `json:"is_released"`
	ReleasedAt   *time.Time  `json:"released_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// UnlocksAt reports whether a pairing completion at agentLevel meets maxDepth.
func (r *LockedReward) UnlocksAt(agentLevel, maxDepth int) bool {
	return !r.IsReleased && agentLevel >= maxDepth
}
