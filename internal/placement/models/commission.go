package models

import (
	"time"

	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
)

// Commission is a ledger entry owed to AgentID because of a structural event at
// FromAgentID. Amounts are in minor currency units.
//
// Pending rows are created by commission calculation outside this module; this
// module only transitions pending → paid, and creates rows that are paid at birth
// when a locked reward unlocks.
type Commission struct {
	ID          id.CommissionID  `json:"id"`
	AgentID     id.AgentID       `json:"agent_id"`
	FromAgentID id.AgentID       `json:"from_agent_id"`
	PlanID      id.PlanID        `json:"plan_id"`
	Amount      int64            `json:"amount"`
	Level       int              `json:"level"`
	Status      CommissionStatus `json:"status"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewDepthUnlockCommission records the payout of a released locked reward.
func NewDepthUnlockCommission(reward *LockedReward, from id.AgentID, now time.Time) *Commission {
	paidAt := now
	return &Commission{
		ID:          id.NewCommissionID(),
		AgentID:     reward.AgentID,
		FromAgentID: from,
		PlanID:      reward.PlanID,
		Amount:      reward.LockedAmount,
		Level:       0,
		Status:      CommissionPaid,
		PaidAt:      &paidAt,
		CreatedAt:   now,
	}
}

func (c *Commission) IsPending() bool {
	return c.Status == CommissionPending
}
