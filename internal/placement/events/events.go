// Package events publishes placement facts after a placement commits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

type Type string

const (
	TypePlacementCreated    Type = "placement.created"
	TypeCommissionsReleased Type = "commissions.released"
	TypeRewardUnlocked      Type = "reward.unlocked"
)

// Event is the JSON envelope written to the placement topic. The record key is
// AgentID so every event about one agent lands on the same partition.
type Event struct {
	ID         string     `json:"id"`
	Type       Type       `json:"type"`
	AgentID    id.AgentID `json:"agent_id"`
	PlanID     id.PlanID  `json:"plan_id"`
	Fanout     int        `json:"fanout"`
	OccurredAt time.Time  `json:"occurred_at"`
	RequestID  string     `json:"request_id,omitempty"`
	Payload    any        `json:"payload,omitempty"`
}

type PlacementPayload struct {
	ParentID    *id.AgentID `json:"parent_id,omitempty"`
	Level       int         `json:"level"`
	LevelLabel  string      `json:"level_label"`
	TreeOwnerID id.AgentID  `json:"tree_owner_id"`
}

type CommissionsPayload struct {
	Released int    `json:"released"`
	Trigger  string `json:"trigger"`
}

type RewardPayload struct {
	RewardID    id.RewardID `json:"reward_id"`
	FromAgentID id.AgentID  `json:"from_agent_id"`
	Amount      int64       `json:"amount"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
}

func newEvent(t Type, agentID id.AgentID, planID id.PlanID, fanout int, now time.Time, requestID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		AgentID:    agentID,
		PlanID:     planID,
		Fanout:     fanout,
		OccurredAt: now,
		RequestID:  requestID,
		Payload:    payload,
	}
}

// PlacementCreated describes a newly written position.
func PlacementCreated(p *models.TreePosition, now time.Time, requestID string) Event {
	return newEvent(TypePlacementCreated, p.AgentID, p.PlanID, p.Fanout, now, requestID, PlacementPayload{
		ParentID:    p.ParentID,
		Level:       p.Level,
		LevelLabel:  p.LevelLabel,
		TreeOwnerID: p.TreeOwnerID,
	})
}

// CommissionsReleased reports pending commissions of fromAgentID moved to paid.
func CommissionsReleased(fromAgentID id.AgentID, planID id.PlanID, fanout, released int, trigger string, now time.Time, requestID string) Event {
	return newEvent(TypeCommissionsReleased, fromAgentID, planID, fanout, now, requestID, CommissionsPayload{
		Released: released,
		Trigger:  trigger,
	})
}

// RewardUnlocked reports a locked reward paid to its owner.
func RewardUnlocked(r *models.LockedReward, fromAgentID id.AgentID, fanout int, now time.Time, requestID string) Event {
	return newEvent(TypeRewardUnlocked, r.AgentID, r.PlanID, fanout, now, requestID, RewardPayload{
		RewardID:    r.ID,
		FromAgentID: fromAgentID,
		Amount:      r.LockedAmount,
	})
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
