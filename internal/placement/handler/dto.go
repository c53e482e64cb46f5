package handler

import (
	"time"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

// PlaceRequest is the body of POST /placements.
type PlaceRequest struct {
	AgentID   string  `json:"agent_id"`
	PlanID    string  `json:"plan_id"`
	SponsorID *string `json:"sponsor_id,omitempty"`
}

// Parse validates the request identifiers. An absent or empty sponsor_id asks
// for a new root.
func (r *PlaceRequest) Parse() (id.AgentID, id.PlanID, *id.AgentID, error) {
	agentID, err := id.ParseAgentID(r.AgentID)
	if err != nil {
		return id.AgentID{}, id.PlanID{}, nil, dErrors.New(dErrors.CodeInvalidInput, "agent_id must be a valid UUID")
	}
	planID, err := id.ParsePlanID(r.PlanID)
	if err != nil {
		return id.AgentID{}, id.PlanID{}, nil, dErrors.New(dErrors.CodeInvalidInput, "plan_id must be a valid UUID")
	}
	if r.SponsorID == nil || *r.SponsorID == "" {
		return agentID, planID, nil, nil
	}
	sponsorID, err := id.ParseAgentID(*r.SponsorID)
	if err != nil {
		return id.AgentID{}, id.PlanID{}, nil, dErrors.New(dErrors.CodeInvalidInput, "sponsor_id must be a valid UUID")
	}
	return agentID, planID, &sponsorID, nil
}

// PositionResponse renders a tree position; empty slots are null.
type PositionResponse struct {
	AgentID     string    `json:"agent_id"`
	PlanID      string    `json:"plan_id"`
	ParentID    *string   `json:"parent_id"`
	Level       int       `json:"level"`
	LevelLabel  string    `json:"level_label"`
	PairingType int       `json:"pairing_type"`
	TreeOwnerID string    `json:"tree_owner_id"`
	ChildSlots  []*string `json:"child_slots"`
	CreatedAt   time.Time `json:"created_at"`
}

type RewardResponse struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	PlanID  string `json:"plan_id"`
	Amount  int64  `json:"amount"`
}

type PlacementResponse struct {
	Position            PositionResponse `json:"position"`
	AlreadyPlaced       bool             `json:"already_placed"`
	CommissionsReleased int              `json:"commissions_released"`
	UnlockedRewards     []RewardResponse `json:"unlocked_rewards"`
}

type SlotResponse struct {
	ParentID    string `json:"parent_id"`
	SlotIndex   int    `json:"slot_index"`
	Level       int    `json:"level"`
	LevelLabel  string `json:"level_label"`
	PairingType int    `json:"pairing_type"`
	TreeOwnerID string `json:"tree_owner_id"`
}

func toPositionResponse(p *models.TreePosition) PositionResponse {
	resp := PositionResponse{
		AgentID:     p.AgentID.String(),
		PlanID:      p.PlanID.String(),
		Level:       p.Level,
		LevelLabel:  p.LevelLabel,
		PairingType: p.Fanout,
		TreeOwnerID: p.TreeOwnerID.String(),
		ChildSlots:  make([]*string, len(p.Slots)),
		CreatedAt:   p.CreatedAt,
	}
	if p.ParentID != nil {
		parent := p.ParentID.String()
		resp.ParentID = &parent
	}
	for i, occupant := range p.Slots {
		if occupant.IsNil() {
			continue
		}
		s := occupant.String()
		resp.ChildSlots[i] = &s
	}
	return resp
}

func toPlacementResponse(r *models.PlacementResult) PlacementResponse {
	resp := PlacementResponse{
		Position:            toPositionResponse(r.Position),
		AlreadyPlaced:       r.AlreadyPlaced,
		CommissionsReleased: r.CommissionsReleased,
		UnlockedRewards:     make([]RewardResponse, 0, len(r.UnlockedRewards)),
	}
	for _, reward := range r.UnlockedRewards {
		resp.UnlockedRewards = append(resp.UnlockedRewards, RewardResponse{
			ID:      reward.ID.String(),
			AgentID: reward.AgentID.String(),
			PlanID:  reward.PlanID.String(),
			Amount:  reward.LockedAmount,
		})
	}
	return resp
}

func toSlotResponse(s *models.Slot) SlotResponse {
	return SlotResponse{
		ParentID:    s.ParentID.String(),
		SlotIndex:   s.SlotIndex,
		Level:       s.Level,
		LevelLabel:  models.LevelLabelFor(s.SlotIndex),
		PairingType: s.Fanout,
		TreeOwnerID: s.TreeOwnerID.String(),
	}
}
