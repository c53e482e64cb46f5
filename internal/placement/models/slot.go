package models

import id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"

// Slot is where a new agent would be placed.
type Slot struct {
	ParentID    id.AgentID `json:"parent_id"`
	SlotIndex   int        `json:"slot_index"`
	Level       int        `json:"level"`
	Fanout      int        `json:"fanout"`
	TreeOwnerID id.AgentID `json:"tree_owner_id"`
}
