package models

import (
	"fmt"
	"time"

	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

const RootLevelLabel = "root"

// TreePosition is an agent's node in the forest for one fanout value.
//
// Invariants:
//   - (AgentID, Fanout) is unique
//   - ParentID is nil only for roots; roots have Level 1 and own their tree
//   - Level = parent.Level + 1 for children, TreeOwnerID is inherited from the parent
//   - Slots has exactly Fanout entries; Slots[i] holds the occupant of slot i+1
//   - a filled slot is never cleared or overwritten
type TreePosition struct {
	AgentID     id.AgentID   `json:"agent_id"`
	PlanID      id.PlanID    `json:"plan_id"`
	ParentID    *id.AgentID  `json:"parent_id,omitempty"`
	LevelLabel  string       `json:"level_label"`
	Level       int          `json:"level"`
	Fanout      int          `json:"fanout"`
	TreeOwnerID id.AgentID   `json:"tree_owner_id"`
	Slots       []id.AgentID `json:"child_slots"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewRootPosition creates the first node of a new tree owned by agentID.
func NewRootPosition(agentID id.AgentID, planID id.PlanID, fanout int, now time.Time) *TreePosition {
	return &TreePosition{
		AgentID:     agentID,
		PlanID:      planID,
		LevelLabel:  RootLevelLabel,
		Level:       1,
		Fanout:      fanout,
		TreeOwnerID: agentID,
		Slots:       make([]id.AgentID, fanout),
		CreatedAt:   now,
	}
}

// NewChildPosition creates the node for agentID at a resolved slot.
func NewChildPosition(agentID id.AgentID, planID id.PlanID, slot Slot, now time.Time) *TreePosition {
	parent := slot.ParentID
	return &TreePosition{
		AgentID:     agentID,
		PlanID:      planID,
		ParentID:    &parent,
		LevelLabel:  LevelLabelFor(slot.SlotIndex),
		Level:       slot.Level,
		Fanout:      slot.Fanout,
		TreeOwnerID: slot.TreeOwnerID,
		Slots:       make([]id.AgentID, slot.Fanout),
		CreatedAt:   now,
	}
}

// LevelLabelFor returns the display tag of a child placed in slotIndex.
func LevelLabelFor(slotIndex int) string {
	return fmt.Sprintf("child_%d", slotIndex)
}

func (p *TreePosition) IsRoot() bool {
	return p.ParentID == nil
}

// Occupant returns the agent in the 1-based slot, if any.
func (p *TreePosition) Occupant(slotIndex int) (id.AgentID, bool) {
	if slotIndex < 1 || slotIndex > len(p.Slots) {
		return id.AgentID{}, false
	}
	occupant := p.Slots[slotIndex-1]
	return occupant, !occupant.IsNil()
}

// FirstEmptySlot returns the lowest empty 1-based slot index.
func (p *TreePosition) FirstEmptySlot() (int, bool) {
	for i, occupant := range p.Slots {
		if occupant.IsNil() {
			return i + 1, true
		}
	}
	return 0, false
}

// FilledCount returns the number of occupied slots.
func (p *TreePosition) FilledCount() int {
	n := 0
	for _, occupant := range p.Slots {
		if !occupant.IsNil() {
			n++
		}
	}
	return n
}

// IsComplete reports whether every slot is occupied.
func (p *TreePosition) IsComplete() bool {
	return p.Fanout > 0 && p.FilledCount() == p.Fanout
}

// IsPaired reports whether the position completed a pairing. A single-slot
// tree is a chain and has no pairs.
func (p *TreePosition) IsPaired() bool {
	return p.Fanout > 1 && p.IsComplete()
}

// Occupants returns occupied slot values in slot order.
func (p *TreePosition) Occupants() []id.AgentID {
	out := make([]id.AgentID, 0, len(p.Slots))
	for _, occupant := range p.Slots {
		if !occupant.IsNil() {
			out = append(out, occupant)
		}
	}
	return out
}

// SlotFor builds the resolution result for a child under p at slotIndex.
func (p *TreePosition) SlotFor(slotIndex int) Slot {
	return Slot{
		ParentID:    p.AgentID,
		SlotIndex:   slotIndex,
		Level:       p.Level + 1,
		Fanout:      p.Fanout,
		TreeOwnerID: p.TreeOwnerID,
	}
}

// Fill occupies an empty slot. Overwriting is an invariant violation.
func (p *TreePosition) Fill(slotIndex int, child id.AgentID) error {
	if slotIndex < 1 || slotIndex > len(p.Slots) {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("slot %d out of range for fanout %d", slotIndex, p.Fanout))
	}
	if !p.Slots[slotIndex-1].IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("slot %d already occupied", slotIndex))
	}
	p.Slots[slotIndex-1] = child
	return nil
}

// Clone returns a deep copy.
func (p *TreePosition) Clone() *TreePosition {
	c := *p
	if p.ParentID != nil {
		parent := *p.ParentID
		c.ParentID = &parent
	}
	c.Slots = append([]id.AgentID(nil), p.Slots...)
	return &c
}
