package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

// placeOnce is one attempt of the placement transaction:
//
//  1. an existing position for the fanout short-circuits as already placed
//  2. the agent must hold the plan
//  3. roots are inserted directly; otherwise the sponsor must hold a plan of
//     the same fanout, a slot is resolved, the parent row is locked and the slot
//     re-checked, then the position is inserted and the slot claimed
//  4. both release triggers run against the parent
//
// Everything happens in one transaction, so a failed attempt leaves no trace.
func (s *Service) placeOnce(ctx context.Context, agentID id.AgentID, plan models.PlanSettings, sponsorID *id.AgentID) (*models.PlacementResult, error) {
	var result *models.PlacementResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.tree.FindPosition(ctx, agentID, plan.Fanout)
		if err == nil {
			result = &models.PlacementResult{Position: existing, AlreadyPlaced: true}
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		active, err := s.owners.IsActive(ctx, agentID, plan.PlanID)
		if err != nil {
			return err
		}
		if !active {
			return models.Fail(models.ErrPlanNotOwned, "agent does not hold an active subscription to the plan")
		}

		now := requestcontext.Now(ctx)
		if sponsorID == nil {
			root := models.NewRootPosition(agentID, plan.PlanID, plan.Fanout, now)
			if err := s.tree.InsertPosition(ctx, root); err != nil {
				return err
			}
			result = &models.PlacementResult{Position: root}
			return nil
		}

		if err := s.checkSponsorPlan(ctx, *sponsorID, plan); err != nil {
			return err
		}
		slot, err := s.resolve(ctx, *sponsorID, plan)
		if err != nil {
			return err
		}

		parent, err := s.tree.LockPosition(ctx, slot.ParentID, plan.Fanout)
		if err != nil {
			return err
		}
		if _, taken := parent.Occupant(slot.SlotIndex); taken {
			return fmt.Errorf("slot %d under %s filled concurrently: %w", slot.SlotIndex, slot.ParentID.String(), sentinel.ErrConflict)
		}

		child := models.NewChildPosition(agentID, plan.PlanID, *slot, now)
		if err := s.tree.InsertPosition(ctx, child); err != nil {
			return err
		}
		if err := s.tree.ClaimSlot(ctx, plan.Fanout, parent.AgentID, slot.SlotIndex, agentID); err != nil {
			return err
		}

		outcome, err := s.runTriggers(ctx, parent.AgentID, plan.Fanout)
		if err != nil {
			return err
		}
		result = &models.PlacementResult{
			Position:            child,
			CommissionsReleased: outcome.CommissionsReleased,
			UnlockedRewards:     outcome.UnlockedRewards,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkSponsorPlan requires the sponsor to hold an active plan whose fanout
// matches the target tree. Plans sharing a fanout share a tree.
func (s *Service) checkSponsorPlan(ctx context.Context, sponsorID id.AgentID, plan models.PlanSettings) error {
	planIDs, err := s.owners.ActivePlanIDs(ctx, sponsorID)
	if err != nil {
		return err
	}
	for _, planID := range planIDs {
		if planID == plan.PlanID {
			return nil
		}
		settings, err := s.planSettings(ctx, planID)
		if err != nil {
			return err
		}
		if settings.Fanout == plan.Fanout {
			return nil
		}
	}
	return models.Fail(models.ErrIncompatibleSponsorPlan,
		fmt.Sprintf("sponsor holds no active plan with pairing limit %d", plan.Fanout))
}
