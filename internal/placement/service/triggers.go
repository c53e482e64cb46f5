package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

// runTriggers fires both release triggers for a parent whose slot was just
// filled. Both are idempotent, so re-running them for a node is safe.
func (s *Service) runTriggers(ctx context.Context, parentID id.AgentID, fanout int) (models.TriggerOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "placement.triggers")
	defer span.End()

	var outcome models.TriggerOutcome
	parent, err := s.tree.FindPosition(ctx, parentID, fanout)
	if err != nil {
		return outcome, err
	}

	released, err := s.onSlotFilled(ctx, parent)
	if err != nil {
		return outcome, err
	}
	outcome.CommissionsReleased = released

	if parent.IsComplete() {
		unlocked, err := s.onPairingComplete(ctx, parent.AgentID, parent.Level, fanout)
		if err != nil {
			return outcome, err
		}
		outcome.UnlockedRewards = unlocked
	}
	return outcome, nil
}

// onSlotFilled releases the commissions the parent generated once all of its
// slots are filled. A single-slot tree has no pairs and never releases.
func (s *Service) onSlotFilled(ctx context.Context, parent *models.TreePosition) (int, error) {
	if !parent.IsPaired() {
		return 0, nil
	}
	released, err := s.commissions.ReleasePending(ctx, parent.AgentID, requestcontext.Now(ctx))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.logger.InfoContext(ctx, "pairing complete, commissions released",
			"request_id", requestcontext.RequestID(ctx),
			"agent_id", parent.AgentID.String(),
			"fanout", parent.Fanout,
			"released", released,
		)
	}
	return released, nil
}

// onPairingComplete walks from agentID's parent up to the root and releases
// every locked reward whose plan's max depth is reached by agentLevel. The
// conditional release makes exactly one caller pay each reward.
func (s *Service) onPairingComplete(ctx context.Context, agentID id.AgentID, agentLevel, fanout int) ([]*models.LockedReward, error) {
	agent, err := s.tree.FindPosition(ctx, agentID, fanout)
	if err != nil {
		return nil, err
	}
	if !agent.IsComplete() {
		return nil, nil
	}

	now := requestcontext.Now(ctx)
	plans := map[id.PlanID]models.PlanSettings{}
	visited := map[id.AgentID]struct{}{agentID: {}}
	var unlocked []*models.LockedReward

	current := agent
	for steps := 0; current.ParentID != nil; steps++ {
		ancestorID := *current.ParentID
		if _, seen := visited[ancestorID]; seen || steps > agent.Level {
			return nil, s.corruptTree(ctx, ancestorID, fanout, "cycle in upline")
		}
		visited[ancestorID] = struct{}{}

		ancestor, err := s.tree.FindPosition(ctx, ancestorID, fanout)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.corruptTree(ctx, ancestorID, fanout, "upline parent has no position")
		}
		if err != nil {
			return nil, err
		}

		released, err := s.unlockRewards(ctx, ancestorID, agentID, agentLevel, now, plans)
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, released...)
		current = ancestor
	}
	return unlocked, nil
}

func (s *Service) unlockRewards(ctx context.Context, ownerID, fromID id.AgentID, agentLevel int, now time.Time, plans map[id.PlanID]models.PlanSettings) ([]*models.LockedReward, error) {
	rewards, err := s.rewards.ListUnreleased(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var unlocked []*models.LockedReward
	for _, reward := range rewards {
		settings, ok := plans[reward.PlanID]
		if !ok {
			settings, err = s.planSettings(ctx, reward.PlanID)
			if err != nil {
				return nil, err
			}
			plans[reward.PlanID] = settings
		}
		if !reward.UnlocksAt(agentLevel, settings.MaxDepth) {
			continue
		}

		won, err := s.rewards.MarkReleased(ctx, reward.ID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}
		released := now
		reward.IsReleased = true
		reward.ReleasedAt = &released

		if err := s.commissions.CreateCommission(ctx, models.NewDepthUnlockCommission(reward, fromID, now)); err != nil {
			return nil, fmt.Errorf("record unlock payout for reward %s: %w", reward.ID.String(), err)
		}
		s.logger.InfoContext(ctx, "locked reward released",
			"request_id", requestcontext.RequestID(ctx),
			"agent_id", ownerID.String(),
			"from_agent_id", fromID.String(),
			"reward_id", reward.ID.String(),
			"amount", reward.LockedAmount,
		)
		unlocked = append(unlocked, reward)
	}
	return unlocked, nil
}
