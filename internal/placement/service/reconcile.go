package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/events"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

// Reconcile re-runs both release triggers for every complete node in the
// fanout partition of planID, one transaction per node. It repairs effects
// lost by placements written outside this service and is a no-op otherwise.
func (s *Service) Reconcile(ctx context.Context, planID id.PlanID) (*models.ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "placement.Reconcile", trace.WithAttributes(
		attribute.String("plan_id", planID.String()),
	))
	defer span.End()

	plan, err := s.planSettings(ctx, planID)
	if err != nil {
		return nil, err
	}
	parents, err := s.tree.ListCompleteParents(ctx, plan.Fanout)
	if err != nil {
		return nil, translateStoreError(err, "failed to list complete nodes")
	}

	result := &models.ReconcileResult{Fanout: plan.Fanout}
	for _, parentID := range parents {
		var outcome models.TriggerOutcome
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			outcome, err = s.runTriggers(ctx, parentID, plan.Fanout)
			return err
		})
		if err != nil {
			return result, translateStoreError(err, "reconciliation failed")
		}
		result.NodesChecked++
		result.CommissionsReleased += outcome.CommissionsReleased
		result.RewardsUnlocked += len(outcome.UnlockedRewards)
		s.publishReconciled(ctx, parentID, plan, outcome)
	}

	s.metrics.AddCommissionsReleased(metrics.TriggerReconcile, result.CommissionsReleased)
	s.metrics.AddRewardsUnlocked(result.RewardsUnlocked)
	s.logger.InfoContext(ctx, "reconciliation finished",
		"request_id", requestcontext.RequestID(ctx),
		"plan_id", planID.String(),
		"fanout", plan.Fanout,
		"nodes_checked", result.NodesChecked,
		"commissions_released", result.CommissionsReleased,
		"rewards_unlocked", result.RewardsUnlocked,
	)
	return result, nil
}

func (s *Service) publishReconciled(ctx context.Context, parentID id.AgentID, plan models.PlanSettings, outcome models.TriggerOutcome) {
	now := requestcontext.Now(ctx)
	requestID := requestcontext.RequestID(ctx)
	var evts []events.Event
	if outcome.CommissionsReleased > 0 {
		evts = append(evts, events.CommissionsReleased(parentID, plan.PlanID, plan.Fanout,
			outcome.CommissionsReleased, metrics.TriggerReconcile, now, requestID))
	}
	for _, r := range outcome.UnlockedRewards {
		evts = append(evts, events.RewardUnlocked(r, parentID, plan.Fanout, now, requestID))
	}
	s.publish(ctx, evts...)
}
