package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/events"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

const tracerName = "github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/service"

// PlanLookup resolves plan settings; unknown plans resolve to defaults.
type PlanLookup interface {
	Get(ctx context.Context, planID id.PlanID) (models.PlanSettings, error)
}

// Ownership reports which plans an agent currently holds.
type Ownership interface {
	IsActive(ctx context.Context, agentID id.AgentID, planID id.PlanID) (bool, error)
	ActivePlanIDs(ctx context.Context, agentID id.AgentID) ([]id.PlanID, error)
}

// TreeStore persists positions keyed by (agent, fanout).
type TreeStore interface {
	FindPosition(ctx context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error)
	FindPositions(ctx context.Context, agentIDs []id.AgentID, fanout int) (map[id.AgentID]*models.TreePosition, error)
	LockPosition(ctx context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error)
	InsertPosition(ctx context.Context, position *models.TreePosition) error
	ClaimSlot(ctx context.Context, fanout int, parentID id.AgentID, slotIndex int, childID id.AgentID) error
	ListCompleteParents(ctx context.Context, fanout int) ([]id.AgentID, error)
}

type CommissionStore interface {
	ReleasePending(ctx context.Context, fromAgentID id.AgentID, paidAt time.Time) (int, error)
	CreateCommission(ctx context.Context, c *models.Commission) error
}

type RewardStore interface {
	ListUnreleased(ctx context.Context, agentID id.AgentID) ([]*models.LockedReward, error)
	MarkReleased(ctx context.Context, rewardID id.RewardID, releasedAt time.Time) (bool, error)
}

// StoreTx provides the transactional boundary for placement writes. Stores
// called with the ctx handed to fn participate in the transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service places agents into fanout-partitioned trees and releases rewards on
// structural completion. It holds no tree state between calls.
type Service struct {
	tree        TreeStore
	commissions CommissionStore
	rewards     RewardStore
	tx          StoreTx
	plans       PlanLookup
	owners      Ownership
	publisher   events.Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	retry       RetryPolicy
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) {
		s.retry = p.normalized()
	}
}

// New constructs a Service.
func New(tree TreeStore, commissions CommissionStore, rewards RewardStore, tx StoreTx, plans PlanLookup, owners Ownership, opts ...Option) *Service {
	s := &Service{
		tree:        tree,
		commissions: commissions,
		rewards:     rewards,
		tx:          tx,
		plans:       plans,
		owners:      owners,
		publisher:   events.Nop{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:      otel.Tracer(tracerName),
		retry:       DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceAgent gives agentID a position in the tree of planID's fanout. A nil
// sponsor creates a new root. Calling it again for a placed agent is a no-op
// reported through PlacementResult.AlreadyPlaced.
func (s *Service) PlaceAgent(ctx context.Context, agentID id.AgentID, planID id.PlanID, sponsorID *id.AgentID) (*models.PlacementResult, error) {
	ctx, span := s.tracer.Start(ctx, "placement.PlaceAgent", trace.WithAttributes(
		attribute.String("agent_id", agentID.String()),
		attribute.String("plan_id", planID.String()),
		attribute.Bool("root", sponsorID == nil),
	))
	defer span.End()

	result, err := s.placeAgent(ctx, agentID, planID, sponsorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
		if models.IsBusinessFailure(err) {
			s.metrics.IncrementRequest(metrics.OutcomeRejected)
			s.logger.InfoContext(ctx, "placement rejected",
				"request_id", requestcontext.RequestID(ctx),
				"agent_id", agentID.String(),
				"plan_id", planID.String(),
				"reason", err.Error(),
			)
		} else {
			s.metrics.IncrementRequest(metrics.OutcomeError)
			s.logger.ErrorContext(ctx, "placement failed",
				"request_id", requestcontext.RequestID(ctx),
				"agent_id", agentID.String(),
				"plan_id", planID.String(),
				"error", err,
			)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("already_placed", result.AlreadyPlaced),
		attribute.Int("attempts", result.Attempts),
		attribute.Int("level", result.Position.Level),
	)
	if result.AlreadyPlaced {
		s.metrics.IncrementRequest(metrics.OutcomeAlreadyPlaced)
		return result, nil
	}

	s.metrics.IncrementRequest(metrics.OutcomePlaced)
	s.metrics.AddCommissionsReleased(metrics.TriggerPairing, result.CommissionsReleased)
	s.metrics.AddRewardsUnlocked(len(result.UnlockedRewards))
	s.logger.InfoContext(ctx, "agent placed",
		"request_id", requestcontext.RequestID(ctx),
		"agent_id", agentID.String(),
		"plan_id", planID.String(),
		"fanout", result.Position.Fanout,
		"level", result.Position.Level,
		"level_label", result.Position.LevelLabel,
		"commissions_released", result.CommissionsReleased,
		"rewards_unlocked", len(result.UnlockedRewards),
		"attempts", result.Attempts,
	)
	s.publishPlacement(ctx, result)
	return result, nil
}

func (s *Service) placeAgent(ctx context.Context, agentID id.AgentID, planID id.PlanID, sponsorID *id.AgentID) (*models.PlacementResult, error) {
	if agentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "agent_id is required")
	}
	if planID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "plan_id is required")
	}
	if sponsorID != nil && *sponsorID == agentID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "an agent cannot sponsor itself")
	}

	plan, err := s.planSettings(ctx, planID)
	if err != nil {
		return nil, err
	}

	var result *models.PlacementResult
	attempts, err := s.withRetry(ctx, func(ctx context.Context) error {
		r, err := s.placeOnce(ctx, agentID, plan, sponsorID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "placement failed")
	}
	result.Attempts = attempts
	return result, nil
}

// ResolvePosition reports where a new agent under sponsorID would be placed
// right now. Nothing is written and no locks are taken.
func (s *Service) ResolvePosition(ctx context.Context, sponsorID id.AgentID, planID id.PlanID) (*models.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "placement.ResolvePosition", trace.WithAttributes(
		attribute.String("sponsor_id", sponsorID.String()),
		attribute.String("plan_id", planID.String()),
	))
	defer span.End()

	if sponsorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sponsor_id is required")
	}
	if planID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "plan_id is required")
	}
	plan, err := s.planSettings(ctx, planID)
	if err != nil {
		return nil, err
	}
	slot, err := s.resolve(ctx, sponsorID, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
		return nil, translateStoreError(err, "failed to resolve position")
	}
	return slot, nil
}

// planSettings loads and normalizes plan settings. Out-of-range values are
// logged and replaced with defaults.
func (s *Service) planSettings(ctx context.Context, planID id.PlanID) (models.PlanSettings, error) {
	raw, err := s.plans.Get(ctx, planID)
	if err != nil {
		return models.PlanSettings{}, translateStoreError(err, "failed to load plan settings")
	}
	raw.PlanID = planID
	settings, changed := raw.Normalize()
	if changed {
		s.logger.WarnContext(ctx, "plan settings out of range, using defaults",
			"plan_id", planID.String(),
			"pairing_limit", raw.Fanout,
			"max_depth", raw.MaxDepth,
		)
	}
	return settings, nil
}

// translateStoreError gives uncoded store failures a domain code. Coded errors,
// including placement failures, pass through untouched.
func translateStoreError(err error, msg string) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "placement contended with a concurrent writer, retry later")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "placement store temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "placement timed out")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) publishPlacement(ctx context.Context, result *models.PlacementResult) {
	now := requestcontext.Now(ctx)
	requestID := requestcontext.RequestID(ctx)
	pos := result.Position

	evts := []events.Event{events.PlacementCreated(pos, now, requestID)}
	if result.CommissionsReleased > 0 && pos.ParentID != nil {
		evts = append(evts, events.CommissionsReleased(*pos.ParentID, pos.PlanID, pos.Fanout,
			result.CommissionsReleased, metrics.TriggerPairing, now, requestID))
	}
	for _, r := range result.UnlockedRewards {
		from := pos.AgentID
		if pos.ParentID != nil {
			from = *pos.ParentID
		}
		evts = append(evts, events.RewardUnlocked(r, from, pos.Fanout, now, requestID))
	}
	s.publish(ctx, evts...)
}

// publish is best-effort: the placement has committed and stays committed.
func (s *Service) publish(ctx context.Context, evts ...events.Event) {
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.metrics.IncrementEventsFailed()
		s.logger.WarnContext(ctx, "failed to publish placement events",
			"request_id", requestcontext.RequestID(ctx),
			"events", len(evts),
			"error", err,
		)
	}
}
