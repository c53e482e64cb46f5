package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	txcontext "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/tx"
)

const (
	releasePendingCommissions = `
		UPDATE commissions
		SET status = 'paid', paid_at = $2
		WHERE from_agent_id = $1 AND status = 'pending'`
	insertCommission = `
		INSERT INTO commissions
			(id, agent_id, from_agent_id, plan_id, amount, level, status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertLockedReward = `
		INSERT INTO locked_rewards
			(id, agent_id, plan_id, locked_amount, is_released, released_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectUnreleasedRewards = `
		SELECT id, agent_id, plan_id, locked_amount, is_released, released_at, created_at
		FROM locked_rewards
		WHERE agent_id = $1 AND NOT is_released
		ORDER BY created_at, id`
	markRewardReleased = `
		UPDATE locked_rewards
		SET is_released = true, released_at = $2
		WHERE id = $1 AND NOT is_released`
)

// PostgresCommissions owns the pending → paid transition of the commissions ledger.
type PostgresCommissions struct {
	db *sql.DB
}

func NewPostgresCommissions(db *sql.DB) *PostgresCommissions {
	return &PostgresCommissions{db: db}
}

// ReleasePending marks every pending commission sourced from fromAgentID paid.
// Rows already paid are untouched, so repeated calls return 0.
func (s *PostgresCommissions) ReleasePending(ctx context.Context, fromAgentID id.AgentID, paidAt time.Time) (int, error) {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, releasePendingCommissions, fromAgentID, paidAt)
	if err != nil {
		return 0, postgres.Translate(err, "release pending commissions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release pending commissions: %w", err)
	}
	return int(n), nil
}

func (s *PostgresCommissions) CreateCommission(ctx context.Context, c *models.Commission) error {
	var paidAt any
	if c.PaidAt != nil {
		paidAt = *c.PaidAt
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertCommission,
		c.ID, c.AgentID, c.FromAgentID, c.PlanID, c.Amount, c.Level, string(c.Status), paidAt, c.CreatedAt)
	return postgres.Translate(err, "create commission")
}

// PostgresRewards owns the release transition of locked rewards.
type PostgresRewards struct {
	db *sql.DB
}

func NewPostgresRewards(db *sql.DB) *PostgresRewards {
	return &PostgresRewards{db: db}
}

func (s *PostgresRewards) CreateReward(ctx context.Context, r *models.LockedReward) error {
	var releasedAt any
	if r.ReleasedAt != nil {
		releasedAt = *r.ReleasedAt
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertLockedReward,
		r.ID, r.AgentID, r.PlanID, r.LockedAmount, r.IsReleased, releasedAt, r.CreatedAt)
	return postgres.Translate(err, "create locked reward")
}

func (s *PostgresRewards) ListUnreleased(ctx context.Context, agentID id.AgentID) ([]*models.LockedReward, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, selectUnreleasedRewards, agentID)
	if err != nil {
		return nil, postgres.Translate(err, "list unreleased rewards")
	}
	defer rows.Close()

	var out []*models.LockedReward
	for rows.Next() {
		var (
			r          models.LockedReward
			releasedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.AgentID, &r.PlanID, &r.LockedAmount, &r.IsReleased, &releasedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan locked reward: %w", err)
		}
		if releasedAt.Valid {
			at := releasedAt.Time
			r.ReleasedAt = &at
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list unreleased rewards")
	}
	return out, nil
}

// MarkReleased flips is_released only if it is still false. The boolean is true
// for the single caller whose update took effect.
func (s *PostgresRewards) MarkReleased(ctx context.Context, rewardID id.RewardID, releasedAt time.Time) (bool, error) {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, markRewardReleased, rewardID, releasedAt)
	if err != nil {
		return false, postgres.Translate(err, "mark reward released")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark reward released: %w", err)
	}
	return n == 1, nil
}
