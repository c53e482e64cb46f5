// Package ownership answers whether an agent holds an active plan. Purchases and
// expiry are managed by billing; this package only reads.
package ownership

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	txcontext "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/tx"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

const (
	selectIsActive = `
		SELECT EXISTS (
			SELECT 1 FROM agent_plans
			WHERE agent_id = $1 AND plan_id = $2 AND status = 'active'
			  AND (expires_at IS NULL OR expires_at > $3)
		)`
	selectActivePlanIDs = `
		SELECT plan_id FROM agent_plans
		WHERE agent_id = $1 AND status = 'active'
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at, plan_id`
)

// PostgresStore reads agent_plans.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) IsActive(ctx context.Context, agentID id.AgentID, planID id.PlanID) (bool, error) {
	var active bool
	err := txcontext.ExecutorFrom(ctx, s.db).
		QueryRowContext(ctx, selectIsActive, agentID, planID, requestcontext.Now(ctx)).
		Scan(&active)
	if err != nil {
		return false, postgres.Translate(err, "check plan ownership")
	}
	return active, nil
}

func (s *PostgresStore) ActivePlanIDs(ctx context.Context, agentID id.AgentID) ([]id.PlanID, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).
		QueryContext(ctx, selectActivePlanIDs, agentID, requestcontext.Now(ctx))
	if err != nil {
		return nil, postgres.Translate(err, "list active plans")
	}
	defer rows.Close()

	var planIDs []id.PlanID
	for rows.Next() {
		var planID id.PlanID
		if err := rows.Scan(&planID); err != nil {
			return nil, fmt.Errorf("scan active plan: %w", err)
		}
		planIDs = append(planIDs, planID)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list active plans")
	}
	return planIDs, nil
}

// Memory is an in-process ownership table for tests and local runs.
type Memory struct {
	mu     sync.RWMutex
	active map[id.AgentID]map[id.PlanID]struct{}
}

func NewMemory() *Memory {
	return &Memory{active: make(map[id.AgentID]map[id.PlanID]struct{})}
}

// Grant marks planID active for agentID.
func (m *Memory) Grant(agentID id.AgentID, planID id.PlanID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[agentID] == nil {
		m.active[agentID] = make(map[id.PlanID]struct{})
	}
	m.active[agentID][planID] = struct{}{}
}

// Revoke removes an ownership, as expiry would.
func (m *Memory) Revoke(agentID id.AgentID, planID id.PlanID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active[agentID], planID)
}

func (m *Memory) IsActive(_ context.Context, agentID id.AgentID, planID id.PlanID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[agentID][planID]
	return ok, nil
}

func (m *Memory) ActivePlanIDs(_ context.Context, agentID id.AgentID) ([]id.PlanID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]id.PlanID, 0, len(m.active[agentID]))
	for planID := range m.active[agentID] {
		out = append(out, planID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
