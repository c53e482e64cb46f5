package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	txcontext "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/tx"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

const (
	selectPositions = `
		SELECT agent_id, plan_id, parent_agent_id, level_label, level, tree_owner_id, created_at
		FROM tree_positions
		WHERE fanout = $1 AND agent_id = ANY($2::uuid[])`
	selectSlots = `
		SELECT parent_agent_id, slot_index, child_agent_id
		FROM tree_slots
		WHERE fanout = $1 AND parent_agent_id = ANY($2::uuid[])`
	lockPosition = `
		SELECT agent_id FROM tree_positions
		WHERE agent_id = $1 AND fanout = $2
		FOR UPDATE`
	insertPosition = `
		INSERT INTO tree_positions
			(agent_id, fanout, plan_id, parent_agent_id, level_label, level, tree_owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertSlot = `
		INSERT INTO tree_slots (fanout, parent_agent_id, slot_index, child_agent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	selectCompleteParents = `
		SELECT parent_agent_id
		FROM tree_slots
		WHERE fanout = $1
		GROUP BY parent_agent_id
		HAVING COUNT(*) = $1
		ORDER BY parent_agent_id`
)

// PostgresTree stores positions in tree_positions and slot claims in tree_slots.
type PostgresTree struct {
	db *sql.DB
}

func NewPostgresTree(db *sql.DB) *PostgresTree {
	return &PostgresTree{db: db}
}

func (s *PostgresTree) FindPosition(ctx context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error) {
	found, err := s.FindPositions(ctx, []id.AgentID{agentID}, fanout)
	if err != nil {
		return nil, err
	}
	p, ok := found[agentID]
	if !ok {
		return nil, errPositionNotFound
	}
	return p, nil
}

// FindPositions loads a batch of positions with their slots in two queries.
// Agents without a position are absent from the result.
func (s *PostgresTree) FindPositions(ctx context.Context, agentIDs []id.AgentID, fanout int) (map[id.AgentID]*models.TreePosition, error) {
	out := make(map[id.AgentID]*models.TreePosition, len(agentIDs))
	if len(agentIDs) == 0 {
		return out, nil
	}
	keys := agentKeys(agentIDs)
	exec := txcontext.ExecutorFrom(ctx, s.db)

	rows, err := exec.QueryContext(ctx, selectPositions, fanout, pq.Array(keys))
	if err != nil {
		return nil, postgres.Translate(err, "find positions")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p      = models.TreePosition{Fanout: fanout, Slots: make([]id.AgentID, fanout)}
			parent uuid.NullUUID
		)
		if err := rows.Scan(&p.AgentID, &p.PlanID, &parent, &p.LevelLabel, &p.Level, &p.TreeOwnerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		if parent.Valid {
			parentID := id.AgentID(parent.UUID)
			p.ParentID = &parentID
		}
		out[p.AgentID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "find positions")
	}
	if len(out) == 0 {
		return out, nil
	}

	slotRows, err := exec.QueryContext(ctx, selectSlots, fanout, pq.Array(keys))
	if err != nil {
		return nil, postgres.Translate(err, "find slots")
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var (
			parentID, childID id.AgentID
			slotIndex         int
		)
		if err := slotRows.Scan(&parentID, &slotIndex, &childID); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		p, ok := out[parentID]
		if !ok {
			continue
		}
		if err := p.Fill(slotIndex, childID); err != nil {
			return nil, fmt.Errorf("load slot %d of %s: %w", slotIndex, parentID.String(), err)
		}
	}
	if err := slotRows.Err(); err != nil {
		return nil, postgres.Translate(err, "find slots")
	}
	return out, nil
}

// LockPosition takes a row lock on the position so concurrent writers to the
// same parent serialize, then reloads it with the latest committed slots.
func (s *PostgresTree) LockPosition(ctx context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, fmt.Errorf("lock position: no transaction in context")
	}
	var locked id.AgentID
	if err := tx.QueryRowContext(ctx, lockPosition, agentID, fanout).Scan(&locked); err != nil {
		return nil, postgres.Translate(err, "lock position")
	}
	return s.FindPosition(ctx, agentID, fanout)
}

func (s *PostgresTree) InsertPosition(ctx context.Context, position *models.TreePosition) error {
	var parent any
	if position.ParentID != nil {
		parent = *position.ParentID
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertPosition,
		position.AgentID,
		position.Fanout,
		position.PlanID,
		parent,
		position.LevelLabel,
		position.Level,
		position.TreeOwnerID,
		position.CreatedAt,
	)
	if constraint, ok := postgres.UniqueViolation(err); ok && constraint == "tree_positions_pkey" {
		return fmt.Errorf("insert position: %w", errAlreadyPlaced)
	}
	return postgres.Translate(err, "insert position")
}

func (s *PostgresTree) ClaimSlot(ctx context.Context, fanout int, parentID id.AgentID, slotIndex int, childID id.AgentID) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertSlot,
		fanout, parentID, slotIndex, childID, requestcontext.Now(ctx))
	if constraint, ok := postgres.UniqueViolation(err); ok {
		if strings.HasSuffix(constraint, "_pkey") {
			return fmt.Errorf("claim slot %d: %w", slotIndex, errSlotTaken)
		}
		return fmt.Errorf("claim slot: child already seated: %w", errAlreadyPlaced)
	}
	return postgres.Translate(err, "claim slot")
}

func (s *PostgresTree) ListCompleteParents(ctx context.Context, fanout int) ([]id.AgentID, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, selectCompleteParents, fanout)
	if err != nil {
		return nil, postgres.Translate(err, "list complete parents")
	}
	defer rows.Close()

	var out []id.AgentID
	for rows.Next() {
		var agentID id.AgentID
		if err := rows.Scan(&agentID); err != nil {
			return nil, fmt.Errorf("scan complete parent: %w", err)
		}
		out = append(out, agentID)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list complete parents")
	}
	return out, nil
}

func agentKeys(agentIDs []id.AgentID) []string {
	keys := make([]string, len(agentIDs))
	for i, agentID := range agentIDs {
		keys[i] = agentID.String()
	}
	return keys
}
