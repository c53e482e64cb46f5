package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

type positionKey struct {
	agentID id.AgentID
	fanout  int
}

type memoryState struct {
	positions   map[positionKey]*models.TreePosition
	commissions map[id.CommissionID]*models.Commission
	rewards     map[id.RewardID]*models.LockedReward
}

// memoryTx journals the prior value of every row a transaction writes. A nil
// entry means the row did not exist.
type memoryTx struct {
	positions   map[positionKey]*models.TreePosition
	commissions map[id.CommissionID]*models.Commission
	rewards     map[id.RewardID]*models.LockedReward
}

func newMemoryTx() *memoryTx {
	return &memoryTx{
		positions:   make(map[positionKey]*models.TreePosition),
		commissions: make(map[id.CommissionID]*models.Commission),
		rewards:     make(map[id.RewardID]*models.LockedReward),
	}
}

func memoryTxFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	return tx
}

// The touch methods run under Memory.mu and are no-ops outside a transaction.

func (t *memoryTx) touchPosition(s memoryState, key positionKey) {
	if t == nil {
		return
	}
	if _, seen := t.positions[key]; seen {
		return
	}
	var prev *models.TreePosition
	if p, ok := s.positions[key]; ok {
		prev = p.Clone()
	}
	t.positions[key] = prev
}

func (t *memoryTx) touchCommission(s memoryState, commissionID id.CommissionID) {
	if t == nil {
		return
	}
	if _, seen := t.commissions[commissionID]; seen {
		return
	}
	var prev *models.Commission
	if c, ok := s.commissions[commissionID]; ok {
		prev = cloneCommission(c)
	}
	t.commissions[commissionID] = prev
}

func (t *memoryTx) touchReward(s memoryState, rewardID id.RewardID) {
	if t == nil {
		return
	}
	if _, seen := t.rewards[rewardID]; seen {
		return
	}
	var prev *models.LockedReward
	if r, ok := s.rewards[rewardID]; ok {
		prev = cloneReward(r)
	}
	t.rewards[rewardID] = prev
}

// undo restores the journaled rows. Rows the transaction never wrote are left
// alone, including ones written outside it in the meantime.
func (t *memoryTx) undo(s memoryState) {
	for key, prev := range t.positions {
		if prev == nil {
			delete(s.positions, key)
			continue
		}
		s.positions[key] = prev
	}
	for commissionID, prev := range t.commissions {
		if prev == nil {
			delete(s.commissions, commissionID)
			continue
		}
		s.commissions[commissionID] = prev
	}
	for rewardID, prev := range t.rewards {
		if prev == nil {
			delete(s.rewards, rewardID)
			continue
		}
		s.rewards[rewardID] = prev
	}
}

type memoryTxKey struct{}

// Memory implements every placement store in process. Transactions are
// serialized by a single-slot semaphore and rolled back from an undo journal,
// so it honours the same contract as Postgres for tests and local runs.
type Memory struct {
	mu    sync.RWMutex
	state memoryState
	txSem chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		state: memoryState{
			positions:   make(map[positionKey]*models.TreePosition),
			commissions: make(map[id.CommissionID]*models.Commission),
			rewards:     make(map[id.RewardID]*models.LockedReward),
		},
		txSem: make(chan struct{}, 1),
	}
}

// RunInTx runs fn with exclusive write access. Any error restores the rows fn
// wrote. Nested calls join the outer transaction.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}
	ctx, cancel := withTxDeadline(ctx, defaultTxTimeout)
	defer cancel()

	select {
	case m.txSem <- struct{}{}:
	case <-ctx.Done():
		return cancelledErr(ctx.Err())
	}
	defer func() { <-m.txSem }()

	tx := newMemoryTx()
	err := fn(context.WithValue(ctx, memoryTxKey{}, tx))
	if err == nil {
		err = ctx.Err()
		if err != nil {
			err = cancelledErr(err)
		}
	}
	if err != nil {
		m.mu.Lock()
		tx.undo(m.state)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) FindPosition(_ context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.state.positions[positionKey{agentID, fanout}]
	if !ok {
		return nil, errPositionNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) FindPositions(_ context.Context, agentIDs []id.AgentID, fanout int) (map[id.AgentID]*models.TreePosition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[id.AgentID]*models.TreePosition, len(agentIDs))
	for _, agentID := range agentIDs {
		if p, ok := m.state.positions[positionKey{agentID, fanout}]; ok {
			out[agentID] = p.Clone()
		}
	}
	return out, nil
}

// LockPosition is FindPosition; the transaction semaphore already excludes
// other writers.
func (m *Memory) LockPosition(ctx context.Context, agentID id.AgentID, fanout int) (*models.TreePosition, error) {
	if memoryTxFrom(ctx) == nil {
		return nil, fmt.Errorf("lock position: no transaction in context")
	}
	return m.FindPosition(ctx, agentID, fanout)
}

func (m *Memory) InsertPosition(ctx context.Context, position *models.TreePosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := positionKey{position.AgentID, position.Fanout}
	if _, exists := m.state.positions[key]; exists {
		return fmt.Errorf("insert position: %w", errAlreadyPlaced)
	}
	if position.ParentID != nil {
		if _, ok := m.state.positions[positionKey{*position.ParentID, position.Fanout}]; !ok {
			return fmt.Errorf("insert position: parent %s missing", position.ParentID.String())
		}
	}
	memoryTxFrom(ctx).touchPosition(m.state, key)
	m.state.positions[key] = position.Clone()
	return nil
}

func (m *Memory) ClaimSlot(ctx context.Context, fanout int, parentID id.AgentID, slotIndex int, childID id.AgentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.state.positions[positionKey{parentID, fanout}]
	if !ok {
		return fmt.Errorf("claim slot: parent: %w", errPositionNotFound)
	}
	if _, taken := parent.Occupant(slotIndex); taken {
		return fmt.Errorf("claim slot %d: %w", slotIndex, errSlotTaken)
	}
	for _, p := range m.state.positions {
		if p.Fanout != fanout {
			continue
		}
		for _, occupant := range p.Slots {
			if occupant == childID {
				return fmt.Errorf("claim slot: child already seated: %w", errAlreadyPlaced)
			}
		}
	}
	memoryTxFrom(ctx).touchPosition(m.state, positionKey{parentID, fanout})
	return parent.Fill(slotIndex, childID)
}

func (m *Memory) ListCompleteParents(_ context.Context, fanout int) ([]id.AgentID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []id.AgentID
	for key, p := range m.state.positions {
		if key.fanout == fanout && p.IsComplete() {
			out = append(out, key.agentID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (m *Memory) ReleasePending(ctx context.Context, fromAgentID id.AgentID, paidAt time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := memoryTxFrom(ctx)
	released := 0
	for commissionID, c := range m.state.commissions {
		if c.FromAgentID == fromAgentID && c.IsPending() {
			tx.touchCommission(m.state, commissionID)
			at := paidAt
			c.Status = models.CommissionPaid
			c.PaidAt = &at
			released++
		}
	}
	return released, nil
}

func (m *Memory) CreateCommission(ctx context.Context, c *models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.state.commissions[c.ID]; exists {
		return fmt.Errorf("create commission: %w", errAlreadyPlaced)
	}
	memoryTxFrom(ctx).touchCommission(m.state, c.ID)
	m.state.commissions[c.ID] = cloneCommission(c)
	return nil
}

// Commissions returns every commission ordered by creation time.
func (m *Memory) Commissions() []*models.Commission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Commission, 0, len(m.state.commissions))
	for _, c := range m.state.commissions {
		out = append(out, cloneCommission(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Memory) CreateReward(ctx context.Context, r *models.LockedReward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.state.rewards[r.ID]; exists {
		return fmt.Errorf("create reward: %w", errAlreadyPlaced)
	}
	memoryTxFrom(ctx).touchReward(m.state, r.ID)
	m.state.rewards[r.ID] = cloneReward(r)
	return nil
}

func (m *Memory) ListUnreleased(_ context.Context, agentID id.AgentID) ([]*models.LockedReward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.LockedReward
	for _, r := range m.state.rewards {
		if r.AgentID == agentID && !r.IsReleased {
			out = append(out, cloneReward(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) MarkReleased(ctx context.Context, rewardID id.RewardID, releasedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.rewards[rewardID]
	if !ok || r.IsReleased {
		return false, nil
	}
	memoryTxFrom(ctx).touchReward(m.state, rewardID)
	at := releasedAt
	r.IsReleased = true
	r.ReleasedAt = &at
	return true, nil
}

// Reward returns a copy of one reward.
func (m *Memory) Reward(rewardID id.RewardID) (*models.LockedReward, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.state.rewards[rewardID]
	if !ok {
		return nil, false
	}
	return cloneReward(r), true
}

func cloneCommission(c *models.Commission) *models.Commission {
	cp := *c
	if c.PaidAt != nil {
		at := *c.PaidAt
		cp.PaidAt = &at
	}
	return &cp
}

func cloneReward(r *models.LockedReward) *models.LockedReward {
	cp := *r
	if r.ReleasedAt != nil {
		at := *r.ReleasedAt
		cp.ReleasedAt = &at
	}
	return &cp
}
