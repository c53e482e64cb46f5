package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Memory
	plan  id.PlanID
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
	s.plan = id.PlanID(uuid.New())
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newAgent() id.AgentID {
	return id.AgentID(uuid.New())
}

func (s *MemoryStoreSuite) insertRoot(fanout int) *models.TreePosition {
	root := models.NewRootPosition(newAgent(), s.plan, fanout, s.now)
	s.Require().NoError(s.store.InsertPosition(s.ctx, root))
	return root
}

func (s *MemoryStoreSuite) place(parent *models.TreePosition, slot int) *models.TreePosition {
	child := models.NewChildPosition(newAgent(), s.plan, parent.SlotFor(slot), s.now)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.InsertPosition(ctx, child); err != nil {
			return err
		}
		return s.store.ClaimSlot(ctx, parent.Fanout, parent.AgentID, slot, child.AgentID)
	}))
	return child
}

func (s *MemoryStoreSuite) TestPositionsArePartitionedByFanout() {
	root := s.insertRoot(2)

	_, err := s.store.FindPosition(s.ctx, root.AgentID, 3)
	s.ErrorIs(err, sentinel.ErrNotFound)

	other := models.NewRootPosition(root.AgentID, s.plan, 3, s.now)
	s.NoError(s.store.InsertPosition(s.ctx, other))

	err = s.store.InsertPosition(s.ctx, models.NewRootPosition(root.AgentID, s.plan, 2, s.now))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *MemoryStoreSuite) TestClaimSlot() {
	root := s.insertRoot(2)
	a := s.place(root, 1)

	s.Run("filled slot conflicts", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.store.ClaimSlot(ctx, 2, root.AgentID, 1, newAgent())
		})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("seated child cannot take a second slot", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.store.ClaimSlot(ctx, 2, root.AgentID, 2, a.AgentID)
		})
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	got, err := s.store.FindPosition(s.ctx, root.AgentID, 2)
	s.Require().NoError(err)
	occupant, ok := got.Occupant(1)
	s.True(ok)
	s.Equal(a.AgentID, occupant)
	s.Equal(1, got.FilledCount())
}

func (s *MemoryStoreSuite) TestRunInTxRollsBackOnError() {
	root := s.insertRoot(2)
	child := models.NewChildPosition(newAgent(), s.plan, root.SlotFor(1), s.now)
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.InsertPosition(ctx, child))
		s.Require().NoError(s.store.ClaimSlot(ctx, 2, root.AgentID, 1, child.AgentID))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindPosition(s.ctx, child.AgentID, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
	got, err := s.store.FindPosition(s.ctx, root.AgentID, 2)
	s.Require().NoError(err)
	s.Zero(got.FilledCount())
}

func (s *MemoryStoreSuite) TestRollbackKeepsWritesMadeOutsideTheTransaction() {
	root := s.insertRoot(2)
	child := models.NewChildPosition(newAgent(), s.plan, root.SlotFor(1), s.now)
	from := newAgent()
	released := &models.Commission{ID: id.NewCommissionID(), AgentID: newAgent(), FromAgentID: from, PlanID: s.plan, Amount: 10, Status: models.CommissionPending, CreatedAt: s.now}
	s.Require().NoError(s.store.CreateCommission(s.ctx, released))
	seeded := &models.Commission{ID: id.NewCommissionID(), AgentID: newAgent(), FromAgentID: newAgent(), PlanID: s.plan, Amount: 30, Status: models.CommissionPending, CreatedAt: s.now}
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.InsertPosition(ctx, child))
		s.Require().NoError(s.store.ClaimSlot(ctx, 2, root.AgentID, 1, child.AgentID))
		n, err := s.store.ReleasePending(ctx, from, s.now)
		s.Require().NoError(err)
		s.Require().Equal(1, n)

		// a concurrent writer outside the transaction
		s.Require().NoError(s.store.CreateCommission(s.ctx, seeded))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindPosition(s.ctx, child.AgentID, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
	got, err := s.store.FindPosition(s.ctx, root.AgentID, 2)
	s.Require().NoError(err)
	s.Zero(got.FilledCount())

	commissions := map[id.CommissionID]*models.Commission{}
	for _, c := range s.store.Commissions() {
		commissions[c.ID] = c
	}
	s.Require().Contains(commissions, seeded.ID)
	s.True(commissions[seeded.ID].IsPending())
	s.Require().Contains(commissions, released.ID)
	s.True(commissions[released.ID].IsPending())
	s.Nil(commissions[released.ID].PaidAt)
}

func (s *MemoryStoreSuite) TestLockPositionRequiresTransaction() {
	root := s.insertRoot(2)

	_, err := s.store.LockPosition(s.ctx, root.AgentID, 2)
	s.Error(err)

	s.NoError(s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.store.LockPosition(ctx, root.AgentID, 2)
		return err
	}))
}

func (s *MemoryStoreSuite) TestFindPositionsSkipsUnknownAgents() {
	root := s.insertRoot(2)
	a := s.place(root, 1)
	missing := newAgent()

	found, err := s.store.FindPositions(s.ctx, []id.AgentID{root.AgentID, a.AgentID, missing}, 2)
	s.Require().NoError(err)
	s.Len(found, 2)
	s.NotContains(found, missing)
}

func (s *MemoryStoreSuite) TestListCompleteParents() {
	root := s.insertRoot(2)
	a := s.place(root, 1)
	s.place(root, 2)
	s.place(a, 1)

	complete, err := s.store.ListCompleteParents(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal([]id.AgentID{root.AgentID}, complete)
}

func (s *MemoryStoreSuite) TestReleasePendingIsIdempotent() {
	from := newAgent()
	for _, status := range []models.CommissionStatus{models.CommissionPending, models.CommissionPending, models.CommissionPaid} {
		c := &models.Commission{ID: id.NewCommissionID(), AgentID: newAgent(), FromAgentID: from, PlanID: s.plan, Amount: 50, Status: status, CreatedAt: s.now}
		if status == models.CommissionPaid {
			paid := s.now
			c.PaidAt = &paid
		}
		s.Require().NoError(s.store.CreateCommission(s.ctx, c))
	}

	n, err := s.store.ReleasePending(s.ctx, from, s.now)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.store.ReleasePending(s.ctx, from, s.now)
	s.Require().NoError(err)
	s.Zero(n)

	for _, c := range s.store.Commissions() {
		s.Equal(models.CommissionPaid, c.Status)
		s.NotNil(c.PaidAt)
	}
}

func (s *MemoryStoreSuite) TestMarkReleasedHasOneWinner() {
	reward := &models.LockedReward{ID: id.NewRewardID(), AgentID: newAgent(), PlanID: s.plan, LockedAmount: 100, CreatedAt: s.now}
	s.Require().NoError(s.store.CreateReward(s.ctx, reward))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.store.MarkReleased(s.ctx, reward.ID, s.now)
			s.NoError(err)
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, winners)
	unreleased, err := s.store.ListUnreleased(s.ctx, reward.AgentID)
	s.Require().NoError(err)
	s.Empty(unreleased)
}

func TestMemoryRunInTxHonoursCancellation(t *testing.T) {
	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
}

func TestMemoryRunInTxSerializesWriters(t *testing.T) {
	store := NewMemory()
	var (
		wg      sync.WaitGroup
		active  int
		mu      sync.Mutex
		maxSeen int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.RunInTx(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
