package service

import (
	"context"
	"sync"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/events"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

func (s *PlacementSuite) pendingCommission(from id.AgentID, plan id.PlanID, amount int64) *models.Commission {
	s.T().Helper()
	c := &models.Commission{
		ID:          id.NewCommissionID(),
		AgentID:     newAgent(),
		FromAgentID: from,
		PlanID:      plan,
		Amount:      amount,
		Level:       1,
		Status:      models.CommissionPending,
		CreatedAt:   time.Now(),
	}
	s.Require().NoError(s.store.CreateCommission(s.ctx, c))
	return c
}

func (s *PlacementSuite) lockedReward(owner id.AgentID, plan id.PlanID, amount int64) *models.LockedReward {
	s.T().Helper()
	r := &models.LockedReward{
		ID:           id.NewRewardID(),
		AgentID:      owner,
		PlanID:       plan,
		LockedAmount: amount,
		CreatedAt:    time.Now(),
	}
	s.Require().NoError(s.store.CreateReward(s.ctx, r))
	return r
}

func (s *PlacementSuite) commissionsFor(agentID id.AgentID) []*models.Commission {
	var out []*models.Commission
	for _, c := range s.store.Commissions() {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return out
}

func (s *PlacementSuite) commissionsFrom(agentID id.AgentID) []*models.Commission {
	var out []*models.Commission
	for _, c := range s.store.Commissions() {
		if c.FromAgentID == agentID {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// Pairing release
// =============================================================================

func (s *PlacementSuite) TestPairingReleasesCommissionsWhenParentFills() {
	root := s.place(s.binary, nil)
	s.pendingCommission(root.AgentID, s.binary.PlanID, 40)
	s.pendingCommission(root.AgentID, s.binary.PlanID, 60)
	unrelated := s.pendingCommission(newAgent(), s.binary.PlanID, 10)

	s.Run("one filled slot releases nothing", func() {
		agent := newAgent()
		s.owners.Grant(agent, s.binary.PlanID)
		result, err := s.service.PlaceAgent(s.ctx, agent, s.binary.PlanID, &root.AgentID)
		s.Require().NoError(err)
		s.Zero(result.CommissionsReleased)
		for _, c := range s.commissionsFrom(root.AgentID) {
			s.True(c.IsPending())
		}
	})

	s.Run("the pair releases every pending commission from the parent", func() {
		agent := newAgent()
		s.owners.Grant(agent, s.binary.PlanID)
		result, err := s.service.PlaceAgent(s.ctx, agent, s.binary.PlanID, &root.AgentID)
		s.Require().NoError(err)
		s.Equal(2, result.CommissionsReleased)
		for _, c := range s.commissionsFrom(root.AgentID) {
			s.Equal(models.CommissionPaid, c.Status)
			s.NotNil(c.PaidAt)
		}
	})

	s.Run("commissions from other agents stay pending", func() {
		for _, c := range s.commissionsFrom(unrelated.FromAgentID) {
			s.True(c.IsPending())
		}
	})

	s.Run("a released pair is never released again", func() {
		s.pendingCommission(root.AgentID, s.binary.PlanID, 5)
		spill := s.place(s.binary, root)
		s.NotEqual(root.AgentID, *spill.ParentID)
		pending := 0
		for _, c := range s.commissionsFrom(root.AgentID) {
			if c.IsPending() {
				pending++
			}
		}
		s.Equal(1, pending)
	})

	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.CommissionsReleased.WithLabelValues(metrics.TriggerPairing)))
	s.Contains(s.publisher.types(), events.TypeCommissionsReleased)
}

func (s *PlacementSuite) TestSingleSlotTreesNeverPair() {
	unary := models.PlanSettings{PlanID: newPlan(), Fanout: 1, MaxDepth: 50}
	s.plans.Put(unary)
	root := s.place(unary, nil)
	s.pendingCommission(root.AgentID, unary.PlanID, 25)

	s.place(unary, root)

	s.Require().Len(s.commissionsFrom(root.AgentID), 1)
	s.True(s.commissionsFrom(root.AgentID)[0].IsPending())
}

// =============================================================================
// Max-depth unlock
// =============================================================================
// Rewards are keyed to their own plan's max depth, so a reward plan with a
// shallow max depth unlocks inside a deeper tree.

type depthFixture struct {
	upline, left, right *models.TreePosition
	deep                *models.TreePosition
	reward              *models.LockedReward
	distant             *models.LockedReward
}

func (s *PlacementSuite) buildDepthFixture() depthFixture {
	rewardPlan := models.PlanSettings{PlanID: newPlan(), Fanout: 2, MaxDepth: 3}
	s.plans.Put(rewardPlan)

	var f depthFixture
	f.upline = s.place(s.binary, nil)
	f.reward = s.lockedReward(f.upline.AgentID, rewardPlan.PlanID, 100)
	f.distant = s.lockedReward(f.upline.AgentID, s.binary.PlanID, 70)

	f.left = s.place(s.binary, f.upline)
	f.right = s.place(s.binary, f.upline)
	f.deep = s.place(s.binary, f.left)
	s.place(s.binary, f.left)
	return f
}

func (s *PlacementSuite) TestCompletionAtMaxDepthUnlocksUplineReward() {
	f := s.buildDepthFixture()

	s.Run("completion above max depth unlocks nothing", func() {
		r, ok := s.store.Reward(f.reward.ID)
		s.Require().True(ok)
		s.False(r.IsReleased)
		s.Empty(s.commissionsFor(f.upline.AgentID))
	})

	s.place(s.binary, f.deep)
	agent := newAgent()
	s.owners.Grant(agent, s.binary.PlanID)
	result, err := s.service.PlaceAgent(s.ctx, agent, s.binary.PlanID, &f.deep.AgentID)
	s.Require().NoError(err)

	s.Require().Len(result.UnlockedRewards, 1)
	s.Equal(f.reward.ID, result.UnlockedRewards[0].ID)

	r, _ := s.store.Reward(f.reward.ID)
	s.True(r.IsReleased)
	s.NotNil(r.ReleasedAt)
	distant, _ := s.store.Reward(f.distant.ID)
	s.False(distant.IsReleased)

	payouts := s.commissionsFor(f.upline.AgentID)
	s.Require().Len(payouts, 1)
	s.Equal(int64(100), payouts[0].Amount)
	s.Equal(f.deep.AgentID, payouts[0].FromAgentID)
	s.Equal(models.CommissionPaid, payouts[0].Status)
	s.Equal(0, payouts[0].Level)
	s.Contains(s.publisher.types(), events.TypeRewardUnlocked)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.RewardsUnlocked))
}

func (s *PlacementSuite) TestRewardUnlocksExactlyOnce() {
	f := s.buildDepthFixture()
	s.place(s.binary, f.deep)
	s.place(s.binary, f.deep)

	s.Run("re-running the trigger is a no-op", func() {
		var unlocked []*models.LockedReward
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			var err error
			unlocked, err = s.service.onPairingComplete(ctx, f.deep.AgentID, f.deep.Level, 2)
			return err
		})
		s.Require().NoError(err)
		s.Empty(unlocked)
	})

	s.Run("another completion at max depth finds nothing left", func() {
		sibling := s.position(f.left.AgentID, 2).Slots[1]
		siblingPos := s.position(sibling, 2)
		s.place(s.binary, siblingPos)
		s.place(s.binary, siblingPos)
	})

	s.Run("concurrent completions below the reward depth leave it locked", func() {
		rewardPlan := f.reward.PlanID
		second := s.lockedReward(f.upline.AgentID, rewardPlan, 30)
		parent := s.position(f.right.AgentID, 2)

		var wg sync.WaitGroup
		for range 2 {
			agent := newAgent()
			s.owners.Grant(agent, s.binary.PlanID)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.service.PlaceAgent(s.ctx, agent, s.binary.PlanID, &parent.AgentID)
				s.NoError(err)
			}()
		}
		wg.Wait()

		// right completes at level 2, below the reward plan's max depth
		r, _ := s.store.Reward(second.ID)
		s.False(r.IsReleased)
	})

	s.Len(s.commissionsFor(f.upline.AgentID), 1)
}

func (s *PlacementSuite) TestConcurrentDepthCompletionsPayOnce() {
	rewardPlan := models.PlanSettings{PlanID: newPlan(), Fanout: 2, MaxDepth: 3}
	s.plans.Put(rewardPlan)

	upline := s.place(s.binary, nil)
	reward := s.lockedReward(upline.AgentID, rewardPlan.PlanID, 100)
	left := s.place(s.binary, upline)
	right := s.place(s.binary, upline)
	a := s.place(s.binary, left)
	s.place(s.binary, left)
	c := s.place(s.binary, right)
	s.place(s.binary, right)
	s.place(s.binary, a)
	s.place(s.binary, c)

	r, _ := s.store.Reward(reward.ID)
	s.Require().False(r.IsReleased)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		unlocked int
	)
	for _, sponsor := range []*models.TreePosition{a, c} {
		agent := newAgent()
		s.owners.Grant(agent, s.binary.PlanID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.service.PlaceAgent(s.ctx, agent, s.binary.PlanID, &sponsor.AgentID)
			if !s.NoError(err) {
				return
			}
			s.Equal(sponsor.AgentID, *result.Position.ParentID)
			mu.Lock()
			unlocked += len(result.UnlockedRewards)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(1, unlocked)
	r, _ = s.store.Reward(reward.ID)
	s.True(r.IsReleased)
	payouts := s.commissionsFor(upline.AgentID)
	s.Require().Len(payouts, 1)
	s.Equal(int64(100), payouts[0].Amount)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.RewardsUnlocked))
}

func (s *PlacementSuite) TestIncompleteNodeUnlocksNothing() {
	f := s.buildDepthFixture()
	s.place(s.binary, f.deep)

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		unlocked, err := s.service.onPairingComplete(ctx, f.deep.AgentID, 10, 2)
		s.Empty(unlocked)
		return err
	})

	s.NoError(err)
	r, _ := s.store.Reward(f.reward.ID)
	s.False(r.IsReleased)
}

// =============================================================================
// Tree and reconciliation
// =============================================================================

func (s *PlacementSuite) TestTreeMaterializesSubtree() {
	root := s.place(s.binary, nil)
	a := s.place(s.binary, root)
	b := s.place(s.binary, root)
	c := s.place(s.binary, root)

	tree, err := s.service.Tree(s.ctx, root.AgentID, s.binary.PlanID)
	s.Require().NoError(err)

	s.Equal(4, tree.Size())
	s.Require().Len(tree.Children, 2)
	s.Equal(a.AgentID, tree.Children[0].AgentID)
	s.Equal(1, tree.Children[0].SlotIndex)
	s.Equal(b.AgentID, tree.Children[1].AgentID)
	s.Equal(2, tree.Children[1].SlotIndex)
	s.Require().Len(tree.Children[0].Children, 1)
	s.Equal(c.AgentID, tree.Children[0].Children[0].AgentID)
	s.Equal(3, tree.Children[0].Children[0].Level)

	sub, err := s.service.Tree(s.ctx, a.AgentID, s.binary.PlanID)
	s.Require().NoError(err)
	s.Equal(2, sub.Size())

	_, err = s.service.Tree(s.ctx, newAgent(), s.binary.PlanID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PlacementSuite) TestReconcileRepairsMissedReleases() {
	root := s.place(s.binary, nil)
	s.place(s.binary, root)
	s.place(s.binary, root)

	// written after the pair completed, so no placement trigger will see it
	late := s.pendingCommission(root.AgentID, s.binary.PlanID, 15)

	result, err := s.service.Reconcile(s.ctx, s.binary.PlanID)
	s.Require().NoError(err)
	s.Equal(2, result.Fanout)
	s.Equal(1, result.NodesChecked)
	s.Equal(1, result.CommissionsReleased)
	for _, c := range s.commissionsFrom(late.FromAgentID) {
		s.Equal(models.CommissionPaid, c.Status)
	}

	again, err := s.service.Reconcile(s.ctx, s.binary.PlanID)
	s.Require().NoError(err)
	s.Zero(again.CommissionsReleased)
	s.Zero(again.RewardsUnlocked)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CommissionsReleased.WithLabelValues(metrics.TriggerReconcile)))
}

func (s *PlacementSuite) TestShallowPlanScenario() {
	plan := models.PlanSettings{PlanID: newPlan(), Fanout: 2, MaxDepth: 3}
	s.plans.Put(plan)

	root := s.place(plan, nil)
	s.pendingCommission(root.AgentID, plan.PlanID, 20)

	a := s.place(plan, root)
	s.Equal(2, a.Level)
	s.Equal("child_1", a.LevelLabel)

	agent := newAgent()
	s.owners.Grant(agent, plan.PlanID)
	b, err := s.service.PlaceAgent(s.ctx, agent, plan.PlanID, &root.AgentID)
	s.Require().NoError(err)
	s.Equal("child_2", b.Position.LevelLabel)
	s.Equal(1, b.CommissionsReleased)

	c := s.place(plan, root)
	s.Equal(a.AgentID, *c.ParentID)
	s.Equal(3, c.Level)
	s.Equal("child_1", c.LevelLabel)
}
