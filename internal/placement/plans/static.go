package plans

import (
	"context"
	"sync"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

// Static serves plan settings from memory.
type Static struct {
	mu    sync.RWMutex
	plans map[id.PlanID]models.PlanSettings
}

func NewStatic(plans ...models.PlanSettings) *Static {
	s := &Static{plans: make(map[id.PlanID]models.PlanSettings, len(plans))}
	for _, p := range plans {
		s.plans[p.PlanID] = p
	}
	return s
}

// Put registers or replaces a plan.
func (s *Static) Put(p models.PlanSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.PlanID] = p
}

func (s *Static) Get(_ context.Context, planID id.PlanID) (models.PlanSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.plans[planID]; ok {
		return p, nil
	}
	return models.DefaultPlanSettings(planID), nil
}
