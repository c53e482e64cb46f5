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

// resolve finds the slot a new agent under sponsorID takes: the sponsor's first
// empty slot, else the first empty slot found breadth-first through the
// downline, nodes in level order and slots ascending within a node.
//
// A node can only take children while its level is below maxDepth, so deeper
// nodes are neither offered nor expanded.
func (s *Service) resolve(ctx context.Context, sponsorID id.AgentID, plan models.PlanSettings) (*models.Slot, error) {
	defer s.metrics.ObserveResolve(time.Now())

	sponsor, err := s.tree.FindPosition(ctx, sponsorID, plan.Fanout)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.Fail(models.ErrSponsorNotInTree, "sponsor has no position in the plan's tree")
	}
	if err != nil {
		return nil, err
	}
	if sponsor.Level >= plan.MaxDepth {
		return nil, models.Fail(models.ErrMaxDepthReached,
			fmt.Sprintf("sponsor is at level %d, max depth is %d", sponsor.Level, plan.MaxDepth))
	}
	if index, ok := sponsor.FirstEmptySlot(); ok {
		slot := sponsor.SlotFor(index)
		return &slot, nil
	}

	visited := map[id.AgentID]struct{}{sponsor.AgentID: {}}
	frontier := []*models.TreePosition{sponsor}
	inspected := 1
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []id.AgentID
		for _, node := range frontier {
			if node.Level+1 >= plan.MaxDepth {
				continue
			}
			for _, child := range node.Occupants() {
				if _, seen := visited[child]; seen {
					s.logger.WarnContext(ctx, "cycle in placement tree, skipping node",
						"agent_id", child.String(),
						"parent_id", node.AgentID.String(),
						"fanout", plan.Fanout,
					)
					continue
				}
				visited[child] = struct{}{}
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			break
		}

		loaded, err := s.tree.FindPositions(ctx, next, plan.Fanout)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, agentID := range next {
			node, ok := loaded[agentID]
			if !ok {
				return nil, s.corruptTree(ctx, agentID, plan.Fanout, "slot occupant has no position")
			}
			inspected++
			if index, ok := node.FirstEmptySlot(); ok {
				s.metrics.ObserveBFSNodes(inspected)
				slot := node.SlotFor(index)
				return &slot, nil
			}
			frontier = append(frontier, node)
		}
	}

	s.metrics.ObserveBFSNodes(inspected)
	return nil, models.Fail(models.ErrNoAvailablePosition, "no open slot under the sponsor within max depth")
}

// corruptTree logs a broken structural invariant and returns it as an error.
func (s *Service) corruptTree(ctx context.Context, agentID id.AgentID, fanout int, detail string) error {
	s.logger.ErrorContext(ctx, "corrupt placement tree",
		"request_id", requestcontext.RequestID(ctx),
		"agent_id", agentID.String(),
		"fanout", fanout,
		"detail", detail,
	)
	return models.Fail(models.ErrCorruptTree, fmt.Sprintf("%s: %s", detail, agentID.String()))
}
