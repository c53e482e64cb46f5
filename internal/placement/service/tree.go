package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
)

// Tree materializes the subtree rooted at agentID in the tree of planID's
// fanout. Levels are expanded breadth-first with an explicit queue; at most
// maxDepth levels below the agent are returned.
func (s *Service) Tree(ctx context.Context, agentID id.AgentID, planID id.PlanID) (*models.TreeNode, error) {
	ctx, span := s.tracer.Start(ctx, "placement.Tree", trace.WithAttributes(
		attribute.String("agent_id", agentID.String()),
		attribute.String("plan_id", planID.String()),
	))
	defer span.End()

	plan, err := s.planSettings(ctx, planID)
	if err != nil {
		return nil, err
	}
	root, err := s.tree.FindPosition(ctx, agentID, plan.Fanout)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "agent has no position in the plan's tree")
	}
	if err != nil {
		return nil, translateStoreError(err, "failed to load tree")
	}

	type entry struct {
		position *models.TreePosition
		node     *models.TreeNode
	}
	rootNode := &models.TreeNode{AgentID: root.AgentID, Level: root.Level, LevelLabel: root.LevelLabel}
	visited := map[id.AgentID]struct{}{root.AgentID: {}}
	queue := []entry{{position: root, node: rootNode}}

	for depth := 1; len(queue) > 0 && depth <= plan.MaxDepth; depth++ {
		var (
			childIDs []id.AgentID
			owners   []*models.TreeNode
			slots    []int
		)
		for _, e := range queue {
			for i, occupant := range e.position.Slots {
				if occupant.IsNil() {
					continue
				}
				if _, seen := visited[occupant]; seen {
					continue
				}
				visited[occupant] = struct{}{}
				childIDs = append(childIDs, occupant)
				owners = append(owners, e.node)
				slots = append(slots, i+1)
			}
		}
		if len(childIDs) == 0 {
			break
		}

		loaded, err := s.tree.FindPositions(ctx, childIDs, plan.Fanout)
		if err != nil {
			return nil, translateStoreError(err, "failed to load tree")
		}
		queue = queue[:0]
		for i, childID := range childIDs {
			position, ok := loaded[childID]
			if !ok {
				return nil, s.corruptTree(ctx, childID, plan.Fanout, "slot occupant has no position")
			}
			node := &models.TreeNode{
				AgentID:    position.AgentID,
				Level:      position.Level,
				LevelLabel: position.LevelLabel,
				SlotIndex:  slots[i],
			}
			owners[i].Children = append(owners[i].Children, node)
			queue = append(queue, entry{position: position, node: node})
		}
	}

	span.SetAttributes(attribute.Int("nodes", rootNode.Size()))
	return rootNode, nil
}
