package models

import id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"

// TreeNode is a nested, read-only view of a subtree.
type TreeNode struct {
	AgentID    id.AgentID  `json:"agent_id"`
	Level      int         `json:"level"`
	LevelLabel string      `json:"level_label"`
	SlotIndex  int         `json:"slot_index,omitempty"`
	Children   []*TreeNode `json:"children,omitempty"`
}

// Size counts the nodes in the subtree.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.Children {
		total += child.Size()
	}
	return total
}
