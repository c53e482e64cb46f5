package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

func newAgent() id.AgentID {
	return id.AgentID(uuid.New())
}

func TestTreePositionSlots(t *testing.T) {
	root := NewRootPosition(newAgent(), id.PlanID(uuid.New()), 2, time.Now())

	slot, ok := root.FirstEmptySlot()
	require.True(t, ok)
	assert.Equal(t, 1, slot)

	require.NoError(t, root.Fill(1, newAgent()))
	err := root.Fill(1, newAgent())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	err = root.Fill(3, newAgent())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	slot, ok = root.FirstEmptySlot()
	require.True(t, ok)
	assert.Equal(t, 2, slot)
	assert.Equal(t, 1, root.FilledCount())
}

func TestTreePositionIsPaired(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fanout int
		filled int
		want   bool
	}{
		{name: "binary with one child", fanout: 2, filled: 1, want: false},
		{name: "binary with both children", fanout: 2, filled: 2, want: true},
		{name: "ternary complete", fanout: 3, filled: 3, want: true},
		{name: "single slot filled is a chain", fanout: 1, filled: 1, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := NewRootPosition(newAgent(), id.PlanID(uuid.New()), tc.fanout, time.Now())
			for i := 1; i <= tc.filled; i++ {
				require.NoError(t, p.Fill(i, newAgent()))
			}
			assert.Equal(t, tc.want, p.IsPaired())
			assert.Equal(t, tc.filled == tc.fanout, p.IsComplete())
		})
	}
}
