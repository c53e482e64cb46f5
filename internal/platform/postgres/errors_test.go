package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert slot: %w", &pq.Error{Code: CodeUniqueViolation, Constraint: "tree_slots_pkey"})

	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "tree_slots_pkey", constraint)

	_, ok = UniqueViolation(&pq.Error{Code: CodeForeignKeyViolation})
	assert.False(t, ok)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: CodeSerializationFailure}, true},
		{"deadlock", &pq.Error{Code: CodeDeadlockDetected}, true},
		{"lock timeout", &pq.Error{Code: CodeLockNotAvailable}, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"bad conn", driver.ErrBadConn, true},
		{"unique violation", &pq.Error{Code: CodeUniqueViolation}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "noop"))
	assert.ErrorIs(t, Translate(sql.ErrNoRows, "find"), sentinel.ErrNotFound)
	assert.ErrorIs(t, Translate(&pq.Error{Code: CodeDeadlockDetected}, "update"), sentinel.ErrUnavailable)
	assert.ErrorIs(t, Translate(&pq.Error{Code: CodeUniqueViolation}, "insert"), sentinel.ErrAlreadyUsed)

	err := Translate(errors.New("syntax"), "query")
	assert.EqualError(t, err, "query: syntax")
	assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
}
