package plans

import (
	"context"
	"database/sql"
	"errors"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	txcontext "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/tx"
)

const selectPlanSettings = `
	SELECT pairing_limit, max_depth, cashback_percentage
	FROM plans
	WHERE id = $1`

// PostgresLookup reads plan settings from the plans table.
type PostgresLookup struct {
	db *sql.DB
}

func NewPostgresLookup(db *sql.DB) *PostgresLookup {
	return &PostgresLookup{db: db}
}

func (l *PostgresLookup) Get(ctx context.Context, planID id.PlanID) (models.PlanSettings, error) {
	settings := models.PlanSettings{PlanID: planID}
	err := txcontext.ExecutorFrom(ctx, l.db).
		QueryRowContext(ctx, selectPlanSettings, planID).
		Scan(&settings.Fanout, &settings.MaxDepth, &settings.CashbackPercentage)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPlanSettings(planID), nil
	}
	if err != nil {
		return models.PlanSettings{}, postgres.Translate(err, "load plan settings")
	}
	return settings, nil
}
