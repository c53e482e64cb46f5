// Package plans provides read-only access to compensation plan settings.
//
// Every lookup resolves an unknown plan to models.DefaultPlanSettings; range
// normalization is left to the caller so misconfigured rows can be logged once
// with request context.
package plans

import (
	"context"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

// Source is anything that can resolve plan settings.
type Source interface {
	Get(ctx context.Context, planID id.PlanID) (models.PlanSettings, error)
}
