package records

import (
	"context"

	"github.com/dmitrijs2005/spendwise/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, t models.Table, f models.Filter) ([]models.Record, error)
	Insert(ctx context.Context, t models.Table, rec *models.Record) error
	Update(ctx context.Context, t models.Table, f models.Filter, p models.Patch) (int64, error)
	Delete(ctx context.Context, t models.Table, f models.Filter) (int64, error)
}
