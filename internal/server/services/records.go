package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RecordService scopes every record operation to the row owner. A filter
// naming another owner matches nothing.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

// scope binds f to owner and reports whether it can match any row.
func scope(owner string, f models.Filter) (models.Filter, bool) {
	if f.UserEmail != "" && !strings.EqualFold(f.UserEmail, owner) {
		return f, false
	}
	f.UserEmail = owner
	return f, true
}

func (s *RecordService) List(ctx context.Context, owner string, t models.Table, f models.Filter) ([]models.Record, error) {
	f, ok := scope(owner, f)
	if !ok {
		return []models.Record{}, nil
	}
	return s.repomanager.Records(s.db).List(ctx, t, f)
}

// Create stores rec for owner. A missing id is generated; a row claiming
// another owner is rejected.
func (s *RecordService) Create(ctx context.Context, owner string, t models.Table, rec *models.Record) error {
	if rec.UserEmail != "" && !strings.EqualFold(rec.UserEmail, owner) {
		return fmt.Errorf("%w: row owner mismatch", common.ErrUnauthorized)
	}
	rec.UserEmail = owner
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := validate(t, rec); err != nil {
		return err
	}
	return s.repomanager.Records(s.db).Insert(ctx, t, rec)
}

func validate(t models.Table, rec *models.Record) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown table %q", common.ErrValidation, t)
	}
	switch {
	case strings.TrimSpace(rec.Title) == "":
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	case rec.Amount.IsNegative():
		return fmt.Errorf("%w: amount must not be negative", common.ErrValidation)
	case rec.Currency == "":
		return fmt.Errorf("%w: currency is required", common.ErrValidation)
	case rec.Category == "":
		return fmt.Errorf("%w: category is required", common.ErrValidation)
	case rec.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", common.ErrValidation)
	}
	return nil
}

// Update applies p to the owner's matching rows and returns how many
// changed.
func (s *RecordService) Update(ctx context.Context, owner string, t models.Table, f models.Filter, p models.Patch) (int64, error) {
	f, ok := scope(owner, f)
	if !ok {
		return 0, nil
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", common.ErrValidation)
	}
	return s.repomanager.Records(s.db).Update(ctx, t, f, p)
}

func (s *RecordService) Delete(ctx context.Context, owner string, t models.Table, f models.Filter) (int64, error) {
	f, ok := scope(owner, f)
	if !ok {
		return 0, nil
	}
	return s.repomanager.Records(s.db).Delete(ctx, t, f)
}
