// Package records stores incomes and expenses in PostgreSQL. Both tables
// share a layout; only expenses carry a type column.
package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/dbx"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func columns(t models.Table) []string {
	cols := []string{"id", "user_email", "title", "occurred_at", "amount", "currency", "category"}
	if t == models.TableExpenses {
		cols = append(cols, "type")
	}
	return append(cols, "note", "photo_url", "is_deleted", "deleted_at", "created_at")
}

func checkTable(t models.Table) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown table %q", common.ErrValidation, t)
	}
	return nil
}

// args accumulates positional parameters.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func (a *args) where(f models.Filter) string {
	var conds []string
	if f.ID != "" {
		conds = append(conds, "id = "+a.add(f.ID))
	}
	if f.UserEmail != "" {
		conds = append(conds, "user_email = "+a.add(f.UserEmail))
	}
	if f.IsDeleted != nil {
		conds = append(conds, "is_deleted = "+a.add(*f.IsDeleted))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *PostgresRepository) List(ctx context.Context, t models.Table, f models.Filter) ([]models.Record, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}

	var a args
	query := "SELECT " + strings.Join(columns(t), ", ") + " FROM " + string(t) + a.where(f)
	if f.NewestFirst {
		query += " ORDER BY occurred_at DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Record, 0)
	for rows.Next() {
		var rec models.Record
		dest := []any{&rec.ID, &rec.UserEmail, &rec.Title, &rec.OccurredAt, &rec.Amount, &rec.Currency, &rec.Category}
		if t == models.TableExpenses {
			dest = append(dest, &rec.Type)
		}
		dest = append(dest, &rec.Note, &rec.PhotoURL, &rec.IsDeleted, &rec.DeletedAt, &rec.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Insert stores rec and fills CreatedAt. A duplicate id yields
// common.ErrAlreadyExists.
func (r *PostgresRepository) Insert(ctx context.Context, t models.Table, rec *models.Record) error {
	if err := checkTable(t); err != nil {
		return err
	}

	var a args
	cols := []string{"id", "user_email", "title", "occurred_at", "amount", "currency", "category"}
	vals := []string{a.add(rec.ID), a.add(rec.UserEmail), a.add(rec.Title), a.add(rec.OccurredAt), a.add(rec.Amount), a.add(rec.Currency), a.add(rec.Category)}
	if t == models.TableExpenses && rec.Type != nil {
		cols = append(cols, "type")
		vals = append(vals, a.add(*rec.Type))
	}
	cols = append(cols, "note", "photo_url", "is_deleted", "deleted_at")
	vals = append(vals, a.add(rec.Note), a.add(rec.PhotoURL), a.add(rec.IsDeleted), a.add(rec.DeletedAt))

	query := "INSERT INTO " + string(t) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ") RETURNING created_at"

	err := r.db.QueryRowContext(ctx, query, a...).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update applies p to the rows matching f and returns the number changed.
func (r *PostgresRepository) Update(ctx context.Context, t models.Table, f models.Filter, p models.Patch) (int64, error) {
	if err := checkTable(t); err != nil {
		return 0, err
	}

	var a args
	var sets []string
	set := func(col string, v any) { sets = append(sets, col+" = "+a.add(v)) }
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.OccurredAt != nil {
		set("occurred_at", *p.OccurredAt)
	}
	if p.Amount != nil {
		set("amount", *p.Amount)
	}
	if p.Currency != nil {
		set("currency", *p.Currency)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Type != nil && t == models.TableExpenses {
		set("type", *p.Type)
	}
	if p.Note != nil {
		set("note", *p.Note)
	} else if p.ClearNote {
		set("note", nil)
	}
	if p.PhotoURL != nil {
		set("photo_url", *p.PhotoURL)
	} else if p.ClearPhotoURL {
		set("photo_url", nil)
	}
	if p.IsDeleted != nil {
		set("is_deleted", *p.IsDeleted)
	}
	if p.DeletedAt != nil {
		set("deleted_at", *p.DeletedAt)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	where := a.where(f)
	if where == "" {
		return 0, fmt.Errorf("%w: update without filter", common.ErrValidation)
	}
	query := "UPDATE " + string(t) + " SET " + strings.Join(sets, ", ") + where
	return r.exec(ctx, query, a)
}

// Delete removes the rows matching f. An empty filter is rejected.
func (r *PostgresRepository) Delete(ctx context.Context, t models.Table, f models.Filter) (int64, error) {
	if err := checkTable(t); err != nil {
		return 0, err
	}

	var a args
	where := a.where(f)
	if where == "" {
		return 0, fmt.Errorf("%w: delete without filter", common.ErrValidation)
	}
	return r.exec(ctx, "DELETE FROM "+string(t)+where, a)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, a args) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, a...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
