// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Table names the two record collections. Its value is the resource name
// in /rest/v1/{table}.
type Table string

const (
	TableIncomes  Table = "incomes"
	TableExpenses Table = "expenses"
)

func (t Table) Valid() bool {
	return t == TableIncomes || t == TableExpenses
}

// Record is one row of incomes or expenses. Type is only stored for
// expenses.
type Record struct {
	ID         string          `db:"id"`
	UserEmail  string          `db:"user_email"`
	Title      string          `db:"title"`
	OccurredAt time.Time       `db:"occurred_at"`
	Amount     decimal.Decimal `db:"amount"`
	Currency   string          `db:"currency"`
	Category   string          `db:"category"`
	Type       *string         `db:"type"`
	Note       *string         `db:"note"`
	PhotoURL   *string         `db:"photo_url"`
	IsDeleted  bool            `db:"is_deleted"`
	DeletedAt  *time.Time      `db:"deleted_at"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Filter selects rows. Empty fields do not constrain.
type Filter struct {
	ID        string
	UserEmail string
	IsDeleted *bool
	// NewestFirst orders by occurred_at descending.
	NewestFirst bool
}

// Patch lists the columns to change; nil fields are left untouched.
type Patch struct {
	Title      *string
	OccurredAt *time.Time
	Amount     *decimal.Decimal
	Currency   *string
	Category   *string
	Type       *string
	Note       *string
	PhotoURL   *string
	IsDeleted  *bool
	DeletedAt  *time.Time

	// ClearNote and ClearPhotoURL set the column to NULL.
	ClearNote     bool
	ClearPhotoURL bool
}
