package models

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordKind selects the income or expense collection. Its value is also
// the slot prefix and the remote resource name.
type RecordKind string

const (
	KindIncome  RecordKind = "incomes"
	KindExpense RecordKind = "expenses"
)

var RecordKinds = []RecordKind{KindIncome, KindExpense}

func (k RecordKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseRecordKind accepts "income", "incomes", "expense" or "expenses".
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	default:
		return "", fmt.Errorf("%w: unknown record kind %q", common.ErrValidation, s)
	}
}

// Record is an income or an expense.
type Record struct {
	ID          string          `json:"id"`
	Kind        RecordKind      `json:"kind"`
	Title       string          `json:"title"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Category    string          `json:"category"`
	ExpenseType ExpenseType     `json:"type,omitempty"`
	Note        *string         `json:"note"`
	Photo       []byte          `json:"photo"`
}

// NewRecord builds a record with a fresh id. Expenses default to a
// one-time type.
func NewRecord(kind RecordKind, title string, amount decimal.Decimal, currency Currency, category string, occurredAt time.Time) Record {
	r := Record{
		ID:         uuid.NewString(),
		Kind:       kind,
		Title:      title,
		OccurredAt: occurredAt,
		Amount:     amount,
		Currency:   currency,
		Category:   category,
	}
	if kind == KindExpense {
		r.ExpenseType = ExpenseOneTime
	}
	return r
}

// Validate checks the record against the rules for its kind.
func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", common.ErrValidation, r.Kind)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrValidation)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: empty title", common.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", common.ErrValidation, r.Amount)
	}
	if !r.Currency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", common.ErrValidation, r.Currency)
	}
	if !ValidCategory(r.Kind, r.Category) {
		return fmt.Errorf("%w: category %q is not a %s category", common.ErrValidation, r.Category, r.Kind)
	}
	switch r.Kind {
	case KindExpense:
		if !r.ExpenseType.Valid() {
			return fmt.Errorf("%w: unknown expense type %q", common.ErrValidation, r.ExpenseType)
		}
	case KindIncome:
		if r.ExpenseType != "" {
			return fmt.Errorf("%w: income with expense type", common.ErrValidation)
		}
	}
	return nil
}

// Equal compares all fields. Amounts and times compare by value, and a nil
// note or photo differs from an empty one.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.Kind == o.Kind &&
		r.Title == o.Title &&
		r.OccurredAt.Equal(o.OccurredAt) &&
		r.Amount.Equal(o.Amount) &&
		r.Currency == o.Currency &&
		r.Category == o.Category &&
		r.ExpenseType == o.ExpenseType &&
		equalNote(r.Note, o.Note) &&
		(r.Photo == nil) == (o.Photo == nil) &&
		bytes.Equal(r.Photo, o.Photo)
}

func equalNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Clone returns a copy that shares no mutable memory with r.
func (r Record) Clone() Record {
	c := r
	if r.Note != nil {
		n := *r.Note
		c.Note = &n
	}
	if r.Photo != nil {
		c.Photo = append([]byte{}, r.Photo...)
	}
	return c
}

// CloneRecords copies a collection for handing to consumers.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// SortByDateDesc orders records newest first, keeping the stored order for
// equal dates.
func SortByDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt.After(records[j].OccurredAt)
	})
}
