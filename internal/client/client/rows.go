package client

import (
	"fmt"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
)

// toRow maps a record to its wire row. Photos stay on the device.
func toRow(r models.Record, identity string) restapi.RecordRow {
	row := restapi.RecordRow{
		ID:         r.ID,
		UserEmail:  identity,
		Title:      r.Title,
		OccurredAt: r.OccurredAt.UTC(),
		Amount:     r.Amount,
		Currency:   string(r.Currency),
		Category:   r.Category,
		Note:       r.Note,
	}
	if r.Kind == models.KindExpense {
		t := string(r.ExpenseType)
		row.Type = &t
	}
	return row
}

func fromRow(kind models.RecordKind, row restapi.RecordRow) (models.Record, error) {
	r := models.Record{
		ID:         row.ID,
		Kind:       kind,
		Title:      row.Title,
		OccurredAt: row.OccurredAt,
		Amount:     row.Amount,
		Currency:   models.Currency(row.Currency),
		Category:   row.Category,
		Note:       row.Note,
	}
	if kind == models.KindExpense {
		r.ExpenseType = models.ExpenseOneTime
		if row.Type != nil {
			r.ExpenseType = models.ExpenseType(*row.Type)
		}
	}
	if err := r.Validate(); err != nil {
		return models.Record{}, fmt.Errorf("row %s: %w", row.ID, err)
	}
	return r, nil
}
