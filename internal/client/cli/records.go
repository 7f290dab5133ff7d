package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// List prints the records of one kind, newest first.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("list <incomes|expenses>")
	}
	kind, err := models.ParseRecordKind(args[0])
	if err != nil {
		return err
	}
	records, err := a.session.Records(ctx, kind)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.printf("No %s yet\n", kind)
		return nil
	}
	models.SortByDateDesc(records)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tCATEGORY\tAMOUNT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID), r.OccurredAt.Format(dateLayout), r.Title, r.Category, currency.Format(r.Amount, r.Currency))
	}
	return w.Flush()
}

// Add prompts for a new record and stores it.
func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("add <income|expense>")
	}
	kind, err := models.ParseRecordKind(args[0])
	if err != nil {
		return err
	}

	r := models.NewRecord(kind, "", decimal.Zero, a.session.DefaultCurrency(ctx), "", time.Now())
	if err := a.promptRecord(&r); err != nil {
		return err
	}

	p, err := a.session.Add(ctx, r)
	if err != nil {
		return err
	}
	a.printf("Added %s\n", shortID(r.ID))
	go a.logOutcome(ctx, "remote create", p)
	return nil
}

// Edit prompts for new values of an existing record. Empty answers keep
// the current value.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("edit <income|expense> <id>")
	}
	kind, err := models.ParseRecordKind(args[0])
	if err != nil {
		return err
	}
	r, err := a.findRecord(ctx, kind, args[1])
	if err != nil {
		return err
	}
	if err := a.promptRecord(&r); err != nil {
		return err
	}

	p, err := a.session.Update(ctx, r)
	if err != nil {
		return err
	}
	a.printf("Updated %s\n", shortID(r.ID))
	go a.logOutcome(ctx, "remote update", p)
	return nil
}

// Delete removes a record by id or unique id prefix.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("delete <income|expense> <id>")
	}
	kind, err := models.ParseRecordKind(args[0])
	if err != nil {
		return err
	}
	r, err := a.findRecord(ctx, kind, args[1])
	if err != nil {
		return err
	}

	p, err := a.session.Delete(ctx, kind, r.ID)
	if err != nil {
		return err
	}
	a.printf("Deleted %s\n", shortID(r.ID))
	go a.logOutcome(ctx, "remote delete", p)
	return nil
}

func (a *App) findRecord(ctx context.Context, kind models.RecordKind, id string) (models.Record, error) {
	records, err := a.session.Records(ctx, kind)
	if err != nil {
		return models.Record{}, err
	}

	var found []models.Record
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return models.Record{}, fmt.Errorf("%s %q: %w", kind, id, common.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return models.Record{}, fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrValidation, id)
	}
}

// promptRecord asks for every editable field of r, showing the current
// value as the default.
func (a *App) promptRecord(r *models.Record) error {
	ask := func(label, current string) (string, error) {
		prompt := label
		if current != "" {
			prompt = fmt.Sprintf("%s [%s]", label, current)
		}
		v, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		if v == "" {
			return current, nil
		}
		return v, nil
	}

	title, err := ask("Title", r.Title)
	if err != nil {
		return err
	}
	r.Title = title

	amount := ""
	if !r.Amount.IsZero() {
		amount = r.Amount.String()
	}
	if amount, err = ask("Amount", amount); err != nil {
		return err
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("%w: amount %q", common.ErrValidation, amount)
	}

	cur, err := ask("Currency", string(r.Currency))
	if err != nil {
		return err
	}
	if r.Currency, err = models.ParseCurrency(cur); err != nil {
		return err
	}

	category, err := ask("Category ("+strings.Join(models.Categories(r.Kind), ", ")+")", r.Category)
	if err != nil {
		return err
	}
	r.Category = category

	date, err := ask("Date", r.OccurredAt.Format(dateLayout))
	if err != nil {
		return err
	}
	if date != r.OccurredAt.Format(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return fmt.Errorf("%w: date %q", common.ErrValidation, date)
		}
		r.OccurredAt = t
	}

	if r.Kind == models.KindExpense {
		t, err := ask("Type (One Time, Monthly)", string(r.ExpenseType))
		if err != nil {
			return err
		}
		r.ExpenseType = models.ExpenseType(t)
	}

	note, err := GetMultiline(a.reader, "Note", a.out)
	if err != nil {
		return err
	}
	if note != "" {
		r.Note = &note
	}
	return r.Validate()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
