package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/client/recommend"
)

const reportWidth = 80

// Summary prints month and all-time totals in the default currency.
func (a *App) Summary(ctx context.Context) error {
	s, err := a.session.Summary(ctx, a.conv)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tTHIS MONTH\tTOTAL\t")
	fmt.Fprintf(w, "Income\t%s\t%s\t\n", currency.Format(s.MonthIncome, s.Currency), currency.Format(s.TotalIncome, s.Currency))
	fmt.Fprintf(w, "Expenses\t%s\t%s\t\n", currency.Format(s.MonthExpense, s.Currency), currency.Format(s.TotalExpense, s.Currency))
	fmt.Fprintf(w, "Balance\t%s\t%s\t\n", currency.Format(s.MonthBalance(), s.Currency), currency.Format(s.TotalBalance(), s.Currency))
	return w.Flush()
}

// Recommend runs the recommendation engine over the current records and
// prints the rendered report.
func (a *App) Recommend(ctx context.Context) error {
	prefs := a.store.Preferences()
	if !prefs.RecommendationsEnabled(ctx) {
		a.printf("Recommendations are turned off, see 'set tips on'\n")
		return nil
	}

	incomes, err := a.session.Records(ctx, models.KindIncome)
	if err != nil {
		return err
	}
	expenses, err := a.session.Records(ctx, models.KindExpense)
	if err != nil {
		return err
	}

	opts := recommend.Options{
		Now:       time.Now(),
		Currency:  a.session.DefaultCurrency(ctx),
		Converter: a.conv,
	}
	if limit, ok := prefs.MonthlyLimit(ctx); ok {
		opts.MonthlyLimit = limit
	}

	recs, err := a.engine.Run(ctx, incomes, expenses, opts)
	if err != nil {
		return err
	}
	md, err := recommend.Markdown(recs)
	if err != nil {
		return err
	}
	out, err := recommend.Render(md, reportWidth)
	if err != nil {
		return err
	}
	a.printf("%s", out)
	return nil
}

// Sync refetches the signed-in user's records and waits for the result.
func (a *App) Sync(ctx context.Context) error {
	if !a.isSignedIn() {
		a.printf("Guest data is stored on this device only, sign in to sync\n")
		return nil
	}
	if err := a.session.Refresh(ctx).Wait(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return fmt.Errorf("sync: %w", err)
	}
	a.setMode(ctx, ModeOnline)
	a.printf("Synced\n")
	return nil
}
