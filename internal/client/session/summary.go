package session

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

// Summary holds income and expense totals in one currency.
type Summary struct {
	Currency     models.Currency
	MonthIncome  decimal.Decimal
	MonthExpense decimal.Decimal
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

func (s Summary) MonthBalance() decimal.Decimal { return s.MonthIncome.Sub(s.MonthExpense) }
func (s Summary) TotalBalance() decimal.Decimal { return s.TotalIncome.Sub(s.TotalExpense) }

// DefaultCurrency reads the stored preference, falling back to
// models.DefaultCurrency.
func (c *Controller) DefaultCurrency(ctx context.Context) models.Currency {
	raw, ok := c.local.LoadPreference(ctx, models.PrefDefaultCurrency)
	if !ok {
		return models.DefaultCurrency
	}
	cur, err := models.ParseCurrency(raw)
	if err != nil {
		c.logger.Warn(ctx, "ignoring stored default currency", "value", raw, "err", err)
		return models.DefaultCurrency
	}
	return cur
}

// Summary totals the current collections in the default currency.
func (c *Controller) Summary(ctx context.Context, conv *currency.Converter) (Summary, error) {
	incomes, err := c.Records(ctx, models.KindIncome)
	if err != nil {
		return Summary{}, err
	}
	expenses, err := c.Records(ctx, models.KindExpense)
	if err != nil {
		return Summary{}, err
	}
	if conv == nil {
		conv = currency.NewConverter(nil)
	}

	cur := c.DefaultCurrency(ctx)
	now := c.now()
	return Summary{
		Currency:     cur,
		MonthIncome:  conv.Sum(inMonth(incomes, now), cur),
		MonthExpense: conv.Sum(inMonth(expenses, now), cur),
		TotalIncome:  conv.Sum(incomes, cur),
		TotalExpense: conv.Sum(expenses, cur),
	}, nil
}

func inMonth(records []models.Record, now time.Time) []models.Record {
	y, m, _ := now.Date()
	var out []models.Record
	for _, r := range records {
		ry, rm, _ := r.OccurredAt.In(now.Location()).Date()
		if ry == y && rm == m {
			out = append(out, r)
		}
	}
	return out
}
