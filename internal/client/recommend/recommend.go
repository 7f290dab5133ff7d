// Package recommend derives advisory messages from income and expense
// records. Generate is pure; Engine runs it off the caller's goroutine.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

type Type string

const (
	SpendingLimit      Type = "Spending Limit"
	CategoryAlert      Type = "Category Alert"
	SavingTip          Type = "Saving Tip"
	BudgetOptimization Type = "Budget Optimization"
	TrendAnalysis      Type = "Trend Analysis"
)

// Recommendation is one advisory message. Priority ranges 1 to 5, 5 highest.
type Recommendation struct {
	Type        Type
	Title       string
	Description string
	Priority    int
	ActionTitle string
}

// Options configure a run.
type Options struct {
	// MonthlyLimit enables the spending-limit rule when positive.
	MonthlyLimit decimal.Decimal
	Now          time.Time
	// Currency is the unit totals are computed in; records are converted
	// with Converter when it is set, otherwise amounts are summed as is.
	Currency  models.Currency
	Converter *currency.Converter
}

var (
	hundred = decimal.NewFromInt(100)

	limitThreshold    = decimal.NewFromInt(90)
	categoryThreshold = decimal.NewFromInt(40)
	spendShare        = decimal.RequireFromString("0.8")
	foodShare         = decimal.RequireFromString("0.3")
	lowSavings        = decimal.NewFromInt(10)
	highSavings       = decimal.NewFromInt(30)
	trendUp           = decimal.RequireFromString("1.2")
	trendDown         = decimal.RequireFromString("0.8")
	trendMonths       = decimal.NewFromInt(3)
)

// minTrendRecords is the number of trailing expenses the trend rule needs
// to exceed before it runs.
const minTrendRecords = 5

// Generate evaluates every rule and returns the results sorted by priority,
// highest first. Rules with equal priority keep their evaluation order.
func Generate(incomes, expenses []models.Record, opts Options) []Recommendation {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Currency == "" {
		opts.Currency = models.DefaultCurrency
	}
	a := analysis{opts: opts}

	var out []Recommendation
	out = appendIf(out, a.spendingLimit(expenses))
	out = append(out, a.categoryConcentration(expenses)...)
	out = append(out, a.savingTips(incomes, expenses)...)
	out = appendIf(out, a.budgetOptimization(incomes, expenses))
	out = appendIf(out, a.trend(expenses))

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func appendIf(out []Recommendation, r *Recommendation) []Recommendation {
	if r == nil {
		return out
	}
	return append(out, *r)
}

type analysis struct {
	opts Options
}

func (a analysis) amount(r models.Record) decimal.Decimal {
	if a.opts.Converter == nil {
		return r.Amount
	}
	return a.opts.Converter.Convert(r.Amount, r.Currency, a.opts.Currency)
}

func (a analysis) total(records []models.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(a.amount(r))
	}
	return sum
}

func (a analysis) currentMonth(records []models.Record) []models.Record {
	y, m, _ := a.opts.Now.Date()
	loc := a.opts.Now.Location()
	var out []models.Record
	for _, r := range records {
		ry, rm, _ := r.OccurredAt.In(loc).Date()
		if ry == y && rm == m {
			out = append(out, r)
		}
	}
	return out
}

func (a analysis) format(v decimal.Decimal) string {
	return currency.Format(v, a.opts.Currency)
}

func (a analysis) spendingLimit(expenses []models.Record) *Recommendation {
	limit := a.opts.MonthlyLimit
	if !limit.IsPositive() {
		return nil
	}
	spent := a.total(a.currentMonth(expenses))
	pct := spent.Div(limit).Mul(hundred)
	if pct.LessThan(limitThreshold) {
		return nil
	}
	return &Recommendation{
		Type:        SpendingLimit,
		Title:       "Spending Limit Alert!",
		Description: fmt.Sprintf("You have spent %d%% of your monthly spending limit this month. Be careful!", pct.IntPart()),
		Priority:    5,
		ActionTitle: "Set Limit",
	}
}

func (a analysis) categoryConcentration(expenses []models.Record) []Recommendation {
	monthly := a.currentMonth(expenses)
	total := a.total(monthly)
	if !total.IsPositive() {
		return nil
	}

	byCategory := map[string]decimal.Decimal{}
	for _, r := range monthly {
		byCategory[r.Category] = byCategory[r.Category].Add(a.amount(r))
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var out []Recommendation
	for _, c := range categories {
		pct := byCategory[c].Div(total).Mul(hundred)
		if !pct.GreaterThan(categoryThreshold) {
			continue
		}
		out = append(out, Recommendation{
			Type:  CategoryAlert,
			Title: c + " High Spending",
			Description: fmt.Sprintf("Your spending is %d%% of your total spending in the %s category. You can save in this area.",
				pct.IntPart(), c),
			Priority: 4,
		})
	}
	return out
}

func (a analysis) savingTips(incomes, expenses []models.Record) []Recommendation {
	income := a.total(a.currentMonth(incomes))
	monthly := a.currentMonth(expenses)
	spent := a.total(monthly)

	var out []Recommendation
	if spent.GreaterThan(income.Mul(spendShare)) {
		out = append(out, Recommendation{
			Type:        SavingTip,
			Title:       "Saving Tip",
			Description: "More than 80% of your income is being spent. Consider saving for emergencies.",
			Priority:    3,
		})
	}

	food := decimal.Zero
	for _, r := range monthly {
		if r.Category == models.CategoryFood {
			food = food.Add(a.amount(r))
		}
	}
	if food.GreaterThan(income.Mul(foodShare)) {
		out = append(out, Recommendation{
			Type:        SavingTip,
			Title:       "Food Savings",
			Description: "More than 30% of your income is being spent on food. You can prepare meals and do bulk shopping.",
			Priority:    3,
		})
	}
	return out
}

// budgetOptimization uses all-time totals.
func (a analysis) budgetOptimization(incomes, expenses []models.Record) *Recommendation {
	income := a.total(incomes)
	if !income.IsPositive() {
		return nil
	}
	rate := income.Sub(a.total(expenses)).Div(income).Mul(hundred)

	switch {
	case rate.LessThan(lowSavings):
		return &Recommendation{
			Type:        BudgetOptimization,
			Title:       "Budget Optimization",
			Description: fmt.Sprintf("Your savings rate is %d%%. Aim to save at least 20%% of your income.", rate.IntPart()),
			Priority:    3,
		}
	case rate.GreaterThan(highSavings):
		return &Recommendation{
			Type:        BudgetOptimization,
			Title:       "Perfect Savings!",
			Description: fmt.Sprintf("Your savings rate is %d%%. Great job!", rate.IntPart()),
			Priority:    2,
		}
	}
	return nil
}

// trend compares this month against the average of the trailing three
// months.
func (a analysis) trend(expenses []models.Record) *Recommendation {
	since := a.opts.Now.AddDate(0, -3, 0)
	var recent []models.Record
	for _, r := range expenses {
		if !r.OccurredAt.Before(since) {
			recent = append(recent, r)
		}
	}
	if len(recent) <= minTrendRecords {
		return nil
	}

	avg := a.total(recent).Div(trendMonths)
	current := a.total(a.currentMonth(expenses))

	if up := avg.Mul(trendUp); current.GreaterThan(up) {
		return &Recommendation{
			Type:  TrendAnalysis,
			Title: "Spending Increase",
			Description: fmt.Sprintf("You spent %s more than your average monthly expense this month. Check the trend.",
				a.format(current.Sub(up))),
			Priority: 4,
		}
	}
	if down := avg.Mul(trendDown); current.LessThan(down) {
		return &Recommendation{
			Type:  TrendAnalysis,
			Title: "Spending Decrease",
			Description: fmt.Sprintf("You spent %s less than your average monthly expense this month. Well done!",
				a.format(down.Sub(current))),
			Priority: 2,
		}
	}
	return nil
}
