// Package currency converts amounts between the supported currencies through
// a base currency and formats them for display.
package currency

import (
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

// Base is the currency all rates are quoted against.
const Base = models.CurrencyTRY

// Rates maps a currency to its units per one unit of Base.
type Rates map[models.Currency]decimal.Decimal

// Converter performs spot conversion. A missing rate counts as 1.
type Converter struct {
	mu    sync.RWMutex
	rates Rates
}

func NewConverter(rates Rates) *Converter {
	c := &Converter{}
	c.SetRates(rates)
	return c
}

// SetRates replaces the table; non-positive rates are ignored.
func (c *Converter) SetRates(rates Rates) {
	next := make(Rates, len(rates))
	for cur, r := range rates {
		if r.IsPositive() {
			next[cur] = r
		}
	}
	c.mu.Lock()
	c.rates = next
	c.mu.Unlock()
}

func (c *Converter) Rate(cur models.Currency) decimal.Decimal {
	if cur == Base {
		return decimal.NewFromInt(1)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.rates[cur]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert moves amount from one currency to another through Base.
func (c *Converter) Convert(amount decimal.Decimal, from, to models.Currency) decimal.Decimal {
	if from == to {
		return amount
	}
	base := amount
	if from != Base {
		base = amount.Div(c.Rate(from))
	}
	if to == Base {
		return base
	}
	return base.Mul(c.Rate(to))
}

// Sum converts every record into target and adds them up.
func (c *Converter) Sum(records []models.Record, target models.Currency) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(c.Convert(r.Amount, r.Currency, target))
	}
	return total
}

// Format renders amount with the currency symbol and two decimals.
func Format(amount decimal.Decimal, cur models.Currency) string {
	minor := amount.Shift(2).Round(0).IntPart()
	return money.New(minor, string(cur)).Display()
}
