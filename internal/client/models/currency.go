package models

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dmitrijs2005/spendwise/internal/common"
)

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	CurrencyTRY Currency = money.TRY
	CurrencyUSD Currency = money.USD
	CurrencyEUR Currency = money.EUR
	CurrencyGBP Currency = money.GBP
)

// DefaultCurrency is used when no preference is stored.
const DefaultCurrency = CurrencyTRY

var SupportedCurrencies = []Currency{CurrencyTRY, CurrencyUSD, CurrencyEUR, CurrencyGBP}

func (c Currency) Valid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// Symbol returns the display grapheme, e.g. "₺" for TRY.
func (c Currency) Symbol() string {
	if cur := money.GetCurrency(string(c)); cur != nil {
		return cur.Grapheme
	}
	return string(c)
}

// ParseCurrency accepts a code in any letter case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unsupported currency %q", common.ErrValidation, s)
	}
	return c, nil
}
