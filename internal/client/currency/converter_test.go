package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConverter_Convert(t *testing.T) {
	c := NewConverter(Rates{
		models.CurrencyUSD: d("0.025"),
		models.CurrencyEUR: d("0.02"),
	})

	tests := []struct {
		name     string
		amount   string
		from, to models.Currency
		want     string
	}{
		{"same currency", "12.5", models.CurrencyUSD, models.CurrencyUSD, "12.5"},
		{"to base", "10", models.CurrencyUSD, models.CurrencyTRY, "400"},
		{"from base", "400", models.CurrencyTRY, models.CurrencyUSD, "10"},
		{"cross", "10", models.CurrencyUSD, models.CurrencyEUR, "8"},
		{"missing rate is one", "10", models.CurrencyGBP, models.CurrencyTRY, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Convert(d(tt.amount), tt.from, tt.to)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestConverter_IgnoresNonPositiveRates(t *testing.T) {
	c := NewConverter(Rates{models.CurrencyUSD: decimal.Zero})
	assert.True(t, c.Rate(models.CurrencyUSD).Equal(decimal.NewFromInt(1)))
}

func TestConverter_Sum(t *testing.T) {
	c := NewConverter(Rates{models.CurrencyUSD: d("0.5")})
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []models.Record{
		models.NewRecord(models.KindIncome, "a", d("10"), models.CurrencyUSD, models.CategorySalary, day),
		models.NewRecord(models.KindIncome, "b", d("5"), models.CurrencyTRY, models.CategorySalary, day),
	}
	assert.True(t, c.Sum(records, models.CurrencyTRY).Equal(d("25")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234.50", Format(d("1234.5"), models.CurrencyUSD))
	assert.Contains(t, Format(d("3"), models.CurrencyTRY), "3.00")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base: TRY\nrates:\n  USD: 0.031\n  XYZ: 4\n"), 0o600))

	rates, err := FileSource{Path: path}.Rates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[models.CurrencyUSD].Equal(d("0.031")))
}

func TestParseYAML_WrongBase(t *testing.T) {
	_, err := ParseYAML([]byte("base: USD\nrates: {}\n"))
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"TRY","rates":{"TRY":1,"EUR":0.027,"JPY":4.6}}`))
	}))
	defer srv.Close()

	rates, err := HTTPSource{URL: srv.URL, Client: srv.Client()}.Rates(context.Background())
	require.NoError(t, err)
	assert.Len(t, rates, 2)
	assert.True(t, rates[models.CurrencyEUR].Equal(d("0.027")))
}

func TestHTTPSource_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := HTTPSource{URL: srv.URL}.Rates(context.Background())
	assert.Error(t, err)
}
