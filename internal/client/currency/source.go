package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

// Source yields a rate table.
type Source interface {
	Rates(ctx context.Context) (Rates, error)
}

type ratesFile struct {
	Base  string             `yaml:"base"`
	Rates map[string]float64 `yaml:"rates"`
}

// FileSource reads rates from a YAML file:
//
//	base: TRY
//	rates:
//	  USD: 0.031
type FileSource struct {
	Path string
}

func (s FileSource) Rates(_ context.Context) (Rates, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (Rates, error) {
	var f ratesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rates: %w", err)
	}
	if err := checkBase(f.Base); err != nil {
		return nil, err
	}
	out := make(Rates, len(f.Rates))
	for code, v := range f.Rates {
		if cur, ok := supported(code); ok {
			out[cur] = decimal.NewFromFloat(v)
		}
	}
	return out, nil
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// HTTPSource fetches `{"base":"TRY","rates":{...}}` from URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Rates(ctx context.Context) (Rates, error) {
	hc := s.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if err := checkBase(body.Base); err != nil {
		return nil, err
	}
	out := make(Rates, len(body.Rates))
	for code, v := range body.Rates {
		if cur, ok := supported(code); ok {
			out[cur] = v
		}
	}
	return out, nil
}

func checkBase(code string) error {
	if code != "" && !strings.EqualFold(code, string(Base)) {
		return fmt.Errorf("rates quoted in %s, want %s", code, Base)
	}
	return nil
}

func supported(code string) (models.Currency, bool) {
	cur, err := models.ParseCurrency(code)
	return cur, err == nil
}
