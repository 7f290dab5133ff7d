package localstore

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/shopspring/decimal"
)

// Preferences is a typed view over the global preference slots.
type Preferences struct {
	s *Store
}

func (s *Store) Preferences() Preferences {
	return Preferences{s: s}
}

// MonthlyLimit returns the configured limit; ok is false when unset or not
// positive.
func (p Preferences) MonthlyLimit(ctx context.Context) (limit decimal.Decimal, ok bool) {
	v, found := p.s.LoadPreference(ctx, models.PrefMonthlyLimit)
	if !found {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.s.logger.Warn(ctx, "monthly limit unreadable", "value", v, "err", err)
		return decimal.Zero, false
	}
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// SetMonthlyLimit stores limit; nil clears it.
func (p Preferences) SetMonthlyLimit(ctx context.Context, limit *decimal.Decimal) {
	if limit == nil {
		p.s.DeletePreference(ctx, models.PrefMonthlyLimit)
		return
	}
	p.s.SavePreference(ctx, models.PrefMonthlyLimit, limit.String())
}

func (p Preferences) DefaultCurrency(ctx context.Context) models.Currency {
	v, ok := p.s.LoadPreference(ctx, models.PrefDefaultCurrency)
	if !ok {
		return models.DefaultCurrency
	}
	c, err := models.ParseCurrency(v)
	if err != nil {
		return models.DefaultCurrency
	}
	return c
}

func (p Preferences) SetDefaultCurrency(ctx context.Context, c models.Currency) {
	p.s.SavePreference(ctx, models.PrefDefaultCurrency, string(c))
}

func (p Preferences) SecurityMode(ctx context.Context) models.SecurityMode {
	v, _ := p.s.LoadPreference(ctx, models.PrefSecurityType)
	m, err := models.ParseSecurityMode(v)
	if err != nil {
		p.s.logger.Warn(ctx, "security mode unreadable", "value", v)
		return models.SecurityNone
	}
	return m
}

func (p Preferences) SetSecurityMode(ctx context.Context, m models.SecurityMode) {
	p.s.SavePreference(ctx, models.PrefSecurityType, string(m))
}

// PasswordHash returns the stored gate password hash, or "".
func (p Preferences) PasswordHash(ctx context.Context) string {
	v, _ := p.s.LoadPreference(ctx, models.PrefSecurityPasswordHash)
	return v
}

// SetPasswordHash stores hash; "" clears it.
func (p Preferences) SetPasswordHash(ctx context.Context, hash string) {
	if hash == "" {
		p.s.DeletePreference(ctx, models.PrefSecurityPasswordHash)
		return
	}
	p.s.SavePreference(ctx, models.PrefSecurityPasswordHash, hash)
}

// RecommendationsEnabled defaults to true.
func (p Preferences) RecommendationsEnabled(ctx context.Context) bool {
	return p.s.loadBool(ctx, models.PrefRecommendationsEnabled, true)
}

func (p Preferences) SetRecommendationsEnabled(ctx context.Context, enabled bool) {
	p.s.SavePreference(ctx, models.PrefRecommendationsEnabled, strconv.FormatBool(enabled))
}

func (p Preferences) Theme(ctx context.Context) models.Theme {
	v, ok := p.s.LoadPreference(ctx, models.PrefAppTheme)
	if !ok {
		return models.ThemeSystem
	}
	t, err := models.ParseTheme(v)
	if err != nil {
		return models.ThemeSystem
	}
	return t
}

func (p Preferences) SetTheme(ctx context.Context, t models.Theme) {
	p.s.SavePreference(ctx, models.PrefAppTheme, string(t))
}

func (p Preferences) LastCloudBackupAt(ctx context.Context) (time.Time, bool) {
	v, ok := p.s.LoadPreference(ctx, models.PrefLastCloudBackupAt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (p Preferences) SetLastCloudBackupAt(ctx context.Context, t time.Time) {
	p.s.SavePreference(ctx, models.PrefLastCloudBackupAt, t.UTC().Format(time.RFC3339Nano))
}
