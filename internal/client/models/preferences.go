package models

import (
	"fmt"

	"github.com/dmitrijs2005/spendwise/internal/common"
)

// Preference slot names. All are global, not per user.
const (
	PrefMonthlyLimit           = "monthlyLimit"
	PrefDefaultCurrency        = "defaultCurrency"
	PrefSecurityType           = "securityType"
	PrefSecurityPasswordHash   = "securityPasswordHash"
	PrefRecommendationsEnabled = "recommendationsEnabled"
	PrefAppTheme               = "appTheme"
	PrefLastCloudBackupAt      = "lastCloudBackupAt"

	// PrefAccessToken holds the bearer token of the signed-in user.
	PrefAccessToken = "accessToken"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown theme %q", common.ErrValidation, s)
	}
}

// SecurityMode selects which factors unlock the app.
type SecurityMode string

const (
	SecurityNone      SecurityMode = "none"
	SecurityPassword  SecurityMode = "password"
	SecurityBiometric SecurityMode = "biometric"
	SecurityBoth      SecurityMode = "both"
)

func ParseSecurityMode(s string) (SecurityMode, error) {
	switch m := SecurityMode(s); m {
	case SecurityNone, SecurityPassword, SecurityBiometric, SecurityBoth:
		return m, nil
	case "":
		return SecurityNone, nil
	default:
		return "", fmt.Errorf("%w: unknown security mode %q", common.ErrValidation, s)
	}
}

// UsesPassword reports whether the mode accepts a password.
func (m SecurityMode) UsesPassword() bool {
	return m == SecurityPassword || m == SecurityBoth
}

// UsesBiometric reports whether the mode accepts a biometric check.
func (m SecurityMode) UsesBiometric() bool {
	return m == SecurityBiometric || m == SecurityBoth
}
