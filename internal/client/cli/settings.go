package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/shopspring/decimal"
)

var errMirrorDisabled = errors.New("cloud backup is not configured")

// Security manages the unlock gate:
//
//	security                  show the mode
//	security password         set or change the password
//	security mode <mode>      none, password, biometric or both
//	security reset            remove the password; when locked, local data is erased
func (a *App) Security(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Security mode: %s\n", a.gate.Mode(ctx))
		return nil
	}

	if args[0] == "reset" {
		return a.resetSecurity(ctx)
	}

	if !a.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}

	switch args[0] {
	case "password":
		pw, err := getPassword("New password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		again, err := getPassword("Repeat password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(again)
		if !bytes.Equal(pw, again) {
			return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
		}
		if err := a.gate.SetPassword(ctx, pw); err != nil {
			return err
		}
		a.printf("Password set\n")

	case "mode":
		if len(args) != 2 {
			return usage("security mode <none|password|biometric|both>")
		}
		mode, err := models.ParseSecurityMode(args[1])
		if err != nil {
			return err
		}
		if err := a.gate.SetMode(ctx, mode); err != nil {
			return err
		}
		a.printf("Security mode: %s\n", mode)

	default:
		return usage("security [password|mode <mode>|reset]")
	}
	return nil
}

// resetSecurity removes the password. Without a prior unlock nothing the
// gate protected survives: an account is signed out and guest data erased.
func (a *App) resetSecurity(ctx context.Context) error {
	locked := !a.gate.IsSatisfied(ctx)
	signedIn := a.isSignedIn()

	if signedIn {
		if err := a.session.SignOut(ctx); err != nil {
			return err
		}
	}
	if locked {
		if err := a.session.DiscardGuestData(ctx); err != nil {
			return err
		}
	}
	a.gate.ResetPassword(ctx)

	switch {
	case signedIn:
		a.printf("Password removed, you are now a guest\n")
	case locked:
		a.printf("Password removed, guest data erased\n")
	default:
		a.printf("Password removed\n")
	}
	return nil
}

// Settings shows or changes preferences:
//
//	set                        show all
//	set limit <amount|off>
//	set currency <code>
//	set theme <system|light|dark>
//	set tips <on|off>
func (a *App) Settings(ctx context.Context, args []string) error {
	if !a.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}
	prefs := a.store.Preferences()

	if len(args) == 0 {
		limit := "off"
		if v, ok := prefs.MonthlyLimit(ctx); ok {
			limit = currency.Format(v, prefs.DefaultCurrency(ctx))
		}
		tips := "off"
		if prefs.RecommendationsEnabled(ctx) {
			tips = "on"
		}
		a.printf("limit:    %s\ncurrency: %s\ntheme:    %s\ntips:     %s\n",
			limit, prefs.DefaultCurrency(ctx), prefs.Theme(ctx), tips)
		if t, ok := prefs.LastCloudBackupAt(ctx); ok {
			a.printf("backup:   %s\n", t.Local().Format(time.DateTime))
		}
		return nil
	}
	if len(args) != 2 {
		return usage("set <limit|currency|theme|tips> <value>")
	}

	name, value := args[0], args[1]
	switch name {
	case "limit":
		if value == "off" {
			prefs.SetMonthlyLimit(ctx, nil)
			break
		}
		v, err := decimal.NewFromString(value)
		if err != nil || !v.IsPositive() {
			return fmt.Errorf("%w: limit must be a positive amount", common.ErrValidation)
		}
		prefs.SetMonthlyLimit(ctx, &v)

	case "currency":
		c, err := models.ParseCurrency(value)
		if err != nil {
			return err
		}
		prefs.SetDefaultCurrency(ctx, c)

	case "theme":
		t, err := models.ParseTheme(strings.ToLower(value))
		if err != nil {
			return err
		}
		prefs.SetTheme(ctx, t)

	case "tips":
		switch value {
		case "on":
			prefs.SetRecommendationsEnabled(ctx, true)
		case "off":
			prefs.SetRecommendationsEnabled(ctx, false)
		default:
			return usage("set tips <on|off>")
		}

	default:
		return usage("set <limit|currency|theme|tips> <value>")
	}
	a.printf("%s updated\n", name)
	return nil
}

// Backup uploads the current partition to the cloud mirror.
func (a *App) Backup(ctx context.Context) error {
	if a.mirror == nil {
		return errMirrorDisabled
	}
	if !a.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}
	if err := a.mirror.Backup(ctx, a.session.StorageKey()); err != nil {
		return err
	}
	a.printf("Backup complete\n")
	return nil
}

// Restore replaces the current partition with the mirrored copy and
// reloads the session from it.
func (a *App) Restore(ctx context.Context) error {
	if a.mirror == nil {
		return errMirrorDisabled
	}
	if !a.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}
	if err := a.mirror.Restore(ctx, a.session.StorageKey()); err != nil {
		return err
	}
	if err := a.session.Reload(ctx); err != nil {
		return err
	}
	a.printf("Restore complete\n")
	return nil
}

// Background simulates the app leaving the foreground: guest data is
// scheduled for removal and the gate locks.
func (a *App) Background(ctx context.Context) error {
	a.session.EnterBackground(ctx)
	a.printf("Session moved to background\n")
	return nil
}
