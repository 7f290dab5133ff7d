// Package security implements the in-memory unlock gate that guards local
// data. The gate is a convenience lock for the device, not a boundary for
// remote data.
//
// The configured mode and the password hash are read from preferences; the
// unlocked flag lives only in memory and is cleared by Lock. In "both" mode
// either factor alone unlocks the gate. Failed attempts are counted for
// messaging only; nothing is ever locked out.
package security

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/cryptox"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

// AttemptsHint is the number of attempts shown to the user before the
// "too many failed attempts" message.
const AttemptsHint = 3

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNoPasswordSet        = errors.New("no password set")
	ErrFactorNotEnabled     = errors.New("factor not enabled for this mode")
)

// DeniedError carries attempt counters for the UI.
type DeniedError struct {
	Failures  int
	Remaining int
}

func (e *DeniedError) Error() string {
	if e.Remaining == 0 {
		return "too many failed attempts"
	}
	return fmt.Sprintf("authentication failed, attempts left: %d", e.Remaining)
}

func (e *DeniedError) Unwrap() error { return ErrAuthenticationFailed }

// Settings is the persisted part of the gate.
type Settings interface {
	SecurityMode(ctx context.Context) models.SecurityMode
	SetSecurityMode(ctx context.Context, m models.SecurityMode)
	PasswordHash(ctx context.Context) string
	SetPasswordHash(ctx context.Context, hash string)
}

// Biometric is the platform's local authentication check.
type Biometric interface {
	Available() bool
	Authenticate(ctx context.Context, reason string) (bool, error)
}

// NoBiometric is used where the platform offers no biometric sensor.
type NoBiometric struct{}

func (NoBiometric) Available() bool { return false }
func (NoBiometric) Authenticate(context.Context, string) (bool, error) {
	return false, nil
}

// Credential is what the user supplies to Unlock. Either field may be set.
type Credential struct {
	Password     []byte
	UseBiometric bool
}

type Gate struct {
	settings  Settings
	biometric Biometric
	logger    logging.Logger

	mu       sync.Mutex
	unlocked bool
	failures int
}

func NewGate(settings Settings, biometric Biometric, logger logging.Logger) *Gate {
	if biometric == nil {
		biometric = NoBiometric{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Gate{settings: settings, biometric: biometric, logger: logger.With("component", "security")}
}

func (g *Gate) Mode(ctx context.Context) models.SecurityMode {
	return g.settings.SecurityMode(ctx)
}

// IsSatisfied reports whether data may be shown.
func (g *Gate) IsSatisfied(ctx context.Context) bool {
	if g.Mode(ctx) == models.SecurityNone {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

// Lock clears the unlocked state.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlocked = false
}

// Failures returns the failed attempts since the last unlock.
func (g *Gate) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

// Unlock checks the credential against every factor the mode accepts. It
// returns *DeniedError when no factor succeeds.
func (g *Gate) Unlock(ctx context.Context, cred Credential) error {
	mode := g.Mode(ctx)
	if mode == models.SecurityNone {
		return nil
	}

	ok := false
	if mode.UsesPassword() && cred.Password != nil {
		ok = g.checkPassword(ctx, cred.Password)
	}
	if !ok && mode.UsesBiometric() && cred.UseBiometric {
		ok = g.checkBiometric(ctx)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		g.unlocked = true
		g.failures = 0
		return nil
	}
	g.failures++
	remaining := AttemptsHint - g.failures
	if remaining < 0 {
		remaining = 0
	}
	g.logger.Info(ctx, "unlock denied", "mode", mode, "failures", g.failures)
	return &DeniedError{Failures: g.failures, Remaining: remaining}
}

func (g *Gate) checkPassword(ctx context.Context, password []byte) bool {
	hash := g.settings.PasswordHash(ctx)
	if hash == "" {
		return false
	}
	ok, err := cryptox.VerifySecret(hash, password)
	if err != nil {
		g.logger.Error(ctx, "stored password hash unreadable", "err", err)
		return false
	}
	return ok
}

func (g *Gate) checkBiometric(ctx context.Context) bool {
	if !g.biometric.Available() {
		return false
	}
	ok, err := g.biometric.Authenticate(ctx, "Unlock SpendWise")
	if err != nil {
		g.logger.Warn(ctx, "biometric check failed", "err", err)
		return false
	}
	return ok
}

// SetPassword stores the hash of password and enables the password factor,
// keeping biometric enabled when it already was.
func (g *Gate) SetPassword(ctx context.Context, password []byte) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrValidation)
	}
	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return err
	}
	g.settings.SetPasswordHash(ctx, hash)

	next := models.SecurityPassword
	if g.Mode(ctx).UsesBiometric() {
		next = models.SecurityBoth
	}
	g.settings.SetSecurityMode(ctx, next)
	g.markUnlocked()
	return nil
}

// SetMode changes the configured mode. Modes using a password require one
// to be stored; biometric modes require an available sensor.
func (g *Gate) SetMode(ctx context.Context, mode models.SecurityMode) error {
	if mode.UsesPassword() && g.settings.PasswordHash(ctx) == "" {
		return ErrNoPasswordSet
	}
	if mode.UsesBiometric() && !g.biometric.Available() {
		return fmt.Errorf("%w: biometric unavailable", ErrFactorNotEnabled)
	}
	g.settings.SetSecurityMode(ctx, mode)
	g.markUnlocked()
	return nil
}

// ResetPassword removes the stored hash and disables the gate. It takes no
// credential, so callers erase the data behind a locked gate first.
func (g *Gate) ResetPassword(ctx context.Context) {
	g.settings.SetPasswordHash(ctx, "")
	g.settings.SetSecurityMode(ctx, models.SecurityNone)
	g.markUnlocked()
}

func (g *Gate) markUnlocked() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlocked = true
	g.failures = 0
}
