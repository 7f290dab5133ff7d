package security

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/spendwise/internal/client/localstore"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBiometric struct {
	available  bool
	result     bool
	err        error
	calls      int
	lastReason string
}

func (f *fakeBiometric) Available() bool { return f.available }
func (f *fakeBiometric) Authenticate(_ context.Context, reason string) (bool, error) {
	f.calls++
	f.lastReason = reason
	return f.result, f.err
}

func newGate(t *testing.T, bio Biometric) (*Gate, localstore.Preferences) {
	t.Helper()
	prefs := localstore.NewStore(localstore.NewMemorySlots(), nil).Preferences()
	return NewGate(prefs, bio, nil), prefs
}

func TestGate_NoneIsAlwaysSatisfied(t *testing.T) {
	g, _ := newGate(t, nil)
	ctx := context.Background()

	assert.True(t, g.IsSatisfied(ctx))
	g.Lock()
	assert.True(t, g.IsSatisfied(ctx))
	assert.NoError(t, g.Unlock(ctx, Credential{}))
}

func TestGate_PasswordMode(t *testing.T) {
	g, prefs := newGate(t, nil)
	ctx := context.Background()

	require.NoError(t, g.SetPassword(ctx, []byte("s3cret")))
	assert.Equal(t, models.SecurityPassword, prefs.SecurityMode(ctx))
	assert.NotContains(t, prefs.PasswordHash(ctx), "s3cret")

	g.Lock()
	assert.False(t, g.IsSatisfied(ctx))

	err := g.Unlock(ctx, Credential{Password: []byte("wrong")})
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 1, denied.Failures)
	assert.Equal(t, 2, denied.Remaining)
	assert.False(t, g.IsSatisfied(ctx))

	require.NoError(t, g.Unlock(ctx, Credential{Password: []byte("s3cret")}))
	assert.True(t, g.IsSatisfied(ctx))
	assert.Equal(t, 0, g.Failures())
}

func TestGate_FailuresNeverLockOut(t *testing.T) {
	g, _ := newGate(t, nil)
	ctx := context.Background()
	require.NoError(t, g.SetPassword(ctx, []byte("pw")))
	g.Lock()

	var last *DeniedError
	for i := 0; i < 5; i++ {
		err := g.Unlock(ctx, Credential{Password: []byte("nope")})
		require.ErrorAs(t, err, &last)
	}
	assert.Equal(t, 5, last.Failures)
	assert.Equal(t, 0, last.Remaining)
	assert.Equal(t, "too many failed attempts", last.Error())

	require.NoError(t, g.Unlock(ctx, Credential{Password: []byte("pw")}))
}

func TestGate_BothAcceptsEitherFactor(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		password []byte
		bioOK    bool
		useBio   bool
		wantOK   bool
	}{
		{"password only", []byte("pw"), false, false, true},
		{"biometric only", nil, true, true, true},
		{"wrong password, biometric ok", []byte("bad"), true, true, true},
		{"both fail", []byte("bad"), false, true, false},
		{"nothing supplied", nil, true, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bio := &fakeBiometric{available: true, result: tc.bioOK}
			g, _ := newGate(t, bio)
			require.NoError(t, g.SetPassword(ctx, []byte("pw")))
			require.NoError(t, g.SetMode(ctx, models.SecurityBoth))
			g.Lock()

			err := g.Unlock(ctx, Credential{Password: tc.password, UseBiometric: tc.useBio})
			if tc.wantOK {
				assert.NoError(t, err)
				assert.True(t, g.IsSatisfied(ctx))
			} else {
				assert.ErrorIs(t, err, ErrAuthenticationFailed)
				assert.False(t, g.IsSatisfied(ctx))
			}
		})
	}
}

func TestGate_BiometricModeIgnoresPassword(t *testing.T) {
	ctx := context.Background()
	bio := &fakeBiometric{available: true, result: false}
	g, prefs := newGate(t, bio)
	require.NoError(t, g.SetPassword(ctx, []byte("pw")))
	prefs.SetSecurityMode(ctx, models.SecurityBiometric)
	g.Lock()

	assert.Error(t, g.Unlock(ctx, Credential{Password: []byte("pw")}))
	assert.Equal(t, 0, bio.calls)

	bio.result = true
	require.NoError(t, g.Unlock(ctx, Credential{UseBiometric: true}))
	assert.Equal(t, "Unlock SpendWise", bio.lastReason)
}

func TestGate_BiometricErrorDenies(t *testing.T) {
	ctx := context.Background()
	bio := &fakeBiometric{available: true, result: true, err: errors.New("sensor busy")}
	g, _ := newGate(t, bio)
	require.NoError(t, g.SetMode(ctx, models.SecurityBiometric))
	g.Lock()

	assert.ErrorIs(t, g.Unlock(ctx, Credential{UseBiometric: true}), ErrAuthenticationFailed)
}

func TestGate_SetModeRequirements(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate(t, nil)

	assert.ErrorIs(t, g.SetMode(ctx, models.SecurityPassword), ErrNoPasswordSet)
	assert.ErrorIs(t, g.SetMode(ctx, models.SecurityBiometric), ErrFactorNotEnabled)
	assert.ErrorIs(t, g.SetPassword(ctx, nil), common.ErrValidation)
}

func TestGate_SetPasswordKeepsBiometric(t *testing.T) {
	ctx := context.Background()
	g, prefs := newGate(t, &fakeBiometric{available: true})
	require.NoError(t, g.SetMode(ctx, models.SecurityBiometric))
	require.NoError(t, g.SetPassword(ctx, []byte("pw")))
	assert.Equal(t, models.SecurityBoth, prefs.SecurityMode(ctx))
}

func TestGate_ResetPasswordDisablesGate(t *testing.T) {
	ctx := context.Background()
	g, prefs := newGate(t, nil)
	require.NoError(t, g.SetPassword(ctx, []byte("pw")))
	g.Lock()

	g.ResetPassword(ctx)
	assert.Equal(t, models.SecurityNone, prefs.SecurityMode(ctx))
	assert.Empty(t, prefs.PasswordHash(ctx))
	assert.True(t, g.IsSatisfied(ctx))
}

func TestGate_CorruptHashDenies(t *testing.T) {
	ctx := context.Background()
	g, prefs := newGate(t, nil)
	prefs.SetPasswordHash(ctx, "plaintext")
	prefs.SetSecurityMode(ctx, models.SecurityPassword)

	assert.ErrorIs(t, g.Unlock(ctx, Credential{Password: []byte("plaintext")}), ErrAuthenticationFailed)
}
