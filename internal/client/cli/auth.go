package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/spendwise/internal/client/client"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/client/security"
	"github.com/dmitrijs2005/spendwise/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// SignUp creates a remote account and switches the session to it. Guest
// records are discarded.
func (a *App) SignUp(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Display name (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := a.session.SignUp(ctx, email, string(password), name)
	if err != nil {
		return authError(err)
	}
	a.setMode(ctx, ModeOnline)
	a.printf("Signed up as %s\n", email)
	go a.logOutcome(ctx, "initial sync", p)
	return nil
}

// SignIn authenticates against the backend. On success the guest session
// and its local records are replaced and the user's records are fetched in
// the background.
func (a *App) SignIn(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.session.SignIn(ctx, email, string(password))
	if err != nil {
		return authError(err)
	}
	a.setMode(ctx, ModeOnline)
	a.printf("Signed in as %s\n", email)
	go a.logOutcome(ctx, "initial sync", p)
	return nil
}

func authError(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("invalid email or password")
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("server unavailable, you can keep working as a guest: %w", err)
	}
	return err
}

// SignOut returns to a fresh guest session.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

// DeleteAccount asks for confirmation, removes the user's remote records
// and signs out.
func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete all your records and sign out? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.printf("Cancelled\n")
		return nil
	}
	if err := a.session.DeleteAccount(ctx); err != nil {
		return err
	}
	a.printf("Account data deleted\n")
	return nil
}

// Profile changes the display name of the signed-in user.
func (a *App) Profile(ctx context.Context) error {
	u := a.session.CurrentUser()
	name, err := getSimpleText(a.reader, fmt.Sprintf("Display name [%s]", u.DisplayName), a.out)
	if err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	return a.session.UpdateProfile(ctx, name, u.Avatar)
}

// Lock hides data until the next unlock.
func (a *App) Lock(ctx context.Context) error {
	if a.gate.Mode(ctx) == models.SecurityNone {
		a.printf("No security mode set, see 'security'\n")
		return nil
	}
	a.gate.Lock()
	return nil
}

// Unlock prompts for the factors the configured mode accepts. Passing
// "biometric" as the first argument skips the password prompt.
func (a *App) Unlock(ctx context.Context, args []string) error {
	mode := a.gate.Mode(ctx)
	if a.gate.IsSatisfied(ctx) {
		return nil
	}

	var cred security.Credential
	if len(args) > 0 && args[0] == "biometric" {
		cred.UseBiometric = true
	} else if mode.UsesPassword() {
		pw, err := getPassword("Unlock password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		cred.Password = pw
	} else {
		cred.UseBiometric = true
	}

	if err := a.gate.Unlock(ctx, cred); err != nil {
		var denied *security.DeniedError
		if errors.As(err, &denied) && denied.Remaining == 0 {
			a.printf("Type 'security reset' to remove the password. Local data is erased and accounts are signed out.\n")
		}
		return err
	}
	a.printf("Unlocked\n")
	return nil
}
