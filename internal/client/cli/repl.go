package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/spendwise/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool

	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Profile(ctx context.Context) error

	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error

	Summary(ctx context.Context) error
	Recommend(ctx context.Context) error
	Sync(ctx context.Context) error

	Lock(ctx context.Context) error
	Unlock(ctx context.Context, args []string) error
	Security(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error

	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
	Background(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: signup, signin, list <incomes|expenses>, add <income|expense>, edit <kind> <id>, delete <kind> <id>, summary, recommend, lock, unlock, security, set, background, exit"
	helpSigned = "Available commands: list <incomes|expenses>, add <income|expense>, edit <kind> <id>, delete <kind> <id>, summary, recommend, sync, profile, lock, unlock, security, set, backup, restore, signout, deleteaccount, background, exit"
)

// runREPL starts a simple read–eval–print loop for the SpendWise CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the rest as arguments. Handler errors are reported and
// the loop continues. The loop exits on scanner EOF, when ctx is done or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sw %s > ", statusFn()))
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn(helpSigned)
			} else {
				printlnFn(helpGuest)
			}

		case "signup", "register":
			err = a.SignUp(ctx)
		case "signin", "login":
			err = a.SignIn(ctx)
		case "signout", "logout":
			err = a.SignOut(ctx)
		case "deleteaccount":
			err = a.DeleteAccount(ctx)
		case "profile":
			err = a.Profile(ctx)

		case "l", "list":
			err = a.List(ctx, args)
		case "add":
			err = a.Add(ctx, args)
		case "edit":
			err = a.Edit(ctx, args)
		case "delete", "rm":
			err = a.Delete(ctx, args)

		case "summary":
			err = a.Summary(ctx)
		case "recommend", "tips":
			err = a.Recommend(ctx)
		case "sync":
			err = a.Sync(ctx)

		case "lock":
			err = a.Lock(ctx)
		case "unlock":
			err = a.Unlock(ctx, args)
		case "security":
			err = a.Security(ctx, args)
		case "set":
			err = a.Settings(ctx, args)

		case "backup":
			err = a.Backup(ctx)
		case "restore":
			err = a.Restore(ctx)
		case "background":
			err = a.Background(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			reportError(err)
		}
	}
}

var errUsage = errors.New("usage")

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

func reportError(err error) {
	switch {
	case errors.Is(err, common.ErrLocked):
		printlnFn("Data is locked, type 'unlock' first.")
	case errors.Is(err, errUsage):
		printlnFn("Usage:", strings.TrimPrefix(err.Error(), "usage: "))
	default:
		printlnFn("Error:", err)
	}
}
