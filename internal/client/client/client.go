package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	AccessToken string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

type Client interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SetAccessToken(token string)
	Ping(ctx context.Context) error

	Fetch(ctx context.Context, kind models.RecordKind, identity string) ([]models.Record, error)
	Create(ctx context.Context, kind models.RecordKind, identity string, r models.Record) error
	Update(ctx context.Context, kind models.RecordKind, r models.Record) error
	Delete(ctx context.Context, kind models.RecordKind, id, identity string) error
	DeleteAll(ctx context.Context, identity string) error
}
