// Package restapi holds the wire types and paths shared by the REST client
// and the development backend. The shapes follow the PostgREST and GoTrue
// conventions of the hosted backend.
package restapi

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PathSignUp = "auth/v1/signup"
	PathToken  = "auth/v1/token"
	PathHealth = "auth/v1/health"
	PathRest   = "rest/v1"

	GrantTypePassword = "password"
	PreferReturnRep   = "return=representation"
)

// Query parameter names and operators understood by the record endpoints.
const (
	ParamSelect    = "select"
	ParamOrder     = "order"
	ParamID        = "id"
	ParamUserEmail = "user_email"
	ParamIsDeleted = "is_deleted"

	OrderOccurredAtDesc = "occurred_at.desc"
	OpEq                = "eq."
)

// RecordRow is one income or expense row. Type is set for expenses only.
type RecordRow struct {
	ID         string          `json:"id"`
	UserEmail  string          `json:"user_email,omitempty"`
	Title      string          `json:"title"`
	OccurredAt time.Time       `json:"occurred_at"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Category   string          `json:"category"`
	Type       *string         `json:"type,omitempty"`
	Note       *string         `json:"note"`
	PhotoURL   *string         `json:"photo_url"`
	IsDeleted  bool            `json:"is_deleted"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
}

// SoftDeletePatch marks a row inactive.
type SoftDeletePatch struct {
	IsDeleted bool      `json:"is_deleted"`
	DeletedAt time.Time `json:"deleted_at"`
}

type Credentials struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Data     *UserMetadata `json:"data,omitempty"`
}

type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

type AuthUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        AuthUser `json:"user"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
