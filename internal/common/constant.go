// Package common contains shared constants and sentinel errors used across
// SpendWise components.
package common

// Header names shared by the REST client and the development backend.
const (
	AuthorizationHeaderName = "Authorization"
	APIKeyHeaderName        = "apikey"
	PreferHeaderName        = "Prefer"
)

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "
