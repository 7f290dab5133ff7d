package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUp(t *testing.T, ts http.Handler, email string) string {
	t.Helper()
	rr := doJSON(t, ts, "POST", "/auth/v1/signup", restapi.Credentials{Email: email, Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[restapi.AuthResponse](t, rr).AccessToken
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token, "Prefer": restapi.PreferReturnRep}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	for _, path := range []string{"/health", "/auth/v1/health"} {
		rr := doJSON(t, ts, "GET", path, nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestAPIKey(t *testing.T) {
	ts := newTestServer(t, "anon")

	rr := doJSON(t, ts, "GET", "/auth/v1/health", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid_api_key", decode[restapi.ErrorResponse](t, rr).Code)

	rr = doJSON(t, ts, "GET", "/auth/v1/health", nil, map[string]string{"apikey": "anon"})
	assert.Equal(t, http.StatusOK, rr.Code)

	// the plain health check is open
	rr = doJSON(t, ts, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSignUpAndToken(t *testing.T) {
	ts := newTestServer(t, "")

	creds := restapi.Credentials{Email: "u@example.com", Password: "secret1", Data: &restapi.UserMetadata{FullName: "U"}}
	rr := doJSON(t, ts, "POST", "/auth/v1/signup", creds, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[restapi.AuthResponse](t, rr)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.EqualValues(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "u@example.com", resp.User.Email)
	assert.Equal(t, "U", resp.User.UserMetadata.FullName)

	rr = doJSON(t, ts, "POST", "/auth/v1/signup", creds, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, ts, "POST", "/auth/v1/signup", restapi.Credentials{Email: "x@example.com", Password: "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, ts, "POST", "/auth/v1/token?grant_type=password", restapi.Credentials{Email: "u@example.com", Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "U", decode[restapi.AuthResponse](t, rr).User.UserMetadata.FullName)

	rr = doJSON(t, ts, "POST", "/auth/v1/token?grant_type=password", restapi.Credentials{Email: "u@example.com", Password: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_credentials", decode[restapi.ErrorResponse](t, rr).Code)

	rr = doJSON(t, ts, "POST", "/auth/v1/token?grant_type=refresh_token", restapi.Credentials{}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, ts, "POST", "/auth/v1/signup", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRest_RequiresUserToken(t *testing.T) {
	ts := newTestServer(t, "")

	rr := doJSON(t, ts, "GET", "/rest/v1/expenses", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, ts, "GET", "/rest/v1/expenses", nil, bearer("anon"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token := signUp(t, ts, "u@example.com")
	rr = doJSON(t, ts, "GET", "/rest/v1/users", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRest_CRUD(t *testing.T) {
	ts := newTestServer(t, "")
	token := signUp(t, ts, "u@example.com")
	h := bearer(token)

	typ := "Monthly"
	row := restapi.RecordRow{
		ID:         "r1",
		UserEmail:  "u@example.com",
		Title:      "Rent",
		OccurredAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(900),
		Currency:   "EUR",
		Category:   "Bill",
		Type:       &typ,
	}
	rr := doJSON(t, ts, "POST", "/rest/v1/expenses", row, h)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[[]restapi.RecordRow](t, rr)
	require.Len(t, created, 1)
	assert.Equal(t, "Monthly", *created[0].Type)

	rr = doJSON(t, ts, "POST", "/rest/v1/expenses", row, h)
	assert.Equal(t, http.StatusConflict, rr.Code)

	older := row
	older.ID, older.OccurredAt = "r0", row.OccurredAt.AddDate(0, -1, 0)
	rr = doJSON(t, ts, "POST", "/rest/v1/expenses", []restapi.RecordRow{older}, h)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, ts, "GET", "/rest/v1/expenses?select=*&user_email=eq.u@example.com&is_deleted=eq.false&order=occurred_at.desc", nil, h)
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]restapi.RecordRow](t, rr)
	require.Len(t, rows, 2)
	assert.Equal(t, "r1", rows[0].ID)

	rr = doJSON(t, ts, "PATCH", "/rest/v1/expenses?id=eq.r1", map[string]any{"is_deleted": true, "deleted_at": time.Now().UTC()}, h)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rows = decode[[]restapi.RecordRow](t, rr)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsDeleted)

	rr = doJSON(t, ts, "GET", "/rest/v1/expenses?is_deleted=eq.false", nil, h)
	assert.Len(t, decode[[]restapi.RecordRow](t, rr), 1)

	rr = doJSON(t, ts, "DELETE", "/rest/v1/expenses?user_email=eq.u@example.com", nil, h)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, ts, "GET", "/rest/v1/expenses", nil, h)
	assert.Empty(t, decode[[]restapi.RecordRow](t, rr))
}

func TestRest_OwnerIsolation(t *testing.T) {
	ts := newTestServer(t, "")
	alice := bearer(signUp(t, ts, "alice@example.com"))
	bob := bearer(signUp(t, ts, "bob@example.com"))

	row := restapi.RecordRow{
		ID: "a1", Title: "Salary", OccurredAt: time.Now().UTC(),
		Amount: decimal.NewFromInt(10), Currency: "USD", Category: "Salary",
	}
	rr := doJSON(t, ts, "POST", "/rest/v1/incomes", row, alice)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "alice@example.com", decode[[]restapi.RecordRow](t, rr)[0].UserEmail)

	row.ID, row.UserEmail = "b1", "alice@example.com"
	rr = doJSON(t, ts, "POST", "/rest/v1/incomes", row, bob)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, ts, "GET", "/rest/v1/incomes?user_email=eq.alice@example.com", nil, bob)
	assert.Empty(t, decode[[]restapi.RecordRow](t, rr))

	rr = doJSON(t, ts, "DELETE", "/rest/v1/incomes?id=eq.a1", nil, bob)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, ts, "GET", "/rest/v1/incomes", nil, alice)
	assert.Len(t, decode[[]restapi.RecordRow](t, rr), 1)
}

func TestRest_BadRequests(t *testing.T) {
	ts := newTestServer(t, "")
	h := bearer(signUp(t, ts, "u@example.com"))

	for _, path := range []string{
		"/rest/v1/expenses?order=title.asc",
		"/rest/v1/expenses?id=like.x",
		"/rest/v1/expenses?is_deleted=eq.maybe",
		"/rest/v1/expenses?select=id",
		"/rest/v1/expenses?amount=eq.1",
	} {
		rr := doJSON(t, ts, "GET", path, nil, h)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}

	rr := doJSON(t, ts, "PATCH", "/rest/v1/expenses?id=eq.x", map[string]any{"colour": "red"}, h)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, ts, "POST", "/rest/v1/expenses", restapi.RecordRow{ID: "x"}, h)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
