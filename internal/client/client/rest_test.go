package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type fakeBackend struct {
	last   captured
	calls  []captured
	status int
	body   string
}

func (f *fakeBackend) handler(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	c := captured{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone(), Body: b}
	f.last = c
	f.calls = append(f.calls, c)
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.body)
}

var fixedNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, f *fakeBackend, opts ...Option) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := NewRESTClient(srv.URL+"/", "anon-key", opts...)
	require.NoError(t, err)
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestNewRESTClient_ConfigurationError(t *testing.T) {
	for _, endpoint := range []string{"ftp://host", "not a url", "http://", "://bad"} {
		_, err := NewRESTClient(endpoint, "k")
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce, endpoint)
		assert.Equal(t, endpoint, ce.Endpoint)
	}
}

func TestBearer_AnonKeyWhenNoTokenOrExpired(t *testing.T) {
	f := &fakeBackend{body: `[]`}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Fetch(ctx, models.KindIncome, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", f.last.Header.Get("Authorization"))
	assert.Equal(t, "anon-key", f.last.Header.Get("apikey"))

	valid := signedToken(t, fixedNow.Add(time.Hour))
	c.SetAccessToken(valid)
	_, err = c.Fetch(ctx, models.KindIncome, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+valid, f.last.Header.Get("Authorization"))

	c.SetAccessToken(signedToken(t, fixedNow.Add(-time.Minute)))
	_, err = c.Fetch(ctx, models.KindIncome, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", f.last.Header.Get("Authorization"))

	c.SetAccessToken("opaque")
	_, err = c.Fetch(ctx, models.KindIncome, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque", f.last.Header.Get("Authorization"))
}

func TestFetch_QueryAndOrdering(t *testing.T) {
	older := restapi.RecordRow{ID: "1", Title: "old", OccurredAt: fixedNow.AddDate(0, -1, 0), Amount: decimal.NewFromInt(5), Currency: "TRY", Category: "Food"}
	newer := restapi.RecordRow{ID: "2", Title: "new", OccurredAt: fixedNow, Amount: decimal.NewFromInt(7), Currency: "USD", Category: "Bill"}
	bad := restapi.RecordRow{ID: "3", Title: "bad", OccurredAt: fixedNow, Amount: decimal.NewFromInt(1), Currency: "BTC", Category: "Food"}
	body, _ := json.Marshal([]restapi.RecordRow{older, newer, bad})

	f := &fakeBackend{body: string(body)}
	c := newTestClient(t, f)

	got, err := c.Fetch(context.Background(), models.KindExpense, "a@b.c")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, f.last.Method)
	assert.Equal(t, "/rest/v1/expenses", f.last.Path)
	assert.Equal(t, []string{"eq.a@b.c"}, f.last.Query["user_email"])
	assert.Equal(t, []string{"eq.false"}, f.last.Query["is_deleted"])
	assert.Equal(t, []string{"occurred_at.desc"}, f.last.Query["order"])

	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, models.ExpenseOneTime, got[0].ExpenseType)
	assert.Equal(t, models.KindExpense, got[0].Kind)
}

func TestCreate_SendsRowWithIdentity(t *testing.T) {
	f := &fakeBackend{status: http.StatusCreated}
	c := newTestClient(t, f)
	note := "lunch"
	r := models.NewRecord(models.KindExpense, "Cafe", decimal.RequireFromString("12.40"), models.CurrencyEUR, models.CategoryFood, fixedNow)
	r.Note = &note
	r.Photo = []byte{1}

	require.NoError(t, c.Create(context.Background(), models.KindExpense, "a@b.c", r))

	assert.Equal(t, http.MethodPost, f.last.Method)
	assert.Equal(t, "/rest/v1/expenses", f.last.Path)
	assert.Equal(t, "return=representation", f.last.Header.Get("Prefer"))

	var row restapi.RecordRow
	require.NoError(t, json.Unmarshal(f.last.Body, &row))
	assert.Equal(t, r.ID, row.ID)
	assert.Equal(t, "a@b.c", row.UserEmail)
	assert.Equal(t, "lunch", *row.Note)
	assert.Equal(t, "One Time", *row.Type)
	assert.Nil(t, row.PhotoURL)
	assert.True(t, r.Amount.Equal(row.Amount))
}

func TestUpdate_MatchesByID(t *testing.T) {
	f := &fakeBackend{}
	c := newTestClient(t, f)
	r := models.NewRecord(models.KindIncome, "Pay", decimal.NewFromInt(100), models.CurrencyTRY, models.CategorySalary, fixedNow)

	require.NoError(t, c.Update(context.Background(), models.KindIncome, r))
	assert.Equal(t, http.MethodPatch, f.last.Method)
	assert.Equal(t, []string{"eq." + r.ID}, f.last.Query["id"])
	assert.NotContains(t, string(f.last.Body), "user_email")
	assert.NotContains(t, string(f.last.Body), `"type"`)
}

func TestDelete_SoftAndHard(t *testing.T) {
	f := &fakeBackend{}
	soft := newTestClient(t, f)
	require.NoError(t, soft.Delete(context.Background(), models.KindIncome, "r1", "a@b.c"))
	assert.Equal(t, http.MethodPatch, f.last.Method)
	var patch restapi.SoftDeletePatch
	require.NoError(t, json.Unmarshal(f.last.Body, &patch))
	assert.True(t, patch.IsDeleted)
	assert.True(t, fixedNow.Equal(patch.DeletedAt))
	assert.Equal(t, []string{"eq.r1"}, f.last.Query["id"])
	assert.Equal(t, []string{"eq.a@b.c"}, f.last.Query["user_email"])

	f2 := &fakeBackend{}
	hard := newTestClient(t, f2, WithSoftDelete(false))
	require.NoError(t, hard.Delete(context.Background(), models.KindExpense, "r2", "a@b.c"))
	assert.Equal(t, http.MethodDelete, f2.last.Method)
	assert.Empty(t, f2.last.Body)
}

func TestDeleteAll_BothCollections(t *testing.T) {
	f := &fakeBackend{}
	c := newTestClient(t, f)
	require.NoError(t, c.DeleteAll(context.Background(), "a@b.c"))

	require.Len(t, f.calls, 2)
	assert.Equal(t, "/rest/v1/incomes", f.calls[0].Path)
	assert.Equal(t, "/rest/v1/expenses", f.calls[1].Path)
	for _, call := range f.calls {
		assert.Equal(t, http.MethodDelete, call.Method)
		assert.Equal(t, []string{"eq.a@b.c"}, call.Query["user_email"])
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"server error", http.StatusInternalServerError, `{"message":"db down"}`, func(t *testing.T, err error) {
			var se *ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "db down", se.Message)
			assert.ErrorIs(t, err, ErrUnavailable)
		}},
		{"unauthorized", http.StatusUnauthorized, `{"message":"JWT expired"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.NotErrorIs(t, err, ErrUnavailable)
		}},
		{"plain text body", http.StatusBadGateway, `upstream`, func(t *testing.T, err error) {
			var se *ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "upstream", se.Message)
		}},
		{"malformed json", http.StatusOK, `{`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnavailable)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeBackend{status: tt.status, body: tt.body})
			_, err := c.Fetch(context.Background(), models.KindIncome, "a@b.c")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewRESTClient(url, "k")
	require.NoError(t, err)
	err = c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCanceledContextIsNotUnavailable(t *testing.T) {
	c := newTestClient(t, &fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Ping(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestSignIn_ReturnsSessionWithoutAdoptingToken(t *testing.T) {
	resp := restapi.AuthResponse{AccessToken: "tok", ExpiresIn: 3600,
		User: restapi.AuthUser{Email: "a@b.c", UserMetadata: restapi.UserMetadata{FullName: "Ada"}}}
	body, _ := json.Marshal(resp)
	f := &fakeBackend{body: string(body)}
	c := newTestClient(t, f)

	s, err := c.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/token", f.last.Path)
	assert.Equal(t, []string{"password"}, f.last.Query["grant_type"])
	assert.Equal(t, "a@b.c", s.Email)
	assert.Equal(t, "Ada", s.DisplayName)
	assert.Equal(t, fixedNow.Add(time.Hour), s.ExpiresAt)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "Bearer anon-key", f.last.Header.Get("Authorization"))

	c.SetAccessToken(s.AccessToken)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "Bearer tok", f.last.Header.Get("Authorization"))
}

func TestSignUp_SendsDisplayName(t *testing.T) {
	f := &fakeBackend{body: `{"access_token":"t","user":{}}`}
	c := newTestClient(t, f)

	s, err := c.SignUp(context.Background(), "new@b.c", "pw", "Newbie")
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/signup", f.last.Path)
	assert.Contains(t, string(f.last.Body), `"full_name":"Newbie"`)
	assert.Equal(t, "new@b.c", s.Email, "falls back to the submitted email")
}

func TestSignIn_BadCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		c := newTestClient(t, &fakeBackend{status: status, body: `{"message":"Invalid login credentials"}`})
		_, err := c.SignIn(context.Background(), "a@b.c", "nope")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestSignIn_MissingToken(t *testing.T) {
	c := newTestClient(t, &fakeBackend{body: `{"user":{"email":"a@b.c"}}`})
	_, err := c.SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)
}
