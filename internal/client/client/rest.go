package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/logging"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/golang-jwt/jwt/v5"
)

type RESTClient struct {
	baseURL    *url.URL
	anonKey    string
	http       *http.Client
	softDelete bool
	logger     logging.Logger
	now        func() time.Time

	mu    sync.RWMutex
	token string
}

type Option func(*RESTClient)

func WithHTTPClient(h *http.Client) Option {
	return func(c *RESTClient) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *RESTClient) { c.http.Timeout = d }
}

// WithSoftDelete selects soft (true, default) or hard deletes.
func WithSoftDelete(soft bool) Option {
	return func(c *RESTClient) { c.softDelete = soft }
}

func WithLogger(l logging.Logger) Option {
	return func(c *RESTClient) { c.logger = l.With("component", "remote") }
}

func WithClock(now func() time.Time) Option {
	return func(c *RESTClient) { c.now = now }
}

// NewRESTClient validates endpoint and returns a client. A malformed
// endpoint yields *ConfigurationError.
func NewRESTClient(endpoint, anonKey string, opts ...Option) (*RESTClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ConfigurationError{Endpoint: endpoint, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{Endpoint: endpoint, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Endpoint: endpoint, Reason: "missing host"}
	}

	c := &RESTClient{
		baseURL:    u,
		anonKey:    anonKey,
		http:       &http.Client{Timeout: 15 * time.Second},
		softDelete: true,
		logger:     logging.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SetAccessToken sets the bearer for later calls. SignIn and SignUp leave
// it to the caller.
func (c *RESTClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// bearer returns the held token while it is unexpired, else the anon key.
func (c *RESTClient) bearer(ctx context.Context) string {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return c.anonKey
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// opaque tokens are sent as is
		return token
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
		c.logger.Debug(ctx, "access token expired, using anonymous key")
		return c.anonKey
	}
	return token
}

func (c *RESTClient) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.APIKeyHeaderName, c.anonKey)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.bearer(ctx))
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set(common.PreferHeaderName, restapi.PreferReturnRep)
	}
	return req, nil
}

// do sends the request and decodes a 2xx body into out when out is non-nil.
func (c *RESTClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapStatus(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func (c *RESTClient) mapStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var er restapi.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Message != "" {
		msg = er.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return &ServerError{StatusCode: status, Message: msg}
}

func (c *RESTClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, restapi.PathHealth, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *RESTClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": {restapi.GrantTypePassword}}
	return c.authenticate(ctx, restapi.PathToken, q, restapi.Credentials{Email: email, Password: password})
}

func (c *RESTClient) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	creds := restapi.Credentials{Email: email, Password: password}
	if displayName != "" {
		creds.Data = &restapi.UserMetadata{FullName: displayName}
	}
	return c.authenticate(ctx, restapi.PathSignUp, nil, creds)
}

func (c *RESTClient) authenticate(ctx context.Context, path string, q url.Values, creds restapi.Credentials) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, q, creds)
	if err != nil {
		return nil, err
	}

	var resp restapi.AuthResponse
	if err := c.do(req, &resp); err != nil {
		var se *ServerError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, se.Message)
		}
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "missing access token"}
	}

	s := &Session{
		AccessToken: resp.AccessToken,
		Email:       resp.User.Email,
		DisplayName: resp.User.UserMetadata.FullName,
	}
	if s.Email == "" {
		s.Email = creds.Email
	}
	if resp.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return s, nil
}

func eq(v string) string { return restapi.OpEq + v }

func collectionPath(kind models.RecordKind) string {
	return restapi.PathRest + "/" + string(kind)
}

// Fetch returns the identity's non-deleted records, newest first. Rows that
// fail validation are skipped and logged.
func (c *RESTClient) Fetch(ctx context.Context, kind models.RecordKind, identity string) ([]models.Record, error) {
	q := url.Values{
		restapi.ParamSelect:    {"*"},
		restapi.ParamUserEmail: {eq(identity)},
		restapi.ParamIsDeleted: {eq("false")},
		restapi.ParamOrder:     {restapi.OrderOccurredAtDesc},
	}
	req, err := c.newRequest(ctx, http.MethodGet, collectionPath(kind), q, nil)
	if err != nil {
		return nil, err
	}

	var rows []restapi.RecordRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		r, err := fromRow(kind, row)
		if err != nil {
			c.logger.Warn(ctx, "skipping remote row", "kind", kind, "err", err)
			continue
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt.After(records[j].OccurredAt)
	})
	return records, nil
}

func (c *RESTClient) Create(ctx context.Context, kind models.RecordKind, identity string, r models.Record) error {
	req, err := c.newRequest(ctx, http.MethodPost, collectionPath(kind), nil, toRow(r, identity))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *RESTClient) Update(ctx context.Context, kind models.RecordKind, r models.Record) error {
	q := url.Values{restapi.ParamID: {eq(r.ID)}}
	req, err := c.newRequest(ctx, http.MethodPatch, collectionPath(kind), q, toRow(r, ""))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *RESTClient) Delete(ctx context.Context, kind models.RecordKind, id, identity string) error {
	q := url.Values{
		restapi.ParamID:        {eq(id)},
		restapi.ParamUserEmail: {eq(identity)},
	}

	var (
		req *http.Request
		err error
	)
	if c.softDelete {
		patch := restapi.SoftDeletePatch{IsDeleted: true, DeletedAt: c.now().UTC()}
		req, err = c.newRequest(ctx, http.MethodPatch, collectionPath(kind), q, patch)
	} else {
		req, err = c.newRequest(ctx, http.MethodDelete, collectionPath(kind), q, nil)
	}
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DeleteAll hard-deletes every row the identity owns in both collections.
func (c *RESTClient) DeleteAll(ctx context.Context, identity string) error {
	for _, kind := range models.RecordKinds {
		q := url.Values{restapi.ParamUserEmail: {eq(identity)}}
		req, err := c.newRequest(ctx, http.MethodDelete, collectionPath(kind), q, nil)
		if err != nil {
			return err
		}
		if err := c.do(req, nil); err != nil {
			return fmt.Errorf("delete all %s: %w", kind, err)
		}
	}
	return nil
}
