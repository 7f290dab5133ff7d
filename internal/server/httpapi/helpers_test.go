package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/dbx"
	"github.com/dmitrijs2005/spendwise/internal/server/config"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/records"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/users"
	"github.com/dmitrijs2005/spendwise/internal/server/services"
)

// --- in-memory repositories behind the real services ---

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	cp := *u
	cp.CreatedAt = time.Now()
	m.byEmail[u.Email] = cp
	return &cp, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

type memRecords struct {
	mu   sync.Mutex
	rows map[models.Table][]models.Record
}

func matches(rec models.Record, f models.Filter) bool {
	if f.ID != "" && rec.ID != f.ID {
		return false
	}
	if f.UserEmail != "" && rec.UserEmail != f.UserEmail {
		return false
	}
	if f.IsDeleted != nil && rec.IsDeleted != *f.IsDeleted {
		return false
	}
	return true
}

func (m *memRecords) List(_ context.Context, t models.Table, f models.Filter) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Record{}
	for _, rec := range m.rows[t] {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	}
	return out, nil
}

func (m *memRecords) Insert(_ context.Context, t models.Table, rec *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[t] {
		if r.ID == rec.ID {
			return common.ErrAlreadyExists
		}
	}
	if t == models.TableIncomes {
		rec.Type = nil
	}
	rec.CreatedAt = time.Now()
	m.rows[t] = append(m.rows[t], *rec)
	return nil
}

func (m *memRecords) Update(_ context.Context, t models.Table, f models.Filter, p models.Patch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, rec := range m.rows[t] {
		if !matches(rec, f) {
			continue
		}
		if p.Title != nil {
			rec.Title = *p.Title
		}
		if p.Amount != nil {
			rec.Amount = *p.Amount
		}
		if p.Category != nil {
			rec.Category = *p.Category
		}
		if p.OccurredAt != nil {
			rec.OccurredAt = *p.OccurredAt
		}
		if p.Note != nil {
			rec.Note = p.Note
		} else if p.ClearNote {
			rec.Note = nil
		}
		if p.IsDeleted != nil {
			rec.IsDeleted = *p.IsDeleted
		}
		if p.DeletedAt != nil {
			rec.DeletedAt = p.DeletedAt
		}
		m.rows[t][i] = rec
		n++
	}
	return n, nil
}

func (m *memRecords) Delete(_ context.Context, t models.Table, f models.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[t][:0]
	var n int64
	for _, rec := range m.rows[t] {
		if matches(rec, f) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	m.rows[t] = kept
	return n, nil
}

type memRM struct {
	users   *memUsers
	records *memRecords
}

func (m *memRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRM) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *memRM) Records(dbx.DBTX) records.Repository          { return m.records }

func newTestServer(t *testing.T, anonKey string) http.Handler {
	t.Helper()
	rm := &memRM{
		users:   &memUsers{byEmail: map[string]models.User{}},
		records: &memRecords{rows: map[models.Table][]models.Record{}},
	}
	cfg := &config.Config{SecretKey: "test", AccessTokenValidityDuration: time.Hour}
	return NewRouter(services.NewUserService(nil, rm, cfg), services.NewRecordService(nil, rm), anonKey, nil)
}

func doJSON(t *testing.T, ts http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	buf := &bytes.Buffer{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		buf = bytes.NewBuffer(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}
