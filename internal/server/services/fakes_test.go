package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/dbx"
	"github.com/dmitrijs2005/spendwise/internal/server/config"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/records"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/users"
)

// --- helpers ---

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	cp := *u
	cp.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.byEmail[u.Email] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type recordsCall struct {
	op     string
	table  models.Table
	filter models.Filter
	patch  models.Patch
	rec    *models.Record
}

type fakeRecordsRepo struct {
	calls   []recordsCall
	listOut []models.Record
	count   int64
	err     error
}

func (f *fakeRecordsRepo) List(_ context.Context, t models.Table, fl models.Filter) ([]models.Record, error) {
	f.calls = append(f.calls, recordsCall{op: "list", table: t, filter: fl})
	return f.listOut, f.err
}

func (f *fakeRecordsRepo) Insert(_ context.Context, t models.Table, rec *models.Record) error {
	f.calls = append(f.calls, recordsCall{op: "insert", table: t, rec: rec})
	return f.err
}

func (f *fakeRecordsRepo) Update(_ context.Context, t models.Table, fl models.Filter, p models.Patch) (int64, error) {
	f.calls = append(f.calls, recordsCall{op: "update", table: t, filter: fl, patch: p})
	return f.count, f.err
}

func (f *fakeRecordsRepo) Delete(_ context.Context, t models.Table, fl models.Filter) (int64, error) {
	f.calls = append(f.calls, recordsCall{op: "delete", table: t, filter: fl})
	return f.count, f.err
}

type fakeRM struct {
	users   users.Repository
	records records.Repository
}

func (m *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRM) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRM) Records(dbx.DBTX) records.Repository          { return m.records }

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}
}

func newUserService(t *testing.T, repo users.Repository) *UserService {
	t.Helper()
	return NewUserService(nil, &fakeRM{users: repo}, testConfig())
}

func newRecordService(t *testing.T, repo records.Repository) *RecordService {
	t.Helper()
	return NewRecordService(nil, &fakeRM{records: repo})
}
