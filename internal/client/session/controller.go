package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/spendwise/internal/client/client"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

var (
	ErrNotAuthenticated = errors.New("no authenticated user")
	ErrNotLaunched      = errors.New("session not launched")
	// ErrStaleResult completes a fetch whose identity was replaced before it
	// returned.
	ErrStaleResult = errors.New("result discarded: identity changed")
)

const defaultRemoteTimeout = 30 * time.Second

// LocalStore is the device-local persistence used by the Controller.
type LocalStore interface {
	LoadRecords(ctx context.Context, kind models.RecordKind, key models.StorageKey) []models.Record
	SaveRecords(ctx context.Context, kind models.RecordKind, key models.StorageKey, records []models.Record)
	ClearAll(ctx context.Context, key models.StorageKey)
	LoadGuestMarker(ctx context.Context) models.GuestSessionMarker
	SaveGuestMarker(ctx context.Context, m models.GuestSessionMarker)
	ClearGuestMarker(ctx context.Context)
	LoadPreference(ctx context.Context, name string) (string, bool)
	SavePreference(ctx context.Context, name, value string)
	DeletePreference(ctx context.Context, name string)
}

type Identity interface {
	LoadCurrentUser(ctx context.Context) models.User
	SaveCurrentUser(ctx context.Context, u *models.User)
	StorageKey(ctx context.Context, u models.User) models.StorageKey
}

// Gate guards record access behind the app lock.
type Gate interface {
	Mode(ctx context.Context) models.SecurityMode
	IsSatisfied(ctx context.Context) bool
	Lock()
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithGuestTTL(ttl time.Duration) Option {
	return func(c *Controller) { c.guestTTL = ttl }
}

// WithRemoteTimeout bounds every background remote call.
func WithRemoteTimeout(d time.Duration) Option {
	return func(c *Controller) { c.remoteTimeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

type Controller struct {
	local    LocalStore
	identity Identity
	remote   client.Client
	gate     Gate
	logger   logging.Logger

	now           func() time.Time
	guestTTL      time.Duration
	remoteTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	launched   bool
	user       models.User
	key        models.StorageKey
	records    map[models.RecordKind][]models.Record
	generation uint64
	// mutations counts local writes. While fetches run, each write is also
	// journaled so a fetch can replay the ones made after it started.
	mutations uint64
	fetching  int
	journal   []localChange

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func New(local LocalStore, ident Identity, remote client.Client, gate Gate, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		local:         local,
		identity:      ident,
		remote:        remote,
		gate:          gate,
		logger:        logging.Nop(),
		now:           time.Now,
		guestTTL:      models.GuestDataTTL,
		remoteTimeout: defaultRemoteTimeout,
		baseCtx:       ctx,
		cancel:        cancel,
		records:       emptyCollections(),
		subs:          make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "session")
	return c
}

// localChange is one journaled write. A nil Record is a delete.
type localChange struct {
	seq    uint64
	kind   models.RecordKind
	id     string
	record *models.Record
}

func emptyCollections() map[models.RecordKind][]models.Record {
	return map[models.RecordKind][]models.Record{
		models.KindIncome:  {},
		models.KindExpense: {},
	}
}

// Close cancels background work and waits for it to return.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until all background work started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Launch restores the persisted session. For an authenticated user the
// returned Pending tracks the initial remote refresh.
func (c *Controller) Launch(ctx context.Context) *Pending {
	c.mu.Lock()
	c.user = c.identity.LoadCurrentUser(ctx)
	c.key = c.identity.StorageKey(ctx, c.user)

	marker := c.local.LoadGuestMarker(ctx)
	switch {
	case marker.ClearOnNextLaunch:
		c.purgeGuestLocked(ctx, "cleared on launch")
	case marker.Expired(c.now(), c.guestTTL):
		c.purgeGuestLocked(ctx, "expired")
	}

	for _, kind := range models.RecordKinds {
		c.records[kind] = c.local.LoadRecords(ctx, kind, c.key)
	}
	c.generation++
	c.launched = true

	p := completed(nil)
	if !c.user.IsGuest {
		if token, ok := c.local.LoadPreference(ctx, models.PrefAccessToken); ok {
			c.remote.SetAccessToken(token)
		}
		p = c.startFetchLocked()
	}
	key := c.key
	c.mu.Unlock()

	c.logger.Info(ctx, "session launched", "key", key, "guest", c.CurrentUser().IsGuest)
	c.emit(Event{Kind: IdentityChanged, Key: key}, Event{Kind: RecordsChanged, Key: key})
	return p
}

// CurrentUser returns a copy of the current user.
func (c *Controller) CurrentUser() models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Controller) StorageKey() models.StorageKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Records returns a copy of one collection. Expired guest data is purged
// before reading.
func (c *Controller) Records(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	if err := c.checkAccess(ctx, kind); err != nil {
		return nil, err
	}

	c.mu.Lock()
	events := c.enforceGuestExpiryLocked(ctx)
	out := models.CloneRecords(c.records[kind])
	c.mu.Unlock()

	c.emit(events...)
	return out, nil
}

// Add appends r to its collection. An empty ID is replaced by a new UUID.
func (c *Controller) Add(ctx context.Context, r models.Record) (*Pending, error) {
	if err := c.checkAccess(ctx, r.Kind); err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r = r.Clone()

	c.mu.Lock()
	events := c.enforceGuestExpiryLocked(ctx)
	current := c.records[r.Kind]
	if indexOf(current, r.ID) >= 0 {
		c.mu.Unlock()
		c.emit(events...)
		return nil, fmt.Errorf("%w: record %s", common.ErrAlreadyExists, r.ID)
	}

	next := make([]models.Record, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, r)
	c.commitLocked(ctx, r.Kind, next, r.ID, &r)
	if c.key == models.GuestStorageKey {
		c.touchGuestMarkerLocked(ctx)
	}

	email := c.user.Email
	p := c.mirrorLocked("create", func(ctx context.Context) error {
		return c.remote.Create(ctx, r.Kind, email, r)
	})
	events = append(events, Event{Kind: RecordsChanged, Key: c.key, Record: r.Kind})
	c.mu.Unlock()

	c.emit(events...)
	return p, nil
}

// Update replaces the record with r.ID in its collection.
func (c *Controller) Update(ctx context.Context, r models.Record) (*Pending, error) {
	if err := c.checkAccess(ctx, r.Kind); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r = r.Clone()

	c.mu.Lock()
	events := c.enforceGuestExpiryLocked(ctx)
	current := c.records[r.Kind]
	i := indexOf(current, r.ID)
	if i < 0 {
		c.mu.Unlock()
		c.emit(events...)
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, r.ID)
	}

	next := make([]models.Record, len(current))
	copy(next, current)
	next[i] = r
	c.commitLocked(ctx, r.Kind, next, r.ID, &r)

	p := c.mirrorLocked("update", func(ctx context.Context) error {
		return c.remote.Update(ctx, r.Kind, r)
	})
	events = append(events, Event{Kind: RecordsChanged, Key: c.key, Record: r.Kind})
	c.mu.Unlock()

	c.emit(events...)
	return p, nil
}

// Delete removes the record with id from the kind collection.
func (c *Controller) Delete(ctx context.Context, kind models.RecordKind, id string) (*Pending, error) {
	if err := c.checkAccess(ctx, kind); err != nil {
		return nil, err
	}

	c.mu.Lock()
	events := c.enforceGuestExpiryLocked(ctx)
	current := c.records[kind]
	i := indexOf(current, id)
	if i < 0 {
		c.mu.Unlock()
		c.emit(events...)
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}

	next := make([]models.Record, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	c.commitLocked(ctx, kind, next, id, nil)

	email := c.user.Email
	p := c.mirrorLocked("delete", func(ctx context.Context) error {
		return c.remote.Delete(ctx, kind, id, email)
	})
	events = append(events, Event{Kind: RecordsChanged, Key: c.key, Record: kind})
	c.mu.Unlock()

	c.emit(events...)
	return p, nil
}

// SignIn authenticates against the remote store and switches to the
// returned identity. The Pending tracks the initial fetch.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*Pending, error) {
	s, err := c.remote.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return c.becomeAuthenticated(ctx, s)
}

func (c *Controller) SignUp(ctx context.Context, email, password, displayName string) (*Pending, error) {
	s, err := c.remote.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if s.DisplayName == "" {
		s.DisplayName = displayName
	}
	return c.becomeAuthenticated(ctx, s)
}

func (c *Controller) becomeAuthenticated(ctx context.Context, s *client.Session) (*Pending, error) {
	// the backend matches owners case-insensitively; one account, one partition
	user := models.NewAuthenticatedUser(strings.ToLower(strings.TrimSpace(s.Email)), s.DisplayName)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.launched {
		c.mu.Unlock()
		return nil, ErrNotLaunched
	}

	// Guest data is never carried into an account.
	c.local.ClearAll(ctx, models.GuestStorageKey)
	c.local.ClearGuestMarker(ctx)

	c.identity.SaveCurrentUser(ctx, &user)
	c.local.SavePreference(ctx, models.PrefAccessToken, s.AccessToken)
	c.remote.SetAccessToken(s.AccessToken)

	c.user = user
	c.key = c.identity.StorageKey(ctx, user)
	c.records = emptyCollections()
	c.generation++
	p := c.startFetchLocked()
	key := c.key
	c.mu.Unlock()

	c.logger.Info(ctx, "signed in", "key", key)
	c.emit(Event{Kind: IdentityChanged, Key: key}, Event{Kind: RecordsChanged, Key: key})
	return p, nil
}

// SignOut drops the authenticated user with its local records and token and
// installs a fresh guest.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	if !c.launched {
		c.mu.Unlock()
		return ErrNotLaunched
	}
	if c.user.IsGuest {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}

	old := c.key
	c.local.ClearAll(ctx, old)
	c.local.DeletePreference(ctx, models.PrefAccessToken)
	c.remote.SetAccessToken("")

	guest := models.NewGuestUser()
	c.identity.SaveCurrentUser(ctx, &guest)
	c.user = guest
	c.key = c.identity.StorageKey(ctx, guest)
	c.records = emptyCollections()
	for _, kind := range models.RecordKinds {
		c.records[kind] = c.local.LoadRecords(ctx, kind, c.key)
	}
	c.generation++
	key := c.key
	c.mu.Unlock()

	c.logger.Info(ctx, "signed out", "previous", old)
	c.emit(Event{Kind: IdentityChanged, Key: key}, Event{Kind: RecordsChanged, Key: key})
	return nil
}

// DeleteAccount removes all remote records of the current user, then signs
// out. A remote failure is returned and the session is left unchanged.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	if user.IsGuest {
		return ErrNotAuthenticated
	}
	if err := c.remote.DeleteAll(ctx, user.Email); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return c.SignOut(ctx)
}

// EnterBackground purges guest data, flags it for clearing on the next
// launch and locks the gate when one is configured.
func (c *Controller) EnterBackground(ctx context.Context) {
	c.mu.Lock()
	var events []Event
	if c.user.IsGuest {
		c.local.ClearAll(ctx, models.GuestStorageKey)
		c.records = emptyCollections()
		c.generation++
		c.local.SaveGuestMarker(ctx, models.GuestSessionMarker{
			LastSessionWasGuest: true,
			ClearOnNextLaunch:   true,
		})
		events = append(events, Event{Kind: RecordsChanged, Key: c.key})
	}
	c.mu.Unlock()

	if c.gate.Mode(ctx) != models.SecurityNone {
		c.gate.Lock()
	}
	c.emit(events...)
}

// DiscardGuestData erases the guest partition and installs a fresh guest.
// It does nothing for an authenticated user.
func (c *Controller) DiscardGuestData(ctx context.Context) error {
	c.mu.Lock()
	if !c.launched {
		c.mu.Unlock()
		return ErrNotLaunched
	}
	if !c.user.IsGuest {
		c.mu.Unlock()
		return nil
	}
	c.purgeGuestLocked(ctx, "security reset")
	key := c.key
	c.mu.Unlock()

	c.emit(Event{Kind: IdentityChanged, Key: key}, Event{Kind: RecordsChanged, Key: key})
	return nil
}

// Refresh reloads both collections from the remote store. It is a no-op for
// guests.
func (c *Controller) Refresh(ctx context.Context) *Pending {
	if !c.gate.IsSatisfied(ctx) {
		return completed(common.ErrLocked)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.launched {
		return completed(ErrNotLaunched)
	}
	if c.user.IsGuest {
		return completed(nil)
	}
	return c.startFetchLocked()
}

// Reload replaces the in-memory collections with the local store's copy,
// for instance after a cloud restore. In-flight fetches are discarded.
func (c *Controller) Reload(ctx context.Context) error {
	if !c.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}

	c.mu.Lock()
	if !c.launched {
		c.mu.Unlock()
		return ErrNotLaunched
	}
	for _, kind := range models.RecordKinds {
		c.records[kind] = c.local.LoadRecords(ctx, kind, c.key)
	}
	c.generation++
	key := c.key
	c.mu.Unlock()

	c.emit(Event{Kind: RecordsChanged, Key: key})
	return nil
}

// UpdateProfile changes the display name and avatar of the current user.
func (c *Controller) UpdateProfile(ctx context.Context, displayName string, avatar []byte) error {
	if !c.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}

	c.mu.Lock()
	u := c.user
	u.DisplayName = displayName
	if avatar != nil {
		u.Avatar = append([]byte(nil), avatar...)
	}
	if err := u.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.identity.SaveCurrentUser(ctx, &u)
	c.user = u
	key := c.key
	c.mu.Unlock()

	c.emit(Event{Kind: IdentityChanged, Key: key})
	return nil
}

func (c *Controller) checkAccess(ctx context.Context, kind models.RecordKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown record kind %q", common.ErrValidation, kind)
	}
	if !c.gate.IsSatisfied(ctx) {
		return common.ErrLocked
	}
	c.mu.Lock()
	launched := c.launched
	c.mu.Unlock()
	if !launched {
		return ErrNotLaunched
	}
	return nil
}

func (c *Controller) commitLocked(ctx context.Context, kind models.RecordKind, next []models.Record, id string, rec *models.Record) {
	c.records[kind] = next
	c.mutations++
	if c.fetching > 0 {
		var cp *models.Record
		if rec != nil {
			v := rec.Clone()
			cp = &v
		}
		c.journal = append(c.journal, localChange{seq: c.mutations, kind: kind, id: id, record: cp})
	}
	c.local.SaveRecords(ctx, kind, c.key, next)
}

func (c *Controller) touchGuestMarkerLocked(ctx context.Context) {
	m := c.local.LoadGuestMarker(ctx)
	if !m.CreatedAt.IsZero() && m.LastSessionWasGuest {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = c.now()
	}
	m.LastSessionWasGuest = true
	c.local.SaveGuestMarker(ctx, m)
}

func (c *Controller) enforceGuestExpiryLocked(ctx context.Context) []Event {
	if c.key != models.GuestStorageKey {
		return nil
	}
	if !c.local.LoadGuestMarker(ctx).Expired(c.now(), c.guestTTL) {
		return nil
	}
	c.purgeGuestLocked(ctx, "expired")
	return []Event{
		{Kind: IdentityChanged, Key: c.key},
		{Kind: RecordsChanged, Key: c.key},
	}
}

// purgeGuestLocked removes guest records and the marker. A current guest
// user is replaced by a new one.
func (c *Controller) purgeGuestLocked(ctx context.Context, reason string) {
	c.local.ClearAll(ctx, models.GuestStorageKey)
	c.local.ClearGuestMarker(ctx)
	if c.key == models.GuestStorageKey {
		c.records = emptyCollections()
		c.generation++
	}
	if c.user.IsGuest {
		g := models.NewGuestUser()
		c.identity.SaveCurrentUser(ctx, &g)
		c.user = g
	}
	c.logger.Info(ctx, "guest data purged", "reason", reason)
}

// mirrorLocked runs op against the remote store in the background for an
// authenticated user.
func (c *Controller) mirrorLocked(name string, op func(context.Context) error) *Pending {
	if c.user.IsGuest {
		return completed(nil)
	}

	p := newPending()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.baseCtx, c.remoteTimeout)
		defer cancel()

		err := op(ctx)
		if err != nil {
			c.logger.Warn(ctx, "remote write failed", "op", name, "err", err)
		}
		p.complete(err)
	}()
	return p
}

// startFetchLocked loads both collections for the current identity in the
// background. Results are applied only if the generation is unchanged, with
// local writes made during the fetch replayed on top.
func (c *Controller) startFetchLocked() *Pending {
	gen := c.generation
	seq := c.mutations
	key := c.key
	email := c.user.Email
	c.fetching++

	p := newPending()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.baseCtx, c.remoteTimeout)
		defer cancel()

		fetched, err := c.fetchAll(ctx, email)

		c.mu.Lock()
		changes := c.changesSinceLocked(seq)
		c.endFetchLocked()
		if err != nil {
			c.mu.Unlock()
			c.logger.Warn(ctx, "remote fetch failed", "key", key, "err", err)
			p.complete(err)
			return
		}
		if c.generation != gen || c.key != key {
			c.mu.Unlock()
			c.logger.Info(ctx, "discarding stale fetch", "key", key)
			p.complete(ErrStaleResult)
			return
		}
		for _, kind := range models.RecordKinds {
			next := replayChanges(fetched[kind], kind, changes)
			c.records[kind] = next
			c.local.SaveRecords(ctx, kind, key, next)
		}
		c.mu.Unlock()

		c.emit(Event{Kind: RecordsChanged, Key: key})
		p.complete(nil)
	}()
	return p
}

func (c *Controller) fetchAll(ctx context.Context, email string) (map[models.RecordKind][]models.Record, error) {
	var incomes, expenses []models.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = c.remote.Fetch(gctx, models.KindIncome, email)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = c.remote.Fetch(gctx, models.KindExpense, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if incomes == nil {
		incomes = []models.Record{}
	}
	if expenses == nil {
		expenses = []models.Record{}
	}
	return map[models.RecordKind][]models.Record{
		models.KindIncome:  incomes,
		models.KindExpense: expenses,
	}, nil
}

func (c *Controller) changesSinceLocked(seq uint64) []localChange {
	var out []localChange
	for _, ch := range c.journal {
		if ch.seq > seq {
			out = append(out, ch)
		}
	}
	return out
}

func (c *Controller) endFetchLocked() {
	c.fetching--
	if c.fetching == 0 {
		c.journal = nil
	}
}

// replayChanges applies the journaled writes of kind to fetched in order.
func replayChanges(fetched []models.Record, kind models.RecordKind, changes []localChange) []models.Record {
	out := fetched
	for _, ch := range changes {
		if ch.kind != kind {
			continue
		}
		i := indexOf(out, ch.id)
		switch {
		case ch.record == nil && i >= 0:
			out = append(out[:i:i], out[i+1:]...)
		case ch.record != nil && i >= 0:
			out[i] = ch.record.Clone()
		case ch.record != nil:
			out = append(out, ch.record.Clone())
		}
	}
	return out
}

func indexOf(records []models.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
