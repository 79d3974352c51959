package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/repositories/challenges"
	"github.com/afocalor/rair-dapp/internal/server/repositories/files"
	"github.com/afocalor/rair-dapp/internal/server/repositories/offers"
	"github.com/afocalor/rair-dapp/internal/server/repositories/tokens"
	"github.com/afocalor/rair-dapp/internal/server/repositories/unlocks"
	"github.com/afocalor/rair-dapp/internal/server/repositories/users"
	"github.com/cenkalti/backoff/v4"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// noRetryDelay makes unlock transaction retries immediate.
func noRetryDelay(t *testing.T) {
	t.Helper()
	orig := newRetryPolicy
	newRetryPolicy = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3) }
	t.Cleanup(func() { newRetryPolicy = orig })
}

// --- in-memory repositories; the tx handle is ignored ---

type memUsers struct {
	byAddr map[string]*models.User
	err    error
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.byAddr[u.PublicAddress]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.CreatedAt = time.Now()
	m.byAddr[u.PublicAddress] = u
	return u, nil
}

func (m *memUsers) GetByAddress(_ context.Context, addr string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byAddr[addr]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memChallenges struct {
	byNonce map[string]*models.Challenge
	err     error
}

func (m *memChallenges) Create(_ context.Context, c *models.Challenge) error {
	if m.err != nil {
		return m.err
	}
	m.byNonce[c.Nonce] = c
	return nil
}

func (m *memChallenges) Consume(_ context.Context, nonce string) (*models.Challenge, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byNonce[nonce]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(m.byNonce, nonce)
	return c, nil
}

func (m *memChallenges) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, c := range m.byNonce {
		if c.ExpiresAt.Before(now) {
			delete(m.byNonce, k)
			n++
		}
	}
	return n, nil
}

type memFiles struct {
	byID     map[string]*models.File
	keys     map[string]string
	order    []string
	patches  map[string]map[string]any
	lastList models.FileFilter
	err      error
}

func newMemFiles(fs ...*models.File) *memFiles {
	m := &memFiles{byID: map[string]*models.File{}, keys: map[string]string{}, patches: map[string]map[string]any{}}
	for _, f := range fs {
		m.byID[f.ID] = f
		m.order = append(m.order, f.ID)
	}
	return m
}

func (m *memFiles) GetByID(_ context.Context, id string) (*models.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFiles) GetKey(_ context.Context, id string) (string, error) {
	if _, ok := m.byID[id]; !ok {
		return "", common.ErrorNotFound
	}
	return m.keys[id], nil
}

func (m *memFiles) List(_ context.Context, filter models.FileFilter) ([]*models.File, error) {
	m.lastList = filter
	out := []*models.File{}
	for _, id := range m.order {
		f := m.byID[id]
		if filter.Uploader != "" && f.Uploader != filter.Uploader {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memFiles) ListByIDs(_ context.Context, ids []string) ([]*models.File, error) {
	out := []*models.File{}
	for _, id := range ids {
		if f, ok := m.byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) ListByCategory(_ context.Context, categoryID string, offset, limit int) ([]*models.File, error) {
	var all []*models.File
	for _, id := range m.order {
		if m.byID[id].CategoryID == categoryID {
			all = append(all, m.byID[id])
		}
	}
	out := []*models.File{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memFiles) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	var n int64
	for _, f := range m.byID {
		if f.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *memFiles) Update(_ context.Context, id string, patch map[string]any) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	m.patches[id] = patch
	return nil
}

func (m *memFiles) SetDemo(_ context.Context, id string, demo bool) error {
	f, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Demo = demo
	return nil
}

type memOffers struct {
	byID map[string]*models.Offer
}

func newMemOffers(os ...*models.Offer) *memOffers {
	m := &memOffers{byID: map[string]*models.Offer{}}
	for _, o := range os {
		m.byID[o.ID] = o
	}
	return m
}

func (m *memOffers) FindByRange(_ context.Context, contractID string, rangeIndex int64) ([]*models.Offer, error) {
	out := []*models.Offer{}
	for _, o := range m.byID {
		if o.ContractID == contractID && o.DiamondRangeIndex == rangeIndex {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memOffers) ListByIDs(_ context.Context, ids []string) ([]*models.Offer, error) {
	out := []*models.Offer{}
	for _, id := range ids {
		if o, ok := m.byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

type memTokens struct {
	byID map[string]*models.MintedToken
}

func (m *memTokens) GetByID(_ context.Context, id string) (*models.MintedToken, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

type memUnlocks struct {
	byFile    map[string]*models.Unlock
	conflicts int // SaveOffers fails with a version conflict this many times
	saves     int
}

func newMemUnlocks() *memUnlocks {
	return &memUnlocks{byFile: map[string]*models.Unlock{}}
}

func (m *memUnlocks) Ensure(_ context.Context, fileID string) error {
	if _, ok := m.byFile[fileID]; !ok {
		m.byFile[fileID] = &models.Unlock{ID: "u-" + fileID, FileID: fileID, OfferIDs: []string{}}
	}
	return nil
}

func (m *memUnlocks) GetByFile(_ context.Context, fileID string) (*models.Unlock, error) {
	u, ok := m.byFile[fileID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	cp.OfferIDs = append([]string{}, u.OfferIDs...)
	return &cp, nil
}

func (m *memUnlocks) GetByFileForUpdate(ctx context.Context, fileID string) (*models.Unlock, error) {
	return m.GetByFile(ctx, fileID)
}

func (m *memUnlocks) SaveOffers(_ context.Context, u *models.Unlock) error {
	if m.conflicts > 0 {
		m.conflicts--
		return common.ErrVersionConflict
	}
	cur, ok := m.byFile[u.FileID]
	if !ok || cur.Version != u.Version {
		return common.ErrVersionConflict
	}
	m.saves++
	u.Version++
	cp := *u
	cp.OfferIDs = append([]string{}, u.OfferIDs...)
	m.byFile[u.FileID] = &cp
	return nil
}

func (m *memUnlocks) FileIDsContainingAll(_ context.Context, offerIDs []string) ([]string, error) {
	out := []string{}
	for fileID, u := range m.byFile {
		all := true
		for _, id := range offerIDs {
			if !u.HasOffer(id) {
				all = false
				break
			}
		}
		if all && len(offerIDs) > 0 {
			out = append(out, fileID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeRepoManager struct {
	users      *memUsers
	challenges *memChallenges
	files      *memFiles
	offers     *memOffers
	tokens     *memTokens
	unlocks    *memUnlocks
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      &memUsers{byAddr: map[string]*models.User{}},
		challenges: &memChallenges{byNonce: map[string]*models.Challenge{}},
		files:      newMemFiles(),
		offers:     newMemOffers(),
		tokens:     &memTokens{byID: map[string]*models.MintedToken{}},
		unlocks:    newMemUnlocks(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Challenges(dbx.DBTX) challenges.Repository    { return m.challenges }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository              { return m.files }
func (m *fakeRepoManager) Offers(dbx.DBTX) offers.Repository            { return m.offers }
func (m *fakeRepoManager) Tokens(dbx.DBTX) tokens.Repository            { return m.tokens }
func (m *fakeRepoManager) Unlocks(dbx.DBTX) unlocks.Repository          { return m.unlocks }

// sqlmockOf swaps the service's database for a fresh sqlmock handle so
// transaction boundaries can be asserted.
func sqlmockOf(t *testing.T, s *FileService) sqlmock.Sqlmock {
	t.Helper()
	db, mock := newSQLMockDB(t)
	s.db = db
	return mock
}
