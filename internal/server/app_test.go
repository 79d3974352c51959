package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/afocalor/rair-dapp/internal/server/config"
	"github.com/afocalor/rair-dapp/internal/server/repositories/challenges"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubManager runs no migrations and serves real challenge repositories;
// other repositories are not needed here.
type stubManager struct {
	repomanager.RepositoryManager
	migrateErr error
	migrated   bool
}

func (m *stubManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrateErr
}

func (m *stubManager) Challenges(db dbx.DBTX) challenges.Repository {
	return challenges.NewPostgresRepository(db)
}

func withSeams(t *testing.T, m *stubManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	oldOpen, oldManager := openDB, newRepositoryManager
	openDB = func(string) (*sql.DB, error) { return db, nil }
	newRepositoryManager = func() repomanager.RepositoryManager { return m }
	t.Cleanup(func() {
		openDB, newRepositoryManager = oldOpen, oldManager
	})
	return mock
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	return c
}

func TestNewApp_RunsMigrations(t *testing.T) {
	m := &stubManager{}
	withSeams(t, m)

	app, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	assert.True(t, m.migrated)
	assert.NotNil(t, app.fileService)
	assert.NotNil(t, app.mediaService)
}

func TestNewApp_MigrationFailureClosesDB(t *testing.T) {
	m := &stubManager{migrateErr: errors.New("bad schema")}
	mock := withSeams(t, m)
	mock.ExpectClose()

	_, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_OpenError(t *testing.T) {
	old := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("no driver") }
	t.Cleanup(func() { openDB = old })

	_, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.Error(t, err)
}

func TestPurgeChallenges_DeletesExpired(t *testing.T) {
	mock := withSeams(t, &stubManager{})
	mock.ExpectExec(`DELETE FROM challenges WHERE expires_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	app, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.purgeChallenges(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	mock := withSeams(t, &stubManager{})
	mock.MatchExpectationsInOrder(false)

	app, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	mock.ExpectClose()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
