package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(public_address,\s*nick_name,\s*admin_nft,\s*super_admin\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(public_address\)\s*DO\s+NOTHING\s+RETURNING\s+created_at\s*$`
	selectQuery = `(?s)^SELECT\s+public_address,\s*nick_name,\s*admin_nft,\s*super_admin,\s*created_at\s+FROM\s+users\s+WHERE\s+public_address\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQuery).
		WithArgs("0xabc", "", "nft", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), &models.User{PublicAddress: "0xabc", AdminNFT: "nft"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.PublicAddress != "0xabc" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("0xabc", "", "", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	_, err := repo.Create(context.Background(), &models.User{PublicAddress: "0xabc"})
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want common.ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("0xabc", "", "", false).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{PublicAddress: "0xabc"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByAddress_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"public_address", "nick_name", "admin_nft", "super_admin", "created_at"}).
		AddRow("0xabc", "alice", "", true, time.Now())
	mock.ExpectQuery(selectQuery).WithArgs("0xabc").WillReturnRows(rows)

	got, err := repo.GetByAddress(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("GetByAddress error: %v", err)
	}
	if got.NickName != "alice" || !got.SuperAdmin {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByAddress_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("0xghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByAddress(context.Background(), "0xghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByAddress_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("0xabc").WillReturnError(errors.New("db err"))

	_, err := repo.GetByAddress(context.Background(), "0xabc")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
