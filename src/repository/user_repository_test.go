package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm with sqlmock: %v", err)
	}

	return gdb, mock
}

func userRows() *sqlmock.Rows {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "user_name", "password", "api_key_id", "api_key_hash", "active", "created_at", "updated_at"}).
		AddRow(uint(1), "desk-ops", "$2a$10$hash", "key-123", "$2a$10$keyhash", true, now, now)
}

func TestUserRepositoryGetByAPIKeyID(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &UserRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE api_key_id = $1 AND active = $2 ORDER BY "users"."id" LIMIT $3`)).
		WithArgs("key-123", true, 1).
		WillReturnRows(userRows())

	user, err := repo.GetByAPIKeyID(context.Background(), "key-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.UserName != "desk-ops" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUserRepositoryGetByAPIKeyID_Missing(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &UserRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE api_key_id = $1 AND active = $2 ORDER BY "users"."id" LIMIT $3`)).
		WithArgs("nope", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByAPIKeyID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing user must not be an error, got %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &UserRepository{db: mockDB}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "password"=$1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs("$2a$10$newhash", sqlmock.AnyArg(), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdatePassword(context.Background(), 1, "$2a$10$newhash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
