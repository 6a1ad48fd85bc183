package sessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authgate/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+sessions\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\).*RETURNING\s+created_at\s*$`

	created := time.Now()
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u1", "curl/8.0", int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	s, err := repo.Create(context.Background(), "u1", "curl/8.0", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == "" || s.TokenVersion != 1 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !s.ExpiredAt.After(time.Now().Add(29 * 24 * time.Hour)) {
		t.Fatalf("expiry not in the far future: %v", s.ExpiredAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*user_agent,\s*token_version,\s*expired_at,\s*created_at\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

	expired := time.Now().Add(10 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "user_agent", "token_version", "expired_at", "created_at"}).
		AddRow("s1", "u1", "curl/8.0", int64(3), expired, time.Now())

	mock.ExpectQuery(q).WithArgs("s1").WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || got.TokenVersion != 3 || !got.ExpiredAt.Equal(expired) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestRotate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+sessions\s+SET\s+expired_at\s*=\s*\$1,\s*token_version\s*=\s*token_version\s*\+\s*1\s+WHERE\s+id\s*=\s*\$2\s+AND\s+token_version\s*=\s*\$3\s+RETURNING\s+token_version\s*$`

	newExpiry := time.Now().Add(30 * 24 * time.Hour)
	mock.ExpectQuery(q).
		WithArgs(newExpiry, "s1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(4)))

	v, err := repo.Rotate(context.Background(), "s1", newExpiry, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 4 {
		t.Fatalf("want version 4, got %d", v)
	}
}

func TestRotate_VersionConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+sessions\s+SET\s+expired_at`).
		WithArgs(sqlmock.AnyArg(), "s1", int64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Rotate(context.Background(), "s1", time.Now(), 3)
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want common.ErrVersionConflict, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+sessions\s+WHERE\s+user_id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteAllForUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+sessions\s+WHERE\s+id`).
		WithArgs("s1").
		WillReturnError(errors.New("db down"))

	err := repo.Delete(context.Background(), "s1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
