package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

var userColumns = []string{
	"id", "email", "password", "name", "github_username", "microsoft_learn_email",
	"completed_pages", "last_viewed_page", "completed_resources", "version", "created_at", "updated_at",
}

const userID = "7b0b7d2e-5d7e-4f61-9a55-8c1c3f0c2a11"

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password.*RETURNING\s+version\s*$`).
		WithArgs(sqlmock.AnyArg(), "a@b.com", "$2a$hash", "", "[]", 1, "[]", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))

	got, err := repo.Create(context.Background(), &models.User{Email: "a@b.com", PasswordHash: "$2a$hash", LastViewedPage: 1})
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, []int{}, got.CompletedPages)
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgresFindByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(userColumns).
		AddRow(userID, "a@b.com", "$2a$hash", "Ann", "octocat", "", []byte("[1,3]"), 3, []byte(`["r1"]`), int64(4), fixedNow, fixedNow)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,\s*password,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`).
		WithArgs("a@b.com").
		WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, userID, got.ID)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
	assert.Equal(t, []int{1, 3}, got.CompletedPages)
	assert.Equal(t, []string{"r1"}, got.CompletedResources)
	assert.Equal(t, int64(4), got.Version)
}

func TestPostgresFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@b.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresFindByID_ExcludesPassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(userColumns).
		AddRow(userID, "a@b.com", "", "", "", "", []byte("[]"), 1, []byte("[]"), int64(0), fixedNow, fixedNow)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,\s*''\s+AS\s+password,.*WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs(userID).
		WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)
}

func TestPostgresFindByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateProgress_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+users.*version\s*=\s*version\s*\+\s*1.*WHERE\s+id\s*=\s*\$7\s+AND\s+version\s*=\s*\$8.*RETURNING\s+version\s*$`).
		WithArgs("octocat", "", "[1,2]", 2, "[]", fixedNow, userID, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	u := &models.User{ID: userID, GitHubUsername: "octocat", CompletedPages: []int{1, 2}, LastViewedPage: 2, Version: 3}
	require.NoError(t, repo.UpdateProgress(context.Background(), u))
	assert.Equal(t, int64(4), u.Version)
	assert.Equal(t, fixedNow, u.UpdatedAt)
}

func TestPostgresUpdateProgress_Conflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	u := &models.User{ID: userID, Version: 3}
	err := repo.UpdateProgress(context.Background(), u)
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, int64(3), u.Version)
}

func TestPostgresSetPassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s*$`
	mock.ExpectExec(q).WithArgs("$2a$new", fixedNow, userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("$2a$new", fixedNow, "missing").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetPassword(context.Background(), userID, "$2a$new"))
	assert.ErrorIs(t, repo.SetPassword(context.Background(), "missing", "$2a$new"), common.ErrorNotFound)
}

func TestPostgresPullCompletedResource(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+completed_resources\s*=\s*completed_resources\s*-\s*\$1::text.*@>\s*jsonb_build_array\(\$1::text\)\s*$`).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.PullCompletedResource(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountAndStats(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`(?s)SUM\(jsonb_array_length\(completed_resources\)\).*FILTER`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg", "with"}).AddRow(int64(6), 1.2, int64(3)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	st, err := repo.CompletionStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CompletionStats{TotalCompletions: 6, AvgCompletions: 1.2, UsersWithCompletions: 3}, st)
}
