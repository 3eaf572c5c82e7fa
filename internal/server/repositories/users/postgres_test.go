package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsert     = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*firstname,\s*lastname,\s*password,\s*createdat\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`
	qByEmail    = `(?s)^SELECT\s+id,\s*email,\s*firstname,\s*lastname,\s*password,\s*createdat\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	qByID       = `(?s)^SELECT\s+id,\s*email,\s*firstname,\s*lastname,\s*password,\s*createdat\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	qUpdatePass = `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	qUpdateProf = `(?s)^UPDATE\s+users\s+SET\s+firstname\s*=\s*\$1,\s*lastname\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s*$`
	qList       = `(?s)^SELECT\s+id,\s*email,\s*firstname,\s*lastname,\s*password,\s*createdat\s+FROM\s+users\s+ORDER\s+BY\s+createdat,\s*id\s*$`
)

var userCols = []string{"id", "email", "firstname", "lastname", "password", "createdat"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleUser() *models.User {
	return &models.User{
		ID:           "7d0b4c1e-0000-4000-8000-000000000001",
		Email:        "a@x.com",
		FirstName:    "A",
		LastName:     "B",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	mock.ExpectExec(qInsert).
		WithArgs(u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsDuplicateIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qInsert).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qInsert).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(qByEmail).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt))

	got, err := repo.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByEmail).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(qByID).
		WithArgs(u.ID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt))
	mock.ExpectQuery(qByID).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qByID).WithArgs("boom").WillReturnError(errors.New("db err"))

	got, err := repo.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = repo.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetUserByID(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db err")
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qUpdatePass).WithArgs("new-hash", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qUpdatePass).WithArgs("new-hash", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qUpdatePass).WithArgs("new-hash", "u-3").WillReturnError(errors.New("db err"))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new-hash"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "u-2", "new-hash"), common.ErrorNotFound)
	assert.Error(t, repo.UpdatePassword(context.Background(), "u-3", "new-hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	u.FirstName = "Alice"
	mock.ExpectExec(qUpdateProf).WithArgs("Alice", "B", u.ID).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	rows := sqlmock.NewRows(userCols).
		AddRow(u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt).
		AddRow("id-2", "b@x.com", "C", "D", "h2", u.CreatedAt.Add(time.Hour))
	mock.ExpectQuery(qList).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, "b@x.com", got[1].Email)
}

func TestList_EmptyAndErrors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(qList).WillReturnError(errors.New("db err"))
	mock.ExpectQuery(qList).WillReturnRows(sqlmock.NewRows(userCols).AddRow("x", "e", "f", "l", "p", "not-a-time"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = repo.List(context.Background())
	assert.Error(t, err)

	_, err = repo.List(context.Background())
	assert.Error(t, err, "scan error surfaces")
}
