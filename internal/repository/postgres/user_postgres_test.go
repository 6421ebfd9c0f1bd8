package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"noteshare/internal/model"
)

var userCols = []string{"id", "username", "email", "password_hash", "role", "college", "description", "photo_path", "created_at", "updated_at"}

func userRow(u *model.User) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.College, u.Description, u.PhotoPath, u.CreatedAt, u.UpdatedAt)
}

func sampleUser() *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:           "user-uuid",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         "student",
		College:      "MIT",
		Description:  "notes enjoyer",
		PhotoPath:    "profiles/1700000000-2.png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.College, u.Description, u.PhotoPath, u.CreatedAt, u.UpdatedAt).
		WillReturnRows(userRow(u))

	result, err := repo.Create(ctx, u)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, u.Email, result.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		u := sampleUser()
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
			WithArgs(u.ID).
			WillReturnRows(userRow(u))

		got, err := repo.FindByID(ctx, u.ID)

		assert.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, got)
	})
}

func TestUserPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.FindByEmail(ctx, u.Email)

	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_UpdatePhotoPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		u := sampleUser()
		u.PhotoPath = "profiles/1700000001-3.png"
		mock.ExpectQuery("UPDATE users").
			WithArgs(u.ID, u.PhotoPath).
			WillReturnRows(userRow(u))

		got, err := repo.UpdatePhotoPath(ctx, u.ID, u.PhotoPath)

		assert.NoError(t, err)
		assert.Equal(t, u.PhotoPath, got.PhotoPath)
	})

	t.Run("user gone", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users").
			WithArgs("missing", "profiles/x.png").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.UpdatePhotoPath(ctx, "missing", "profiles/x.png")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, got)
	})
}
