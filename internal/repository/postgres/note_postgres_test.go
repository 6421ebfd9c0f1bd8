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
	"noteshare/internal/repository"
)

var noteCols = []string{
	"id", "title", "subject", "topics", "file_path", "stars",
	"user_id", "username", "email", "college", "photo_path", "created_at", "updated_at",
}

func noteRow(n *model.Note) *sqlmock.Rows {
	return sqlmock.NewRows(noteCols).AddRow(
		n.ID, n.Title, n.Subject, joinTopics(n.Topics), n.FilePath, n.Stars,
		n.UserID, n.Author.Username, n.Author.Email, n.Author.College, n.Author.PhotoPath,
		n.CreatedAt, n.UpdatedAt,
	)
}

func sampleNote() *model.Note {
	now := time.Now().UTC()
	return &model.Note{
		ID:       "note-uuid",
		Title:    "Graph Theory",
		Subject:  "Math",
		Topics:   []string{"graphs", "trees"},
		FilePath: "notes/1700000000-1.pdf",
		Stars:    3,
		UserID:   "user-uuid",
		Author: &model.NoteAuthor{
			Username:  "alice",
			Email:     "alice@example.com",
			College:   "MIT",
			PhotoPath: "profiles/1700000000-2.png",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNotePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()
	n := sampleNote()

	mock.ExpectQuery("INSERT INTO notes").
		WithArgs(n.ID, n.Title, n.Subject, "graphs,trees", n.FilePath, n.Stars, n.UserID, n.CreatedAt, n.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(n.ID))
	mock.ExpectQuery("SELECT (.+) FROM notes n").
		WithArgs(n.ID).
		WillReturnRows(noteRow(n))

	result, err := repo.Create(ctx, n)

	assert.NoError(t, err)
	assert.Equal(t, n.Title, result.Title)
	assert.Equal(t, []string{"graphs", "trees"}, result.Topics)
	assert.Equal(t, "alice", result.Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		n := sampleNote()
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs(n.ID).
			WillReturnRows(noteRow(n))

		got, err := repo.FindByID(ctx, n.ID)

		assert.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)
	})

	t.Run("empty topics scan as empty slice", func(t *testing.T) {
		n := sampleNote()
		n.Topics = nil
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs(n.ID).
			WillReturnRows(noteRow(n))

		got, err := repo.FindByID(ctx, n.ID)

		assert.NoError(t, err)
		assert.Equal(t, []string{}, got.Topics)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, got)
	})
}

func TestNotePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM notes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM notes n").
		WithArgs(10, 0).
		WillReturnRows(noteRow(sampleNote()))

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotePostgres_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()
	n := sampleNote()

	t.Run("by user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs(n.UserID).
			WillReturnRows(noteRow(n))

		items, err := repo.ListByUser(ctx, n.UserID)

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("by subject", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs("Math").
			WillReturnRows(noteRow(n))

		items, err := repo.ListBySubject(ctx, "Math")

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("search", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs("graph").
			WillReturnRows(noteRow(n))

		items, err := repo.Search(ctx, "graph")

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("no matches returns empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notes n").
			WithArgs("nothing").
			WillReturnRows(sqlmock.NewRows(noteCols))

		items, err := repo.Search(ctx, "nothing")

		assert.NoError(t, err)
		assert.NotNil(t, items)
		assert.Len(t, items, 0)
	})
}

func TestNotePostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()
	n := sampleNote()

	mock.ExpectQuery("UPDATE notes").
		WithArgs(n.ID, n.Title, n.Subject, "graphs,trees", n.FilePath, n.Stars).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(n.ID))
	mock.ExpectQuery("SELECT (.+) FROM notes n").
		WithArgs(n.ID).
		WillReturnRows(noteRow(n))

	result, err := repo.Update(ctx, n)

	assert.NoError(t, err)
	assert.Equal(t, n.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotePostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM notes").
			WithArgs("note-uuid").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "note-uuid"))
	})

	t.Run("nothing to delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM notes").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, "missing")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}
