package repository

import (
	"context"

	"noteshare/internal/model"
)

// NoteRepository defines data access for notes using SQL queries only.
// Read methods join the owning user so responses can carry author fields.
type NoteRepository interface {
	// Create inserts a new note record and returns the stored row.
	Create(ctx context.Context, n *model.Note) (*model.Note, error)

	// FindByID returns a note by its ID. Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// List returns a paginated list of notes plus the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Note], error)

	// ListByUser returns all notes owned by the given user.
	ListByUser(ctx context.Context, userID string) ([]model.Note, error)

	// ListBySubject returns all notes with an exact subject match.
	ListBySubject(ctx context.Context, subject string) ([]model.Note, error)

	// Search returns notes whose title, subject, or topics contain the query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]model.Note, error)

	// Update replaces mutable note fields and returns the updated row.
	// Returns sql.ErrNoRows when the note does not exist.
	Update(ctx context.Context, n *model.Note) (*model.Note, error)

	// Delete removes a note by ID. Returns sql.ErrNoRows when the note did
	// not exist, so callers can distinguish deletes from no-ops.
	Delete(ctx context.Context, id string) error
}
