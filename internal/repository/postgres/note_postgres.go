package postgres

import (
	"context"
	"database/sql"
	"strings"

	"noteshare/internal/model"
	"noteshare/internal/repository"
)

// NotePostgres is a PostgreSQL implementation of repository.NoteRepository.
// Topics are stored as TEXT[] and travel through database/sql as
// comma-joined strings via array_to_string/string_to_array, which keeps the
// pgx stdlib driver free of array codec concerns.
type NotePostgres struct {
	db *sql.DB
}

// NewNotePostgres creates a new NotePostgres repository.
func NewNotePostgres(db *sql.DB) *NotePostgres {
	return &NotePostgres{db: db}
}

var _ repository.NoteRepository = (*NotePostgres)(nil)

const noteSelect = `
	SELECT n.id, n.title, n.subject, COALESCE(array_to_string(n.topics, ','), ''), n.file_path, n.stars,
	       n.user_id, u.username, u.email, u.college, u.photo_path, n.created_at, n.updated_at
	FROM notes n
	JOIN users u ON u.id = n.user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var (
		n      model.Note
		a      model.NoteAuthor
		topics string
	)
	if err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Subject,
		&topics,
		&n.FilePath,
		&n.Stars,
		&n.UserID,
		&a.Username,
		&a.Email,
		&a.College,
		&a.PhotoPath,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.Topics = splitTopics(topics)
	n.Author = &a
	return &n, nil
}

func splitTopics(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func joinTopics(topics []string) string {
	return strings.Join(topics, ",")
}

// Create inserts a new note row and returns the stored record with author fields.
func (r *NotePostgres) Create(ctx context.Context, n *model.Note) (*model.Note, error) {
	const q = `
		INSERT INTO notes (id, title, subject, topics, file_path, stars, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE(string_to_array(NULLIF($4, ''), ','), '{}'), $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.Title,
		n.Subject,
		joinTopics(n.Topics),
		n.FilePath,
		n.Stars,
		n.UserID,
		n.CreatedAt,
		n.UpdatedAt,
	).Scan(&id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// FindByID fetches a single note with its author fields.
func (r *NotePostgres) FindByID(ctx context.Context, id string) (*model.Note, error) {
	const q = noteSelect + ` WHERE n.id = $1`
	return scanNote(r.db.QueryRowContext(ctx, q, id))
}

// List returns notes using LIMIT/OFFSET pagination and a total count.
func (r *NotePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Note], error) {
	const qCount = `SELECT COUNT(*) FROM notes`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const q = noteSelect + ` ORDER BY n.created_at DESC, n.id DESC LIMIT $1 OFFSET $2`
	items, err := r.queryNotes(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Note]{Items: items, Total: total}, nil
}

// ListByUser returns all notes owned by userID, newest first.
func (r *NotePostgres) ListByUser(ctx context.Context, userID string) ([]model.Note, error) {
	const q = noteSelect + ` WHERE n.user_id = $1 ORDER BY n.created_at DESC`
	return r.queryNotes(ctx, q, userID)
}

// ListBySubject returns all notes with an exact subject match, newest first.
func (r *NotePostgres) ListBySubject(ctx context.Context, subject string) ([]model.Note, error) {
	const q = noteSelect + ` WHERE n.subject = $1 ORDER BY n.created_at DESC`
	return r.queryNotes(ctx, q, subject)
}

// Search matches the query case-insensitively against title, subject, and topics.
func (r *NotePostgres) Search(ctx context.Context, query string) ([]model.Note, error) {
	const q = noteSelect + `
		WHERE n.title ILIKE '%' || $1 || '%'
		   OR n.subject ILIKE '%' || $1 || '%'
		   OR array_to_string(n.topics, ',') ILIKE '%' || $1 || '%'
		ORDER BY n.created_at DESC`
	return r.queryNotes(ctx, q, query)
}

// Update replaces mutable fields and returns the updated row with author fields.
func (r *NotePostgres) Update(ctx context.Context, n *model.Note) (*model.Note, error) {
	const q = `
		UPDATE notes
		SET title = $2, subject = $3, topics = COALESCE(string_to_array(NULLIF($4, ''), ','), '{}'),
		    file_path = $5, stars = $6, updated_at = now()
		WHERE id = $1
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.Title,
		n.Subject,
		joinTopics(n.Topics),
		n.FilePath,
		n.Stars,
	).Scan(&id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a note by ID. Returns sql.ErrNoRows when nothing was deleted.
func (r *NotePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM notes WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *NotePostgres) queryNotes(ctx context.Context, q string, args ...any) ([]model.Note, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
