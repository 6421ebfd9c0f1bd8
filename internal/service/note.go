package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"noteshare/internal/model"
	"noteshare/internal/repository"
	"noteshare/internal/storage"
	"noteshare/internal/upload"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NoteListResult is the service-level DTO for paginated notes.
type NoteListResult struct {
	Items []model.Note `json:"data"`
	Total int          `json:"total"`
}

// CreateNoteInput carries the form fields of a new note. Topics is the raw
// comma-separated list as submitted.
type CreateNoteInput struct {
	Title   string
	Subject string
	Topics  string
}

// UpdateNoteInput carries partial note updates; nil fields are left unchanged.
type UpdateNoteInput struct {
	Title   *string
	Subject *string
	Topics  *string
}

// NoteService defines the use cases for notes and their attached PDFs.
type NoteService interface {
	// Create makes a new note for userID, attaching the optional PDF upload.
	// The upload is validated before any disk write; a failed record save
	// rolls the written file back.
	Create(ctx context.Context, userID string, in CreateNoteInput, file *upload.Upload) (*model.Note, error)

	// List returns notes using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*NoteListResult, error)

	// Get returns a single note by its ID.
	Get(ctx context.Context, id string) (*model.Note, error)

	// Update applies partial field changes and, when file is non-nil,
	// replaces the stored PDF. The superseded file is deleted exactly once.
	Update(ctx context.Context, id string, in UpdateNoteInput, file *upload.Upload) (*model.Note, error)

	// Delete removes the note and its stored file. A file already missing
	// from storage does not fail the delete.
	Delete(ctx context.Context, id string) error

	// ByUser returns all notes owned by a user.
	ByUser(ctx context.Context, userID string) ([]model.Note, error)

	// BySubject returns all notes with an exact subject match.
	BySubject(ctx context.Context, subject string) ([]model.Note, error)

	// Search matches the query against title, subject, and topics.
	Search(ctx context.Context, query string) ([]model.Note, error)

	// OpenFile resolves the note's stored PDF for streaming and returns its
	// reader, object info, and stored file name.
	OpenFile(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, string, error)
}

type noteService struct {
	repo  repository.NoteRepository
	files *FileManager
}

// NewNoteService constructs a new NoteService.
func NewNoteService(repo repository.NoteRepository, files *FileManager) NoteService {
	return &noteService{repo: repo, files: files}
}

func splitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

func (s *noteService) Create(ctx context.Context, userID string, in CreateNoteInput, file *upload.Upload) (*model.Note, error) {
	if in.Title == "" || in.Subject == "" {
		return nil, fmt.Errorf("%w: title and subject are required", ErrInvalidInput)
	}

	// Validation happens inside Attach, before any write. A rejected upload
	// leaves nothing to clean up and the database is never touched.
	var fileKey string
	if file != nil {
		key, err := s.files.Attach(ctx, upload.KindNotePDF, file)
		if err != nil {
			return nil, err
		}
		fileKey = key
	}

	now := time.Now().UTC()
	note := &model.Note{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Subject:   in.Subject,
		Topics:    splitTopics(in.Topics),
		FilePath:  fileKey,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, err := s.repo.Create(ctx, note)
	if err != nil {
		// Rollback: the written file must not outlive the failed save.
		s.files.Discard(ctx, fileKey)
		return nil, fmt.Errorf("save note: %w", err)
	}
	return stored, nil
}

// List returns paginated notes without exposing repository types.
func (s *noteService) List(ctx context.Context, limit, offset int) (*NoteListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &NoteListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *noteService) Get(ctx context.Context, id string) (*model.Note, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *noteService) Update(ctx context.Context, id string, in UpdateNoteInput, file *upload.Upload) (*model.Note, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	unlock := s.files.LockRecord(id)
	defer unlock()

	// Write the replacement first so the old file is only ever deleted once
	// the new one is known-good.
	var newKey string
	if file != nil {
		key, err := s.files.Attach(ctx, upload.KindNotePDF, file)
		if err != nil {
			return nil, err
		}
		newKey = key
	}

	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		// The new file must not be left orphaned when the record is gone.
		s.files.Discard(ctx, newKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Subject != nil {
		note.Subject = *in.Subject
	}
	if in.Topics != nil {
		note.Topics = splitTopics(*in.Topics)
	}

	oldKey := note.FilePath
	if newKey != "" {
		note.FilePath = newKey
		if oldKey != "" && oldKey != newKey {
			// Superseded file goes exactly once, right before the persist.
			// If the persist below fails the old file is already gone; that
			// gap is logged by Discard's caller path and not recoverable.
			s.files.Discard(ctx, oldKey)
		}
	}

	stored, err := s.repo.Update(ctx, note)
	if err != nil {
		s.files.Discard(ctx, newKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("save note: %w", err)
	}
	return stored, nil
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}

	unlock := s.files.LockRecord(id)
	defer unlock()

	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return err
	}

	// Remove the file after the record so a failed delete never leaves a
	// record pointing at nothing. A file already missing is fine.
	s.files.Discard(ctx, note.FilePath)
	return nil
}

func (s *noteService) ByUser(ctx context.Context, userID string) ([]model.Note, error) {
	if userID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *noteService) BySubject(ctx context.Context, subject string) ([]model.Note, error) {
	return s.repo.ListBySubject(ctx, subject)
}

func (s *noteService) Search(ctx context.Context, query string) ([]model.Note, error) {
	return s.repo.Search(ctx, query)
}

func (s *noteService) OpenFile(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, string, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, "", err
	}
	rc, info, err := s.files.Resolve(ctx, note.FilePath)
	if err != nil {
		return nil, info, "", err
	}
	return rc, info, storage.FileName(note.FilePath), nil
}
