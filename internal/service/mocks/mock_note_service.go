package mocks

import (
	"context"
	"io"

	"noteshare/internal/model"
	"noteshare/internal/service"
	"noteshare/internal/storage"
	"noteshare/internal/upload"

	"github.com/stretchr/testify/mock"
)

type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) Create(ctx context.Context, userID string, in service.CreateNoteInput, file *upload.Upload) (*model.Note, error) {
	args := m.Called(ctx, userID, in, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) List(ctx context.Context, limit, offset int) (*service.NoteListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NoteListResult), args.Error(1)
}

func (m *MockNoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Update(ctx context.Context, id string, in service.UpdateNoteInput, file *upload.Upload) (*model.Note, error) {
	args := m.Called(ctx, id, in, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNoteService) ByUser(ctx context.Context, userID string) ([]model.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Note), args.Error(1)
}

func (m *MockNoteService) BySubject(ctx context.Context, subject string) ([]model.Note, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Note), args.Error(1)
}

func (m *MockNoteService) Search(ctx context.Context, query string) ([]model.Note, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Note), args.Error(1)
}

func (m *MockNoteService) OpenFile(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.String(2), args.Error(3)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.String(2), args.Error(3)
}
