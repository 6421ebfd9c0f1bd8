package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"noteshare/internal/auth"
	"noteshare/internal/model"
	"noteshare/internal/service"
	"noteshare/internal/service/mocks"
	"noteshare/internal/storage"
	"noteshare/internal/upload"
)

const testSecret = "handler-test-secret"

var pdfBody = []byte("%PDF-1.4\nfake pdf body")

func newTestApp(t *testing.T, users *mocks.MockUserService, notes *mocks.MockNoteService) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, users, notes, testSecret)
	return app, dbMock
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

// multipartRequest builds a form request with the given text fields and an
// optional file part.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, fileField, fileName string, fileBody []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var payload errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func testNote() *model.Note {
	return &model.Note{
		ID:       "note-1",
		Title:    "Graph Theory",
		Subject:  "Math",
		Topics:   []string{"graphs"},
		UserID:   "user-1",
		FilePath: "notes/1700000000-1.pdf",
	}
}

func testUser() *model.User {
	return &model.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     "student",
		College:  "MIT",
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app, dbMock := newTestApp(t, &mocks.MockUserService{}, &mocks.MockNoteService{})
		dbMock.ExpectPing()

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("database down", func(t *testing.T) {
		app, dbMock := newTestApp(t, &mocks.MockUserService{}, &mocks.MockNoteService{})
		dbMock.ExpectPing().WillReturnError(assert.AnError)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "DB_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Register", mock.Anything, service.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "secret1",
			Role:     "student",
			College:  "MIT",
		}).Return(testUser(), nil)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/users/register", fiber.Map{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secret1",
			"role":     "student",
			"college":  "MIT",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrEmailExists)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/users/register", fiber.Map{
			"email": "alice@example.com",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "EMAIL_EXISTS", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		app, _ := newTestApp(t, &mocks.MockUserService{}, &mocks.MockNoteService{})

		req := httptest.NewRequest(fiber.MethodPost, "/api/users/register", bytes.NewReader([]byte("{")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Login", mock.Anything, "alice@example.com", "secret1").
			Return("signed-token", testUser(), nil)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/users/login", fiber.Map{
			"email":    "alice@example.com",
			"password": "secret1",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "signed-token", body["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return("", nil, service.ErrInvalidCredentials)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/users/login", fiber.Map{
			"email":    "alice@example.com",
			"password": "wrong",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})
}

func TestCreateNote(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		app, _ := newTestApp(t, &mocks.MockUserService{}, &mocks.MockNoteService{})

		req := multipartRequest(t, fiber.MethodPost, "/api/notes", map[string]string{"title": "x"}, "", "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("created with file", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		notes := &mocks.MockNoteService{}
		notes.On("Create", mock.Anything, "user-1",
			service.CreateNoteInput{Title: "Graph Theory", Subject: "Math", Topics: "graphs"},
			mock.MatchedBy(func(u *upload.Upload) bool { return u != nil && u.Filename == "lecture.pdf" }),
		).Return(testNote(), nil)
		app, _ := newTestApp(t, users, notes)

		req := multipartRequest(t, fiber.MethodPost, "/api/notes", map[string]string{
			"title":   "Graph Theory",
			"subject": "Math",
			"topics":  "graphs",
		}, "file", "lecture.pdf", pdfBody)
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		notes.AssertExpectations(t)
	})

	t.Run("rejected file type", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		notes := &mocks.MockNoteService{}
		notes.On("Create", mock.Anything, "user-1", mock.Anything, mock.Anything).
			Return(nil, upload.ErrMediaType)
		app, _ := newTestApp(t, users, notes)

		req := multipartRequest(t, fiber.MethodPost, "/api/notes", map[string]string{
			"title": "Notes", "subject": "Math",
		}, "file", "notes.txt", []byte("plain text"))
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FILE_TYPE", decodeError(t, resp).Error.Code)
	})
}

func TestGetNote(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		notes := &mocks.MockNoteService{}
		notes.On("Get", mock.Anything, "note-1").Return(testNote(), nil)
		app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes/note-1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		notes := &mocks.MockNoteService{}
		notes.On("Get", mock.Anything, "missing").Return(nil, service.ErrNoteNotFound)
		app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
}

func TestListNotes(t *testing.T) {
	notes := &mocks.MockNoteService{}
	notes.On("List", mock.Anything, 10, 0).
		Return(&service.NoteListResult{Items: []model.Note{*testNote()}, Total: 1}, nil)
	app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body service.NoteListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	assert.Len(t, body.Items, 1)
	notes.AssertExpectations(t)
}

func TestUpdateNote(t *testing.T) {
	t.Run("fields only", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		notes := &mocks.MockNoteService{}
		notes.On("Update", mock.Anything, "note-1",
			mock.MatchedBy(func(in service.UpdateNoteInput) bool {
				return in.Title != nil && *in.Title == "New Title" && in.Subject == nil && in.Topics == nil
			}),
			(*upload.Upload)(nil),
		).Return(testNote(), nil)
		app, _ := newTestApp(t, users, notes)

		req := multipartRequest(t, fiber.MethodPut, "/api/notes/note-1",
			map[string]string{"title": "New Title"}, "", "", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		notes.AssertExpectations(t)
	})

	t.Run("with replacement file", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		notes := &mocks.MockNoteService{}
		notes.On("Update", mock.Anything, "note-1", mock.Anything,
			mock.MatchedBy(func(u *upload.Upload) bool { return u != nil && u.Filename == "v2.pdf" }),
		).Return(testNote(), nil)
		app, _ := newTestApp(t, users, notes)

		req := multipartRequest(t, fiber.MethodPut, "/api/notes/note-1",
			nil, "file", "v2.pdf", pdfBody)
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		notes.AssertExpectations(t)
	})
}

func TestDeleteNote(t *testing.T) {
	users := &mocks.MockUserService{}
	users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
	notes := &mocks.MockNoteService{}
	notes.On("Delete", mock.Anything, "note-1").Return(nil)
	app, _ := newTestApp(t, users, notes)

	req := httptest.NewRequest(fiber.MethodDelete, "/api/notes/note-1", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	notes.AssertExpectations(t)
}

func TestNoteFilterRoutes(t *testing.T) {
	// "user", "subject", and "search" segments must reach the filter
	// handlers, not be captured as a note id.
	notes := &mocks.MockNoteService{}
	notes.On("ByUser", mock.Anything, "user-1").Return([]model.Note{*testNote()}, nil)
	notes.On("BySubject", mock.Anything, "Math").Return([]model.Note{*testNote()}, nil)
	notes.On("Search", mock.Anything, "graphs").Return([]model.Note{*testNote()}, nil)
	app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

	for _, target := range []string{
		"/api/notes/user/user-1",
		"/api/notes/subject/Math",
		"/api/notes/search/graphs",
	} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, target)
	}
	notes.AssertExpectations(t)
}

func TestDownloadNote(t *testing.T) {
	t.Run("streams attachment", func(t *testing.T) {
		notes := &mocks.MockNoteService{}
		info := storage.ObjectInfo{Key: "notes/1700000000-1.pdf", Size: int64(len(pdfBody)), ContentType: "application/pdf"}
		notes.On("OpenFile", mock.Anything, "note-1").
			Return(io.NopCloser(bytes.NewReader(pdfBody)), info, "1700000000-1.pdf", nil)
		app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes/note-1/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, `attachment; filename="1700000000-1.pdf"`, resp.Header.Get(fiber.HeaderContentDisposition))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, pdfBody, body)
	})

	t.Run("record without file", func(t *testing.T) {
		notes := &mocks.MockNoteService{}
		notes.On("OpenFile", mock.Anything, "note-1").
			Return(nil, storage.ObjectInfo{}, "", service.ErrFileMissing)
		app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes/note-1/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "FILE_MISSING", decodeError(t, resp).Error.Code)
	})
}

func TestViewNote(t *testing.T) {
	notes := &mocks.MockNoteService{}
	info := storage.ObjectInfo{Key: "notes/1700000000-1.pdf", Size: int64(len(pdfBody)), ContentType: "application/pdf"}
	notes.On("OpenFile", mock.Anything, "note-1").
		Return(io.NopCloser(bytes.NewReader(pdfBody)), info, "1700000000-1.pdf", nil)
	app, _ := newTestApp(t, &mocks.MockUserService{}, notes)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes/note-1/view", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "inline", resp.Header.Get(fiber.HeaderContentDisposition))
}

func TestProfilePhoto(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		users.On("SetProfilePhoto", mock.Anything, "user-1",
			mock.MatchedBy(func(u *upload.Upload) bool { return u != nil && u.Filename == "me.png" }),
		).Return(testUser(), nil)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		req := multipartRequest(t, fiber.MethodPut, "/api/users/me/photo",
			nil, "photo", "me.png", []byte("\x89PNG\r\n\x1a\nrest"))
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		users.AssertExpectations(t)
	})

	t.Run("upload without file", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("Get", mock.Anything, "user-1").Return(testUser(), nil)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		req := multipartRequest(t, fiber.MethodPut, "/api/users/me/photo",
			map[string]string{"unused": "x"}, "", "", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearerToken(t, "user-1"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("get streams inline", func(t *testing.T) {
		users := &mocks.MockUserService{}
		photo := []byte("\x89PNG\r\n\x1a\nrest")
		info := storage.ObjectInfo{Key: "profiles/1700000000-2.png", Size: int64(len(photo)), ContentType: "image/png"}
		users.On("OpenProfilePhoto", mock.Anything, "user-1").
			Return(io.NopCloser(bytes.NewReader(photo)), info, nil)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/users/user-1/photo", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, "inline", resp.Header.Get(fiber.HeaderContentDisposition))
	})

	t.Run("get when user has no photo", func(t *testing.T) {
		users := &mocks.MockUserService{}
		users.On("OpenProfilePhoto", mock.Anything, "user-1").
			Return(nil, storage.ObjectInfo{}, service.ErrFileMissing)
		app, _ := newTestApp(t, users, &mocks.MockNoteService{})

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/users/user-1/photo", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "FILE_MISSING", decodeError(t, resp).Error.Code)
	})
}
