package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"noteshare/internal/http/middleware"
	"noteshare/internal/service"
	"noteshare/internal/upload"
)

// noteUpload reads the optional "file" form field. A request without the
// field yields (nil, nil); a field that cannot be opened is an error.
func noteUpload(c *fiber.Ctx) (*upload.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}
	return upload.FromMultipart(fh)
}

// CreateNote creates a note for the authenticated user, with an optional
// PDF attachment.
// @Summary Create a note
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "note title"
// @Param subject formData string true "subject"
// @Param topics formData string false "comma separated topics"
// @Param file formData file false "PDF attachment"
// @Success 201
// @Router /api/notes [post]
func CreateNote(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authUser := middleware.AuthUser(c)

		u, err := noteUpload(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		if u != nil {
			defer u.Close()
		}

		in := service.CreateNoteInput{
			Title:   c.FormValue("title"),
			Subject: c.FormValue("subject"),
			Topics:  c.FormValue("topics"),
		}
		note, err := notes.Create(c.UserContext(), authUser.ID, in, u)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(note)
	}
}

// ListNotes returns notes with limit/offset paging.
// @Summary List notes
// @Produce json
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200
// @Router /api/notes [get]
func ListNotes(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))

		result, err := notes.List(c.UserContext(), limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	}
}

// GetNote returns a single note.
// @Summary Get a note
// @Produce json
// @Param id path string true "note id"
// @Success 200
// @Router /api/notes/{id} [get]
func GetNote(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		note, err := notes.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(note)
	}
}

// UpdateNote applies partial field changes and optionally replaces the
// attached PDF.
// @Summary Update a note
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "note id"
// @Success 200
// @Router /api/notes/{id} [put]
func UpdateNote(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := noteUpload(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		if u != nil {
			defer u.Close()
		}

		var in service.UpdateNoteInput
		form, err := c.MultipartForm()
		if err == nil {
			if v, ok := formField(form.Value, "title"); ok {
				in.Title = &v
			}
			if v, ok := formField(form.Value, "subject"); ok {
				in.Subject = &v
			}
			if v, ok := formField(form.Value, "topics"); ok {
				in.Topics = &v
			}
		}

		note, err := notes.Update(c.UserContext(), c.Params("id"), in, u)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(note)
	}
}

func formField(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// DeleteNote removes a note and its stored file.
// @Summary Delete a note
// @Produce json
// @Param id path string true "note id"
// @Success 200
// @Router /api/notes/{id} [delete]
func DeleteNote(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := notes.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "note deleted successfully"})
	}
}

// NotesByUser returns all notes owned by a user.
// @Summary Notes by user
// @Produce json
// @Param userId path string true "user id"
// @Success 200
// @Router /api/notes/user/{userId} [get]
func NotesByUser(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := notes.ByUser(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

// NotesBySubject returns all notes with an exact subject match.
// @Summary Notes by subject
// @Produce json
// @Param subject path string true "subject"
// @Success 200
// @Router /api/notes/subject/{subject} [get]
func NotesBySubject(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := notes.BySubject(c.UserContext(), c.Params("subject"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

// SearchNotes matches a query against title, subject, and topics.
// @Summary Search notes
// @Produce json
// @Param query path string true "search text"
// @Success 200
// @Router /api/notes/search/{query} [get]
func SearchNotes(notes service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := notes.Search(c.UserContext(), c.Params("query"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

// DownloadNote streams the note's PDF as an attachment.
// @Summary Download note file
// @Produce application/pdf
// @Param id path string true "note id"
// @Success 200
// @Router /api/notes/{id}/download [get]
func DownloadNote(notes service.NoteService) fiber.Handler {
	return streamNoteFile(notes, false)
}

// ViewNote streams the note's PDF inline.
// @Summary View note file
// @Produce application/pdf
// @Param id path string true "note id"
// @Success 200
// @Router /api/notes/{id}/view [get]
func ViewNote(notes service.NoteService) fiber.Handler {
	return streamNoteFile(notes, true)
}

func streamNoteFile(notes service.NoteService, inline bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, name, err := notes.OpenFile(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = "application/pdf"
		}
		c.Set(fiber.HeaderContentType, ct)
		if inline {
			c.Set(fiber.HeaderContentDisposition, "inline")
		} else {
			c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		}
		return c.SendStream(rc, int(info.Size))
	}
}
