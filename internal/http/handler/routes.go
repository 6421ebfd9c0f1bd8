package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"noteshare/internal/http/middleware"
	"noteshare/internal/service"
)

// RegisterRoutes mounts every API route on the app. jwtSecret is needed by
// the auth middleware to verify bearer tokens.
func RegisterRoutes(app *fiber.App, db *sql.DB, users service.UserService, notes service.NoteService, jwtSecret string) {
	app.Get("/health", HealthCheck(db))
	app.Get("/live", LivenessProbe())

	auth := middleware.Auth(users, jwtSecret)
	api := app.Group("/api")

	userGroup := api.Group("/users")
	userGroup.Post("/register", Register(users))
	userGroup.Post("/login", Login(users))
	userGroup.Put("/me/photo", auth, UploadProfilePhoto(users))
	userGroup.Get("/:id/photo", GetProfilePhoto(users))

	noteGroup := api.Group("/notes")
	noteGroup.Post("/", auth, CreateNote(notes))
	noteGroup.Get("/", ListNotes(notes))

	// Filter routes must be registered ahead of the /:id routes so fiber
	// does not capture "user", "subject", or "search" as an id.
	noteGroup.Get("/user/:userId", NotesByUser(notes))
	noteGroup.Get("/subject/:subject", NotesBySubject(notes))
	noteGroup.Get("/search/:query", SearchNotes(notes))

	noteGroup.Get("/:id", GetNote(notes))
	noteGroup.Put("/:id", auth, UpdateNote(notes))
	noteGroup.Delete("/:id", auth, DeleteNote(notes))
	noteGroup.Get("/:id/download", DownloadNote(notes))
	noteGroup.Get("/:id/view", ViewNote(notes))
}
