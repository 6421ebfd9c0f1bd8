package handler

import (
	"github.com/gofiber/fiber/v2"

	"noteshare/internal/http/middleware"
	"noteshare/internal/service"
	"noteshare/internal/upload"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	College     string `json:"college"`
	Description string `json:"description"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account.
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param body body registerRequest true "account fields"
// @Success 201
// @Router /api/users/register [post]
func Register(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}

		_, err := users.Register(c.UserContext(), service.RegisterInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			Role:        req.Role,
			College:     req.College,
			Description: req.Description,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user registered successfully"})
	}
}

// Login verifies credentials and issues a bearer token.
// @Summary Log in
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200
// @Router /api/users/login [post]
func Login(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}

		token, user, err := users.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user.PublicView()})
	}
}

// UploadProfilePhoto replaces the authenticated user's profile photo.
// @Summary Upload profile photo
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "image file"
// @Success 200
// @Router /api/users/me/photo [put]
func UploadProfilePhoto(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authUser := middleware.AuthUser(c)

		fh, err := c.FormFile("photo")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "photo is required")
		}
		u, err := upload.FromMultipart(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer u.Close()

		updated, err := users.SetProfilePhoto(c.UserContext(), authUser.ID, u)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "profile photo updated", "user": updated.PublicView()})
	}
}

// GetProfilePhoto streams a user's profile photo inline.
// @Summary Get profile photo
// @Produce image/*
// @Param id path string true "user id"
// @Success 200
// @Router /api/users/{id}/photo [get]
func GetProfilePhoto(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := users.OpenProfilePhoto(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, "inline")
		return c.SendStream(rc, int(info.Size))
	}
}
