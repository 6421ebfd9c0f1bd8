package repository

import (
	"context"

	"noteshare/internal/model"
)

// UserRepository defines data access for user accounts using SQL queries only.
// No business logic here, strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user record and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID. Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns a user by email. Returns sql.ErrNoRows when absent.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdatePhotoPath replaces the stored profile photo reference and returns
	// the updated row. Returns sql.ErrNoRows when the user does not exist.
	UpdatePhotoPath(ctx context.Context, id, photoPath string) (*model.User, error)
}
