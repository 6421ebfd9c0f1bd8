package model

import "time"

// User represents a registered account.
// This is a pure domain model with no database-specific dependencies or tags.
// PasswordHash is never serialized into API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	College      string    `json:"college"`
	Description  string    `json:"description,omitempty"`
	PhotoPath    string    `json:"photo_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicView strips fields that must not leave the service.
func (u *User) PublicView() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
		"college":  u.College,
	}
}
