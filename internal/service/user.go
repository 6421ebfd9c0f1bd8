package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"noteshare/internal/auth"
	"noteshare/internal/model"
	"noteshare/internal/repository"
	"noteshare/internal/storage"
	"noteshare/internal/upload"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the two cases stay indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var validRoles = map[string]bool{
	"student": true,
	"teacher": true,
	"admin":   true,
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Role        string
	College     string
	Description string
}

// UserService defines the use cases for accounts and profile photos.
type UserService interface {
	// Register creates a new account with a bcrypt-hashed password.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)

	// Login verifies credentials and returns a signed token plus the user.
	Login(ctx context.Context, email, password string) (string, *model.User, error)

	// Get returns a user by id.
	Get(ctx context.Context, id string) (*model.User, error)

	// SetProfilePhoto validates and stores a new profile photo for the
	// user and deletes the superseded one. The same rollback rules apply as
	// for note files.
	SetProfilePhoto(ctx context.Context, userID string, file *upload.Upload) (*model.User, error)

	// OpenProfilePhoto resolves the user's photo for inline streaming.
	OpenProfilePhoto(ctx context.Context, userID string) (io.ReadCloser, storage.ObjectInfo, error)
}

type userService struct {
	repo     repository.UserRepository
	files    *FileManager
	secret   []byte
	tokenTTL time.Duration
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, files *FileManager, jwtSecret string, tokenTTL time.Duration) UserService {
	return &userService{
		repo:     repo,
		files:    files,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

func validateRegister(in RegisterInput) error {
	switch {
	case in.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	case in.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	case len(in.Password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	case !validRoles[in.Role]:
		return fmt.Errorf("%w: role must be one of student, teacher, admin", ErrInvalidInput)
	case in.College == "":
		return fmt.Errorf("%w: college is required", ErrInvalidInput)
	}
	return nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		College:      in.College,
		Description:  in.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return stored, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) SetProfilePhoto(ctx context.Context, userID string, file *upload.Upload) (*model.User, error) {
	if userID == "" {
		return nil, ErrIDRequired
	}

	unlock := s.files.LockRecord(userID)
	defer unlock()

	newKey, err := s.files.Attach(ctx, upload.KindProfileImage, file)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		s.files.Discard(ctx, newKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.PhotoPath != "" && user.PhotoPath != newKey {
		s.files.Discard(ctx, user.PhotoPath)
	}

	updated, err := s.repo.UpdatePhotoPath(ctx, userID, newKey)
	if err != nil {
		s.files.Discard(ctx, newKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return updated, nil
}

func (s *userService) OpenProfilePhoto(ctx context.Context, userID string) (io.ReadCloser, storage.ObjectInfo, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return s.files.Resolve(ctx, user.PhotoPath)
}
