package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/models"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, in RegisterInput) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, actor models.Principal, id, role string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db         *sql.DB
	bcryptCost int
	events     EventRecorder
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(db *sql.DB, bcryptCost int, events EventRecorder) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost, events: events}
}

// CreateUser validates the input, hashes the password and stores a new user.
// A role that is absent or unknown falls back to "user".
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return models.User{}, err
	}

	role, ok := models.ParseRole(strings.TrimSpace(in.Role))
	if !ok {
		role = models.RoleUser
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", in.Email).Scan(&exists)
	if err != nil {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return models.User{}, ErrAlreadyRegistered
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  in.Username,
		Email:     in.Email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, username, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.Username, hash, user.Role, user.CreatedAt)
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrAlreadyRegistered
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	recordEvent(ctx, s.events, models.Event{
		Type:      models.EventUserRegistered,
		ActorID:   user.ID,
		OwnerID:   &user.ID,
		SubjectID: user.ID,
		Message:   fmt.Sprintf("User %s registered with role %s", user.Email, user.Role),
	})
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, username, email, role, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, role, password_hash, created_at FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// ListUsers returns every user ordered by creation time.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, username, email, role, created_at FROM users ORDER BY created_at, email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateRole changes the role of a user. Unlike registration, an unknown role is rejected.
func (s *UserService) UpdateRole(ctx context.Context, actor models.Principal, id, role string) (models.User, error) {
	newRole, ok := models.ParseRole(strings.TrimSpace(role))
	if !ok {
		return models.User{}, ErrInvalidRole
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", newRole, id)
	if err != nil {
		return models.User{}, fmt.Errorf("update role: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.User{}, err
	} else if n == 0 {
		return models.User{}, ErrNotFound
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	recordEvent(ctx, s.events, models.Event{
		Type:      models.EventUserRoleUpdated,
		ActorID:   actor.UserID,
		OwnerID:   &user.ID,
		SubjectID: user.ID,
		Message:   fmt.Sprintf("Role of %s changed to %s", user.Email, user.Role),
	})
	return user, nil
}
