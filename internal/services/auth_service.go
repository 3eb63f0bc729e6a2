package services

import (
	"context"
	"errors"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.AuthResult, error)
	Login(ctx context.Context, in LoginInput) (models.AuthResult, error)
	Me(ctx context.Context, p models.Principal) (models.User, error)
}

// AuthService registers users and exchanges credentials for bearer tokens.
type AuthService struct {
	users  *UserService
	tokens *auth.TokenIssuer

	// dummyHash is compared against when the email is unknown, so both login
	// failures cost one bcrypt comparison at the configured cost.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserService, tokens *auth.TokenIssuer) *AuthService {
	dummy, err := auth.HashPassword("not-a-real-password", users.bcryptCost)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to prepare login comparison hash")
	}
	return &AuthService{users: users, tokens: tokens, dummyHash: dummy}
}

// Register creates the account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.AuthResult, error) {
	user, err := s.users.CreateUser(ctx, in)
	if err != nil {
		return models.AuthResult{}, err
	}
	return s.issue(user)
}

// Login verifies the credentials. An unknown email and a wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (models.AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return models.AuthResult{}, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			auth.CheckPassword(s.dummyHash, in.Password)
			return models.AuthResult{}, ErrInvalidCredentials
		}
		return models.AuthResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return models.AuthResult{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return s.issue(user)
}

// Me returns the account of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, p models.Principal) (models.User, error) {
	return s.users.GetUserByID(ctx, p.UserID)
}

func (s *AuthService) issue(user models.User) (models.AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.AuthResult{}, err
	}
	return models.AuthResult{User: user, Token: token}, nil
}
