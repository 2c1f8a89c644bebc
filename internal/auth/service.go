package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/warelog/warelog/internal/platform/httpx"
)

// UserStore abstracts the repository for the service.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}

// Service authenticates users and manages their tokens.
type Service struct {
	users    UserStore
	tokens   *TokenStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs Service.
func NewService(users UserStore, tokens *TokenStore, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, validate: validator.New(), logger: logger}
}

// Login checks credentials and issues a token. Unknown accounts and wrong
// passwords produce the same error, so login probing learns nothing.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", httpx.ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}

	token, expiresAt, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", httpx.ErrUnauthorized)
	}
	return s.tokens.Revoke(ctx, token)
}

// Identify resolves a token to its user.
func (s *Service) Identify(ctx context.Context, token string) (User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return User{}, err
	}
	return s.users.FindByID(ctx, userID)
}

// HashPassword produces a bcrypt hash for seeding and user creation.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
