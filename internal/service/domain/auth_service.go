package domain

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
)

type UserView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// EnsureAdmin creates the admin account unless a user with that email
	// already exists.
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

type authService struct {
	users      repository.UserRepo
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

var _ AuthService = (*authService)(nil)

func NewAuthService(users repository.UserRepo, tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) *authService {
	return &authService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := s.createUser(ctx, name, email, password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", service.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.HashedPassword, password) {
		return nil, fmt.Errorf("%w: invalid email or password", service.ErrInvalidCredentials)
	}
	return s.issue(user)
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	admin, err := s.createUser(ctx, name, email, password, model.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.Info("admin user created", zap.Uint("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func (s *authService) createUser(ctx context.Context, name, email, password string, role model.UserRole) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", service.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", service.ErrInvalidInput, email)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be %d to %d characters", service.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}

	hashed, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:           name,
		Email:          email,
		HashedPassword: hashed,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s is already registered", service.ErrConflict, email)
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserView{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
