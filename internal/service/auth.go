package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"invoiceapi/internal/auth"
	"invoiceapi/internal/model"
	"invoiceapi/internal/repository"
)

var (
	ErrDuplicateIdentity  = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFieldsRequired     = errors.New("username, email and password are required")
)

// LoginResult is the service-level DTO returned on successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// AuthService defines the use cases for registration and login.
type AuthService interface {
	// Register creates a new identity. Duplicate username or email yields
	// ErrDuplicateIdentity; the secret is stored only as a bcrypt hash.
	Register(ctx context.Context, username, email, password string) (*model.User, error)

	// Login verifies credentials and issues a session token. Unknown email
	// and wrong password both collapse to ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// authService is a concrete implementation of AuthService.
type authService struct {
	repo   repository.UserRepository
	tokens *auth.TokenService
}

// NewAuthService constructs a new AuthService.
func NewAuthService(repo repository.UserRepository, tokens *auth.TokenService) AuthService {
	return &authService{repo: repo, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrFieldsRequired
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, Username: user.Username}, nil
}
