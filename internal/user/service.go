package user

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"recogym/internal/apperr"
	"recogym/internal/auth"
)

const (
	tempPasswordLength = 12
	passwordAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	minAdminPassword   = 8
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	GetByID(ctx context.Context, id int) (*User, error)
	CreateAdmin(ctx context.Context, username, password string) (*User, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

// GeneratePassword returns a random password of n characters without
// look-alike glyphs.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// CreateAccount creates a login identity with a generated temporary password.
// The plain password is returned once and never stored.
func CreateAccount(ctx context.Context, repo Repository, username, role string) (*User, string, error) {
	password, err := GeneratePassword(tempPasswordLength)
	if err != nil {
		return nil, "", err
	}
	u, err := create(ctx, repo, username, password, role)
	if err != nil {
		return nil, "", err
	}
	return u, password, nil
}

func create(ctx context.Context, repo Repository, username, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}

	exists, err := repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("username %q is already taken", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, username, hash, role)
}

func (s *service) CreateAdmin(ctx context.Context, username, password string) (*User, error) {
	if len(password) < minAdminPassword {
		return nil, apperr.Validation("password must be at least %d characters", minAdminPassword)
	}
	return create(ctx, s.repo, username, password, auth.RoleAdmin)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Username, u.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	// Role may have changed since the refresh token was issued.
	accessToken, err := auth.GenerateAccessToken(u.ID, u.Username, u.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &RefreshResponse{AccessToken: accessToken, User: *u}, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
