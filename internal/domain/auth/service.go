package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

type Service struct {
	Store    *Store
	Secret   string
	TokenTTL time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.Store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if user.Status != UserStatusActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Role: user.Role}, s.TokenTTL)
	if err != nil {
		return "", nil, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}
	return token, user, nil
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	role, ok := ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		Status:       UserStatusActive,
		PasswordHash: hash,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	return s.Store.ListUsers(ctx, limit, offset)
}

func (s *Service) UserExists(ctx context.Context, id string) (bool, error) {
	return s.Store.UserExists(ctx, id)
}
