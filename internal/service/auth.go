package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"laundromat/internal/model"
	"laundromat/internal/repository"
)

var (
	ErrLoginExists        = errors.New("login already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrUnknownRole        = errors.New("unknown role")
)

type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Register(ctx context.Context, login, password, role string) (*model.User, error) {
	switch role {
	case model.RoleCustomer, model.RoleDriver, model.RoleAdmin, model.RoleOwner:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return nil, ErrLoginExists
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// EnsureOwner creates the bootstrap owner account on first start. An
// existing login is left untouched.
func (s *AuthService) EnsureOwner(ctx context.Context, login, password string) error {
	_, err := s.Register(ctx, login, password, model.RoleOwner)
	if errors.Is(err, ErrLoginExists) {
		return nil
	}
	return err
}
