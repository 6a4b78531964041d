package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"laundromat/internal/model"
	"laundromat/internal/repository"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Login]; ok {
		return nil, repository.ErrDuplicateLogin
	}
	c := *user
	r.users[user.Login] = &c
	return &c, nil
}

func (r *memUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[login]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func TestRegisterStoresRoleAndHashesPassword(t *testing.T) {
	svc := NewAuthService(newMemUserRepo())

	for _, role := range []string{model.RoleCustomer, model.RoleDriver, model.RoleAdmin, model.RoleOwner} {
		user, err := svc.Register(context.Background(), "user-"+role, "s3cret", role)
		require.NoError(t, err)
		require.Equal(t, role, user.Role)
		require.NotEmpty(t, user.ID)
		require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("s3cret")))
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newMemUserRepo())

	_, err := svc.Register(context.Background(), "eve", "s3cret", "superuser")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegisterRejectsDuplicateLogin(t *testing.T) {
	svc := NewAuthService(newMemUserRepo())

	_, err := svc.Register(context.Background(), "alice", "s3cret", model.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "other", model.RoleDriver)
	require.ErrorIs(t, err, ErrLoginExists)
}

func TestAuthenticate(t *testing.T) {
	svc := NewAuthService(newMemUserRepo())
	_, err := svc.Register(context.Background(), "alice", "s3cret", model.RoleDriver)
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, model.RoleDriver, user.Role)

	_, err = svc.Authenticate(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureOwnerIsIdempotent(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo)

	require.NoError(t, svc.EnsureOwner(context.Background(), "boss", "s3cret"))
	require.NoError(t, svc.EnsureOwner(context.Background(), "boss", "s3cret"))

	user, err := svc.Authenticate(context.Background(), "boss", "s3cret")
	require.NoError(t, err)
	require.Equal(t, model.RoleOwner, user.Role)
}
