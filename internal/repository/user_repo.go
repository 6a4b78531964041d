package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"laundromat/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateLogin = errors.New("login already taken")
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	query := `INSERT INTO users (id, login, password_hash, role, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, login, role, created_at`
	row := r.db.QueryRowContext(ctx, query, user.ID, user.Login, user.PasswordHash, user.Role, user.CreatedAt)

	var created model.User
	if err := row.Scan(&created.ID, &created.Login, &created.Role, &created.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrDuplicateLogin
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	created.PasswordHash = user.PasswordHash

	return &created, nil
}

func (r *PostgresUserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT id, login, password_hash, role, created_at FROM users WHERE login = $1`
	row := r.db.QueryRowContext(ctx, query, login)

	var user model.User
	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
