package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"invoiceapi/internal/model"
	"invoiceapi/internal/repository"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Create inserts a new user row and returns the stored record.
// Unique constraint violations map to repository.ErrDuplicate.
func (r *UserPostgres) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, email, password_hash, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	var out model.User
	if err := row.Scan(
		&out.ID,
		&out.Username,
		&out.Email,
		&out.PasswordHash,
		&out.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		}
		return nil, err
	}
	return &out, nil
}

// FindByEmail fetches a single user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	row := r.db.QueryRowContext(ctx, q, email)
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
