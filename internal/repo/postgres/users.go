package postgres

import (
	"context"
	"errors"

	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/coursebank/courseapi/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

// NewUsersRepo builds the repo; metrics may be nil in tests.
func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users_get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, first_name, last_name, email_address, password_hash, created_at, updated_at
             FROM users
             WHERE email_address = $1`,
			email,
		).Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.EmailAddress,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users_get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, first_name, last_name, email_address, password_hash, created_at, updated_at
             FROM users
             WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.EmailAddress,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Create inserts a registration. passwordHash must already be hashed; the
// repo never sees a plaintext password. A duplicate email comes back as
// user.ErrEmailTaken so the handler can shape it as a validation failure.
func (r *UsersRepo) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.observe("users_create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (first_name, last_name, email_address, password_hash)
             VALUES ($1, $2, $3, $4)
             RETURNING id, first_name, last_name, email_address, password_hash, created_at, updated_at`,
			firstName,
			lastName,
			email,
			passwordHash,
		).Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.EmailAddress,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_address_uniq" {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}
