package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/observability"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrDuplicateUsername = errors.New("username already taken")
)

const userColumns = `id, username, email, password_hash, role, reset_token_hash, reset_token_expires_at, created_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// mapUniqueViolation turns a 23505 into the field-level sentinel the
// handlers report on, decoupled from the constraint naming scheme.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_username_key":
			return ErrDuplicateUsername
		}
	}
	return err
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ResetTokenHash,
		&u.ResetTokenExpires,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	op := "users.create"

	return r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users(id, username, email, password_hash, role, created_at)
			 VALUES($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
		)

		return mapUniqueViolation(err)
	})
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	opErr := r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if opErr != nil {
		return user.User{}, opErr
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	opErr := r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if opErr != nil {
		return user.User{}, opErr
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var err error

	opErr := r.observe("users.get_by_username", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
		return err
	})

	if opErr != nil {
		return user.User{}, opErr
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	opErr := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]user.User, 0, 16)

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if opErr != nil {
		return nil, opErr
	}
	return out, nil
}

// Update writes the mutable profile fields. Load-modify-save; the caller
// applies the patch before handing the record back.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	op := "users.update"

	opErr := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET username = $2, email = $3, role = $4 WHERE id = $1`,
			u.ID, u.Username, u.Email, string(u.Role),
		)

		if err != nil {
			return mapUniqueViolation(err)
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})

	if opErr != nil {
		return user.User{}, opErr
	}

	return r.GetByID(ctx, u.ID)
}

// UpdatePassword sets a fresh hash and clears any outstanding reset token.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.observe("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET password_hash = $2,
			     reset_token_hash = NULL,
			     reset_token_expires_at = NULL
			 WHERE id = $1`,
			id, passwordHash,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// CountAdmins backs the last-admin protection checks. The count and the
// subsequent write are not transactional; see the admin handlers.
func (r *UsersRepo) CountAdmins(ctx context.Context) (int, error) {
	var count int

	opErr := r.observe("users.count_admins", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE role = $1`, string(user.RoleAdmin),
		).Scan(&count)
	})

	if opErr != nil {
		return 0, opErr
	}
	return count, nil
}

func (r *UsersRepo) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	return r.observe("users.set_reset_token", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET reset_token_hash = $2,
			     reset_token_expires_at = $3
			 WHERE id = $1`,
			id, tokenHash, expiresAt,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *UsersRepo) ClearResetToken(ctx context.Context, id string) error {
	return r.observe("users.clear_reset_token", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET reset_token_hash = NULL,
			     reset_token_expires_at = NULL
			 WHERE id = $1`,
			id,
		)
		return err
	})
}

// GetByResetTokenHash finds a user whose stored reset token matches and has
// not expired yet.
func (r *UsersRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (user.User, error) {
	var u user.User
	var err error

	opErr := r.observe("users.get_by_reset_token", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE reset_token_hash = $1
			   AND reset_token_expires_at > NOW()`,
			tokenHash))
		return err
	})

	if opErr != nil {
		return user.User{}, opErr
	}
	return u, nil
}
