package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an account lookup finds no matching record.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateEmail is returned when a creation attempt uses an
// already-registered email. The accounts table carries a UNIQUE constraint on
// email, so this holds even when two creations for the same email overlap in
// time; callers' existence checks are advisory only.
var ErrDuplicateEmail = errors.New("email already in use")

// Repository provides CRUD operations for accounts against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account record. Sets ID, CreatedAt, UpdatedAt on the account.
func (r *Repository) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	q := `
		INSERT INTO accounts (id, name, email, password_hash, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, q,
		a.ID, a.Name, a.Email, a.PasswordHash, a.ProfileImage, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its internal UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanOne(ctx, `SELECT * FROM accounts WHERE id = $1`, id)
}

// GetByEmail retrieves an account by its email address. The lookup is
// exact-match; email case normalization is not applied.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.scanOne(ctx, `SELECT * FROM accounts WHERE email = $1`, email)
}

// UpdateProfileImage replaces the stored profile image URL for an account.
func (r *Repository) UpdateProfileImage(ctx context.Context, id uuid.UUID, profileImage string) error {
	q := `UPDATE accounts SET profile_image = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, profileImage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile image: %w", err)
	}
	return nil
}

// scanOne executes a single-row query and scans the result into an Account.
// Column order: id, name, email, password_hash, profile_image, created_at,
// updated_at (matches the schema definition order).
func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*Account, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var a Account
	if err := rows.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.ProfileImage,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, rows.Err()
}
