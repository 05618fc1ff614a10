package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-media/backoffice/internal/access"
	"github.com/lumina-media/backoffice/internal/platform/db"
	"github.com/lumina-media/backoffice/internal/platform/httpx"
)

// Repository defines persistence operations for the staff directory.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User, passwordHash string) (*User, error)
	Update(ctx context.Context, user User) (*User, error)
	Deactivate(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, role, COALESCE(department, ''), is_active, created_at, updated_at`

// List returns all staff accounts ordered by email.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM staff_users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	return out, rows.Err()
}

// Get fetches one staff account.
func (r *PGRepository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM staff_users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a new staff account.
func (r *PGRepository) Create(ctx context.Context, user User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff_users (email, name, role, department, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING `+userColumns,
		user.Email,
		user.Name,
		string(user.Role),
		optionalDept(user.Department),
		passwordHash,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	return created, nil
}

// Update rewrites the mutable fields of a staff account.
func (r *PGRepository) Update(ctx context.Context, user User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE staff_users
		SET name = $2, role = $3, department = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID,
		user.Name,
		string(user.Role),
		optionalDept(user.Department),
	)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, mapPGError(err)
	}
	return updated, nil
}

// Deactivate disables the account and revokes its mirrored sessions in one
// transaction, so a deactivated user cannot keep browsing on a live session
// row.
func (r *PGRepository) Deactivate(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE staff_users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		_, err = tx.Exec(ctx, `DELETE FROM staff_sessions WHERE user_id = $1`, id)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		user      User
		role      string
		dept      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &dept, &user.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	// Stored values are carried through verbatim; unknown roles fail closed
	// at decision time rather than erroring here.
	user.Role = access.Role(role)
	user.Department = access.Department(dept)
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, nil
}

func optionalDept(dept access.Department) pgtype.Text {
	if dept == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(dept), Valid: true}
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
