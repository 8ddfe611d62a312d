package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/platform/db"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	CreateSession(ctx context.Context, id string, accountID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const findAccountSQL = `
SELECT id, name, email, role, password_hash, is_active, created_at, updated_at
FROM accounts
WHERE lower(email) = $1
   OR lower(name) = $1
   OR replace(lower(name), ' ', '') = $1
ORDER BY (lower(email) = $1) DESC
LIMIT 1`

// FindByIdentifier fetches an account by email or display name. Names match
// case-insensitively with or without spaces.
func (r *PGRepository) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	var (
		acc       Account
		role      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, findAccountSQL, key).Scan(
		&acc.ID, &acc.Name, &acc.Email, &role, &acc.PasswordHash, &acc.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find account: %w", err)
	}
	parsed, err := identity.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("auth: account %s: %w", acc.ID, err)
	}
	acc.Role = parsed
	acc.CreatedAt = createdAt.Time
	acc.UpdatedAt = updatedAt.Time
	return &acc, nil
}

// CreateSession persists a new login session and stamps the account's last
// login in one transaction.
func (r *PGRepository) CreateSession(ctx context.Context, id string, accountID string, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO auth_sessions (id, account_id, created_at, expires_at, ip, ua) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, accountID, now, expiresAt.UTC(),
			pgtype.Text{String: ip, Valid: ip != ""},
			pgtype.Text{String: ua, Valid: ua != ""},
		); err != nil {
			return fmt.Errorf("auth: insert session: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET last_login_at = $1 WHERE id = $2`, now, accountID); err != nil {
			return fmt.Errorf("auth: stamp last login: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions removes session rows that expired before now and
// reports how many were removed.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
