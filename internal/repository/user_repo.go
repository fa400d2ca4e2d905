package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arcade-auth/internal/domain"
)

// ErrDuplicate indica que ya existe un registro para ese email.
var ErrDuplicate = errors.New("user already exists for email")

// UserRepository define el contrato de persistencia para registros de usuario.
// La unicidad por email se garantiza en Create, no por constraint del storage.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.UserRecord, error)
	GetByHash(ctx context.Context, identityHash string) (domain.UserRecord, error)
	Create(ctx context.Context, record domain.UserRecord) error
	Delete(ctx context.Context, email string) (int64, error)
	Replace(ctx context.Context, record domain.UserRecord) error
	List(ctx context.Context) ([]domain.UserRecord, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const selectColumns = `
	SELECT id, identity_hash, email, email_primary, email_verified, progress, created_at
	FROM users
`

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	const query = selectColumns + `WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByHash(ctx context.Context, identityHash string) (domain.UserRecord, error) {
	const query = selectColumns + `WHERE identity_hash = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, identityHash))
}

// Create inserta un registro nuevo. Chequeo explícito antes del insert:
// dos llamadas concurrentes pueden pasar ambas el chequeo, el caller
// debe tratar ErrDuplicate como condición reintentable (releer).
func (r *PgUserRepository) Create(ctx context.Context, record domain.UserRecord) error {
	if _, err := r.GetByEmail(ctx, record.Profile.Email); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	const query = `
		INSERT INTO users (id, identity_hash, email, email_primary, email_verified, progress, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.IdentityHash,
		record.Profile.Email,
		record.Profile.Primary,
		record.Profile.Verified,
		record.Progress,
		record.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) Delete(ctx context.Context, email string) (int64, error) {
	const query = `DELETE FROM users WHERE email = $1`
	tag, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Replace es delete seguido de insert, no atómico: un lector entre ambos
// pasos puede observar transitoriamente "no existe".
func (r *PgUserRepository) Replace(ctx context.Context, record domain.UserRecord) error {
	if _, err := r.Delete(ctx, record.Profile.Email); err != nil {
		return err
	}
	return r.Create(ctx, record)
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.UserRecord, error) {
	const query = selectColumns + `ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.UserRecord
	for rows.Next() {
		var u domain.UserRecord
		if err := rows.Scan(
			&u.ID,
			&u.IdentityHash,
			&u.Profile.Email,
			&u.Profile.Primary,
			&u.Profile.Verified,
			&u.Progress,
			&u.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, u)
	}
	return records, rows.Err()
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.UserRecord, error) {
	var u domain.UserRecord
	err := row.Scan(
		&u.ID,
		&u.IdentityHash,
		&u.Profile.Email,
		&u.Profile.Primary,
		&u.Profile.Verified,
		&u.Progress,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.UserRecord{}, err
	}
	return u, nil
}
