package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clipstream/backend/internal/common"
	"github.com/clipstream/backend/internal/dbx"
	"github.com/clipstream/backend/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, fullname, password_hash, avatar_url, cover_image_url, COALESCE(refresh_token, ''), created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.PasswordHash, &user.AvatarURL, &user.CoverImageURL, &user.RefreshToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, fullname, password_hash, avatar_url, cover_image_url)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, login))
}

func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	query :=
		`UPDATE users SET refresh_token = NULLIF($2, '')
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, token)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, fullname, email string) (*models.User, error) {
	query :=
		`UPDATE users SET fullname = $2, email = $3
		 WHERE id = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, fullname, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) UpdateAvatarURL(ctx context.Context, id, url string) (*models.User, error) {
	query :=
		`UPDATE users SET avatar_url = $2
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, url))
}

func (r *PostgresRepository) UpdateCoverImageURL(ctx context.Context, id, url string) (*models.User, error) {
	query :=
		`UPDATE users SET cover_image_url = $2
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, url))
}

// exec runs an UPDATE that must touch exactly one row; zero rows means the
// user does not exist.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
