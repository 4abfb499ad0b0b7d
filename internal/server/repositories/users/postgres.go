package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, hashed_password, first_name, last_name,
		 is_active, is_superuser, is_verified, created_at, last_login`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, hashed_password, first_name, last_name,
		 is_active, is_superuser, is_verified, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id
		 `

	u := user.Clone()
	u.Email = models.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		u.Email, u.HashedPassword, u.FirstName, u.LastName,
		u.IsActive, u.IsSuperuser, u.IsVerified, u.CreatedAt).Scan(&u.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE lower(email) = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

// Update applies patch in a single statement; nil fields keep the stored value.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE users SET
		 hashed_password = COALESCE($2, hashed_password),
		 first_name = COALESCE($3, first_name),
		 last_name = COALESCE($4, last_name),
		 is_active = COALESCE($5, is_active),
		 is_superuser = COALESCE($6, is_superuser),
		 is_verified = COALESCE($7, is_verified),
		 last_login = COALESCE($8, last_login)
		 WHERE id = $1
		 RETURNING ` + userColumns

	return r.scanOne(r.db.QueryRowContext(ctx, query, id,
		patch.HashedPassword, patch.FirstName, patch.LastName,
		patch.IsActive, patch.IsSuperuser, patch.IsVerified, patch.LastLogin))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	var (
		user      models.User
		firstName sql.NullString
		lastName  sql.NullString
		lastLogin sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &firstName, &lastName,
		&user.IsActive, &user.IsSuperuser, &user.IsVerified, &user.CreatedAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if firstName.Valid {
		user.FirstName = &firstName.String
	}
	if lastName.Valid {
		user.LastName = &lastName.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLogin = &t
	}
	user.CreatedAt = user.CreatedAt.UTC()

	return &user, nil
}
