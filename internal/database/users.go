package database

import (
	"context"
	"errors"
	"servebeer/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUserAlreadyExists = errors.New("a user with this email or wallet address already exists")

const userColumns = `
	id, email, password_hash, wallet_address, auth_method, tier,
	storage_used_bytes, storage_limit_bytes, api_key, created_at, last_active
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.WalletAddress,
		&user.AuthMethod,
		&user.Tier,
		&user.StorageUsed,
		&user.StorageLimit,
		&user.APIKey,
		&user.CreatedAt,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type CreateUserParams struct {
	Email         *string
	PasswordHash  *string
	WalletAddress *string
	AuthMethod    string
	Tier          string
	StorageLimit  int64
	APIKey        string
}

func (s *PostgresStore) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, wallet_address, auth_method, tier, storage_limit_bytes, api_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	row := s.pool.QueryRow(ctx, query,
		arg.Email,
		arg.PasswordHash,
		arg.WalletAddress,
		arg.AuthMethod,
		arg.Tier,
		arg.StorageLimit,
		arg.APIKey,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}
