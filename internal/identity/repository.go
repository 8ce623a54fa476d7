package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// ErrUserNotFound indicates no user matched the lookup.
var ErrUserNotFound = errors.New("user not found")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (User, error)
	List(ctx context.Context) ([]User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A unique violation on username or email maps to
// ErrUserExists so a registration racing past the duplicate pre-check still
// reports a duplicate, not a storage fault.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, email, password_hash, country_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, user.Username, user.Email, user.PasswordHash, user.CountryCode, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrUserExists
	}
	return err
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, country_code, created_at
        FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByLogin fetches a user by username or email.
func (r *PostgresRepository) FindByLogin(ctx context.Context, usernameOrEmail string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, country_code, created_at
        FROM users WHERE username = $1 OR email = $1 LIMIT 1`, usernameOrEmail)
	return scanUser(row)
}

// List returns all users, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, email, password_hash, country_code, created_at
        FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u         User
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.CountryCode, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}
