package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new Postgres-backed user repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new user, generating an ID if one is not provided.
func (r *PostgresRepository) Insert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, favorite_genres, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Username, u.Email, u.PasswordHash, pq.Array(u.FavoriteGenres), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, favorite_genres, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, pq.Array(&u.FavoriteGenres), &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// SummariesByIDs returns restricted user views keyed by user ID.
func (r *PostgresRepository) SummariesByIDs(ctx context.Context, ids []string) (map[string]*Summary, error) {
	if len(ids) == 0 {
		return map[string]*Summary{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, favorite_genres
		FROM users
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query user summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[string]*Summary, len(ids))
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Username, pq.Array(&s.FavoriteGenres)); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		summaries[s.ID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user summaries: %w", err)
	}
	return summaries, nil
}
