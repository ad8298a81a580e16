package book

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

// NewPostgresRepository creates a new Postgres-backed book repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new book, generating an ID if one is not provided.
func (r *PostgresRepository) Insert(ctx context.Context, b *Book) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, genres, description, average_rating, rating_count, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, $6, $6)
	`, b.ID, b.Title, b.Author, pq.Array(b.Genres), b.Description, now)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

// GetByID retrieves a book by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Book, error) {
	var b Book
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, genres, description, average_rating, rating_count, view_count, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Author, pq.Array(&b.Genres), &b.Description,
		&b.AverageRating, &b.RatingCount, &b.ViewCount, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &b, nil
}

// IncrementViewCount atomically adds one to the book's view counter.
// The increment happens in SQL so concurrent views never lose updates.
func (r *PostgresRepository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET view_count = view_count + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrBookNotFound
	}
	return nil
}

// UpdateRatingStats overwrites the book's average rating and rating count.
func (r *PostgresRepository) UpdateRatingStats(ctx context.Context, id string, averageRating float64, ratingCount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET average_rating = $2, rating_count = $3, updated_at = NOW()
		WHERE id = $1
	`, id, averageRating, ratingCount)
	if err != nil {
		return fmt.Errorf("failed to update rating stats: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrBookNotFound
	}
	return nil
}
