package book

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBookNotFound is returned when a book does not exist.
var ErrBookNotFound = errors.New("book not found")

// Repository defines the data operations the interaction engine needs from
// the catalog. Summary writes are full overwrites (UpdateRatingStats) or
// atomic increments (IncrementViewCount); callers never read-modify-write.
type Repository interface {
	// Insert stores a new book. The ID is generated if empty.
	Insert(ctx context.Context, b *Book) error

	// GetByID retrieves a book by its ID.
	// Returns ErrBookNotFound if no such book exists.
	GetByID(ctx context.Context, id string) (*Book, error)

	// IncrementViewCount atomically adds one to the book's view counter.
	// Returns ErrBookNotFound if no such book exists.
	IncrementViewCount(ctx context.Context, id string) error

	// UpdateRatingStats overwrites the book's average rating and rating count.
	// The write is unconditional so a recompute can repair a drifted summary.
	// Returns ErrBookNotFound if no such book exists.
	UpdateRatingStats(ctx context.Context, id string, averageRating float64, ratingCount int) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewInMemoryRepository creates a new in-memory book repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		books: make(map[string]*Book),
	}
}

// Insert stores a new book, generating an ID if one is not provided.
func (r *InMemoryRepository) Insert(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	bookCopy := *b
	r.books[b.ID] = &bookCopy
	return nil
}

// GetByID retrieves a book by its ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}

	// Return a copy to avoid external modification.
	bookCopy := *b
	return &bookCopy, nil
}

// IncrementViewCount atomically adds one to the book's view counter.
func (r *InMemoryRepository) IncrementViewCount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return ErrBookNotFound
	}

	b.ViewCount++
	b.UpdatedAt = time.Now()
	return nil
}

// UpdateRatingStats overwrites the book's average rating and rating count.
func (r *InMemoryRepository) UpdateRatingStats(ctx context.Context, id string, averageRating float64, ratingCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return ErrBookNotFound
	}

	b.AverageRating = averageRating
	b.RatingCount = ratingCount
	b.UpdatedAt = time.Now()
	return nil
}
