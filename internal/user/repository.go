package user

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Repository defines the user lookups the interaction engine performs.
type Repository interface {
	// Insert stores a new user. The ID is generated if empty.
	Insert(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*User, error)

	// SummariesByIDs returns restricted user views keyed by user ID.
	// Missing IDs are silently omitted from the result.
	SummariesByIDs(ctx context.Context, ids []string) (map[string]*Summary, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[string]*User),
	}
}

// Insert stores a new user, generating an ID if one is not provided.
func (r *InMemoryRepository) Insert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now()

	userCopy := *u
	r.users[u.ID] = &userCopy
	return nil
}

// GetByID retrieves a user by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

// SummariesByIDs returns restricted user views keyed by user ID.
func (r *InMemoryRepository) SummariesByIDs(ctx context.Context, ids []string) (map[string]*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make(map[string]*Summary, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			summaries[id] = u.Summary()
		}
	}
	return summaries, nil
}
