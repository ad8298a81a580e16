package interaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UpsertResult reports whether a rating upsert inserted a new row or updated
// an existing one.
type UpsertResult struct {
	Inserted    bool
	Interaction *Interaction
}

// ActiveUserRow is the storage-level leaderboard row, before user display
// data is joined in.
type ActiveUserRow struct {
	UserID           string
	InteractionCount int
	LastActivity     time.Time
}

// Repository defines the interaction store operations.
//
// UpsertRating must be atomic: under concurrent resubmissions for the same
// (user, book) pair exactly one row survives, holding the value and timestamp
// of some submission (last-write-wins). All other writes are independent
// appends.
type Repository interface {
	// Insert appends a new interaction row, assigning ID and timestamp.
	Insert(ctx context.Context, i *Interaction) error

	// UpsertRating inserts the rating row for (UserID, BookID) or overwrites
	// the value, session ID, and timestamp of the existing one.
	UpsertRating(ctx context.Context, i *Interaction) (*UpsertResult, error)

	// ListByUser returns interactions for a user ordered newest-first,
	// along with the total row count for the user.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Interaction, int, error)

	// ListByBook returns interactions for a book ordered newest-first,
	// along with the total row count for the book.
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Interaction, int, error)

	// RatingValues returns the current rating values for a book, one per
	// user by the upsert invariant.
	RatingValues(ctx context.Context, bookID string) ([]int, error)

	// Stats aggregates interactions matching the filter in a single pass.
	Stats(ctx context.Context, filter StatsFilter) (*Stats, error)

	// MostActiveUsers groups interactions by user and returns up to limit
	// rows sorted by count descending, then last activity descending.
	MostActiveUsers(ctx context.Context, limit int) ([]*ActiveUserRow, error)

	// RatingBreakdown returns the count of rating rows per star value for a
	// book. Unseen values are absent; callers zero-fill the buckets.
	RatingBreakdown(ctx context.Context, bookID string) (map[int]int, error)
}

// ratingKey identifies the single mutable rating row per (user, book) pair.
type ratingKey struct {
	userID string
	bookID string
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu           sync.RWMutex
	interactions map[string]*Interaction
	ratings      map[ratingKey]string // (user, book) -> interaction ID
}

// NewInMemoryRepository creates a new in-memory interaction repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		interactions: make(map[string]*Interaction),
		ratings:      make(map[ratingKey]string),
	}
}

// Insert appends a new interaction row, assigning ID and timestamp.
func (r *InMemoryRepository) Insert(ctx context.Context, i *Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i.ID = uuid.New().String()
	i.Timestamp = time.Now()

	copied := *i
	r.interactions[i.ID] = &copied
	return nil
}

// UpsertRating inserts or overwrites the rating row for (UserID, BookID).
// The map lookup and write happen under one lock, so the upsert is atomic.
func (r *InMemoryRepository) UpsertRating(ctx context.Context, i *Interaction) (*UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{userID: i.UserID, bookID: i.BookID}
	now := time.Now()

	if existingID, ok := r.ratings[key]; ok {
		existing := r.interactions[existingID]
		existing.RatingValue = i.RatingValue
		existing.SessionID = i.SessionID
		existing.Timestamp = now

		copied := *existing
		return &UpsertResult{Inserted: false, Interaction: &copied}, nil
	}

	i.ID = uuid.New().String()
	i.Timestamp = now

	copied := *i
	r.interactions[i.ID] = &copied
	r.ratings[key] = i.ID

	result := copied
	return &UpsertResult{Inserted: true, Interaction: &result}, nil
}

// ListByUser returns interactions for a user ordered newest-first.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Interaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Interaction
	for _, i := range r.interactions {
		if i.UserID == userID {
			matched = append(matched, i)
		}
	}
	return paginateNewestFirst(matched, limit, offset)
}

// ListByBook returns interactions for a book ordered newest-first.
func (r *InMemoryRepository) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Interaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Interaction
	for _, i := range r.interactions {
		if i.BookID == bookID {
			matched = append(matched, i)
		}
	}
	return paginateNewestFirst(matched, limit, offset)
}

// paginateNewestFirst sorts matched rows by timestamp descending (ID ascending
// on ties for stable ordering) and applies offset pagination. Callers must
// hold at least a read lock.
func paginateNewestFirst(matched []*Interaction, limit, offset int) ([]*Interaction, int, error) {
	sort.Slice(matched, func(a, b int) bool {
		if !matched[a].Timestamp.Equal(matched[b].Timestamp) {
			return matched[a].Timestamp.After(matched[b].Timestamp)
		}
		return matched[a].ID < matched[b].ID
	})

	total := len(matched)
	if offset >= total {
		return []*Interaction{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*Interaction, 0, end-offset)
	for _, i := range matched[offset:end] {
		copied := *i
		page = append(page, &copied)
	}
	return page, total, nil
}

// RatingValues returns the current rating values for a book.
func (r *InMemoryRepository) RatingValues(ctx context.Context, bookID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var values []int
	for key, id := range r.ratings {
		if key.bookID != bookID {
			continue
		}
		if i := r.interactions[id]; i != nil && i.RatingValue != nil {
			values = append(values, *i.RatingValue)
		}
	}
	return values, nil
}

// Stats aggregates interactions matching the filter in a single pass.
func (r *InMemoryRepository) Stats(ctx context.Context, filter StatsFilter) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{}
	ratingSum := 0
	for _, i := range r.interactions {
		if filter.UserID != nil && i.UserID != *filter.UserID {
			continue
		}
		if filter.BookID != nil && i.BookID != *filter.BookID {
			continue
		}

		stats.TotalInteractions++
		switch i.Kind {
		case KindView:
			stats.TotalViews++
		case KindRating:
			stats.TotalRatings++
			if i.RatingValue != nil {
				ratingSum += *i.RatingValue
			}
		case KindWishlist:
			stats.TotalWishlists++
		}
	}

	if stats.TotalRatings > 0 {
		stats.AverageRating = roundToTenth(float64(ratingSum) / float64(stats.TotalRatings))
	}
	return stats, nil
}

// MostActiveUsers groups interactions by user, sorted by count then recency.
func (r *InMemoryRepository) MostActiveUsers(ctx context.Context, limit int) ([]*ActiveUserRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := make(map[string]*ActiveUserRow)
	for _, i := range r.interactions {
		row, ok := byUser[i.UserID]
		if !ok {
			row = &ActiveUserRow{UserID: i.UserID}
			byUser[i.UserID] = row
		}
		row.InteractionCount++
		if i.Timestamp.After(row.LastActivity) {
			row.LastActivity = i.Timestamp
		}
	}

	rows := make([]*ActiveUserRow, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].InteractionCount != rows[b].InteractionCount {
			return rows[a].InteractionCount > rows[b].InteractionCount
		}
		if !rows[a].LastActivity.Equal(rows[b].LastActivity) {
			return rows[a].LastActivity.After(rows[b].LastActivity)
		}
		return rows[a].UserID < rows[b].UserID
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// RatingBreakdown returns the count of rating rows per star value for a book.
func (r *InMemoryRepository) RatingBreakdown(ctx context.Context, bookID string) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int)
	for key, id := range r.ratings {
		if key.bookID != bookID {
			continue
		}
		if i := r.interactions[id]; i != nil && i.RatingValue != nil {
			counts[*i.RatingValue]++
		}
	}
	return counts, nil
}
