// Package interaction implements the interaction store and rating aggregation
// engine: recording user actions against catalog books, maintaining one
// mutable rating per (user, book) pair, and keeping each book's derived
// statistics consistent with the interaction log.
package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/onnwee/bookden/internal/book"
	"github.com/onnwee/bookden/internal/user"
)

// Kind identifies the type of a recorded interaction.
type Kind string

// Supported interaction kinds.
const (
	KindView     Kind = "view"
	KindRating   Kind = "rating"
	KindWishlist Kind = "wishlist"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Validation errors for interaction payloads.
var (
	ErrUnknownKind        = errors.New("unknown interaction kind")
	ErrMissingSessionID   = errors.New("session ID is required")
	ErrMissingRatingValue = errors.New("rating value is required for rating interactions")
	ErrRatingOutOfRange   = fmt.Errorf("rating value must be between %d and %d", MinRating, MaxRating)
	ErrMissingTimeOnPage  = errors.New("time on page is required for view interactions")
	ErrNegativeTimeOnPage = errors.New("time on page must not be negative")
)

// Valid reports whether k is a supported interaction kind.
func (k Kind) Valid() bool {
	switch k {
	case KindView, KindRating, KindWishlist:
		return true
	}
	return false
}

// Interaction represents one recorded user action against a catalog book.
// View and wishlist interactions are append-only; rating interactions are
// upserted so at most one rating row exists per (user, book) pair.
type Interaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	BookID      string    `json:"book_id"`
	Kind        Kind      `json:"kind"`
	RatingValue *int      `json:"rating_value,omitempty"` // set iff Kind == rating
	TimeOnPage  *int      `json:"time_on_page,omitempty"` // seconds, set iff Kind == view
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"` // assigned at persistence
}

// Validate checks the kind-specific payload rules. The book existence check
// is the service's responsibility; this only covers structural validity.
func (i *Interaction) Validate() error {
	if !i.Kind.Valid() {
		return ErrUnknownKind
	}
	if i.SessionID == "" {
		return ErrMissingSessionID
	}

	switch i.Kind {
	case KindRating:
		if i.RatingValue == nil {
			return ErrMissingRatingValue
		}
		if *i.RatingValue < MinRating || *i.RatingValue > MaxRating {
			return ErrRatingOutOfRange
		}
	case KindView:
		if i.TimeOnPage == nil {
			return ErrMissingTimeOnPage
		}
		if *i.TimeOnPage < 0 {
			return ErrNegativeTimeOnPage
		}
	}
	return nil
}

// Pagination describes an offset-paginated result set.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// UserHistoryItem is an interaction enriched with its referenced book.
type UserHistoryItem struct {
	*Interaction
	Book *book.Book `json:"book,omitempty"`
}

// BookHistoryItem is an interaction enriched with a restricted view of the
// acting user (no credentials).
type BookHistoryItem struct {
	*Interaction
	User *user.Summary `json:"user,omitempty"`
}

// Stats is the scalar aggregate over a set of interactions.
type Stats struct {
	TotalViews        int     `json:"total_views"`
	TotalRatings      int     `json:"total_ratings"`
	TotalWishlists    int     `json:"total_wishlists"`
	AverageRating     float64 `json:"average_rating"`
	TotalInteractions int     `json:"total_interactions"`
}

// StatsFilter scopes a stats query. Nil fields mean no filtering.
type StatsFilter struct {
	UserID *string
	BookID *string
}

// ActiveUser is one row of the most-active-users leaderboard.
type ActiveUser struct {
	UserID           string        `json:"user_id"`
	InteractionCount int           `json:"interaction_count"`
	LastActivity     time.Time     `json:"last_activity"`
	User             *user.Summary `json:"user,omitempty"`
}

// Breakdown is the per-star rating distribution for one book.
// All five buckets are always present, defaulting to zero.
type Breakdown struct {
	Counts       map[int]int `json:"breakdown"`
	TotalReviews int         `json:"total_reviews"`
}
