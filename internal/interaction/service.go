package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/onnwee/bookden/internal/book"
	"github.com/onnwee/bookden/internal/stats"
	"github.com/onnwee/bookden/internal/user"
)

// Request-level errors surfaced by the service.
var (
	ErrMissingUserID = errors.New("user ID is required")
	ErrMissingBookID = errors.New("book ID is required")
)

// RecordRequest carries one interaction submission into the service.
// UserID comes from the authenticated session, never the request body.
type RecordRequest struct {
	UserID      string
	BookID      string
	Kind        Kind
	RatingValue *int
	TimeOnPage  *int
	SessionID   string
}

// Service orchestrates interaction recording and aggregate queries.
//
// Each call is a self-contained unit of work against the stores; the service
// holds no per-request state. The only write-side coupling is the
// rating-upsert-then-recompute sequence in Record.
type Service struct {
	interactions Repository
	books        book.Repository
	users        user.Repository
	logger       *slog.Logger
	metrics      *Metrics
	upsertStats  *stats.UpsertStats
}

// NewService creates a new interaction service. logger, metrics and
// upsertStats may be nil; no-op defaults are substituted.
func NewService(interactions Repository, books book.Repository, users user.Repository, logger *slog.Logger, metrics *Metrics, upsertStats *stats.UpsertStats) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if upsertStats == nil {
		upsertStats = stats.NewUpsertStats()
	}
	return &Service{
		interactions: interactions,
		books:        books,
		users:        users,
		logger:       logger,
		metrics:      metrics,
		upsertStats:  upsertStats,
	}
}

// Record validates and persists one interaction.
//
// Ratings are upserted (one row per user/book pair) and trigger a synchronous
// recomputation of the book's rating statistics before returning, so callers
// observe up-to-date summaries immediately. Views append a row and atomically
// increment the book's view counter. Wishlist adds append a row only.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*Interaction, error) {
	if req.UserID == "" {
		s.metrics.IncRejected("missing_user")
		return nil, ErrMissingUserID
	}
	if req.BookID == "" {
		s.metrics.IncRejected("missing_book")
		return nil, ErrMissingBookID
	}

	i := &Interaction{
		UserID:      req.UserID,
		BookID:      req.BookID,
		Kind:        req.Kind,
		RatingValue: req.RatingValue,
		TimeOnPage:  req.TimeOnPage,
		SessionID:   req.SessionID,
	}
	if err := i.Validate(); err != nil {
		s.metrics.IncRejected("invalid_payload")
		return nil, err
	}

	// The book must exist before anything is written.
	if _, err := s.books.GetByID(ctx, req.BookID); err != nil {
		if errors.Is(err, book.ErrBookNotFound) {
			s.metrics.IncRejected("book_not_found")
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve book: %w", err)
	}

	switch i.Kind {
	case KindRating:
		result, err := s.interactions.UpsertRating(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to record rating: %w", err)
		}
		if result.Inserted {
			s.upsertStats.RecordInsert()
		} else {
			s.upsertStats.RecordUpdate()
		}
		i = result.Interaction

		// Synchronous by contract: callers must see fresh summary stats
		// after a successful rating call. A recompute failure is logged
		// and swallowed; the rating row is already durable.
		s.RecomputeRatings(ctx, i.BookID)

	case KindView:
		if err := s.interactions.Insert(ctx, i); err != nil {
			return nil, fmt.Errorf("failed to record view: %w", err)
		}
		if err := s.books.IncrementViewCount(ctx, i.BookID); err != nil {
			// Same relaxation as ratings: the event row wins over the
			// derived counter.
			s.logger.ErrorContext(ctx, "failed to increment view count",
				"error", err, "book_id", i.BookID)
		} else {
			s.metrics.IncViewCountIncrements()
		}

	case KindWishlist:
		if err := s.interactions.Insert(ctx, i); err != nil {
			return nil, fmt.Errorf("failed to record wishlist add: %w", err)
		}
	}

	s.metrics.IncRecorded(i.Kind)
	return i, nil
}

// RecomputeRatings recalculates a book's average rating and rating count from
// the current rating rows and overwrites the book summary. It is idempotent
// and safe to re-run at any time, which makes it double as a repair tool if
// the summary ever drifts. Failures are logged and swallowed.
func (s *Service) RecomputeRatings(ctx context.Context, bookID string) {
	values, err := s.interactions.RatingValues(ctx, bookID)
	if err != nil {
		s.recomputeFailed(ctx, bookID, err)
		return
	}

	average := 0.0
	if len(values) > 0 {
		sum := 0
		for _, v := range values {
			sum += v
		}
		average = roundToTenth(float64(sum) / float64(len(values)))
	}

	if err := s.books.UpdateRatingStats(ctx, bookID, average, len(values)); err != nil {
		s.recomputeFailed(ctx, bookID, err)
	}
}

func (s *Service) recomputeFailed(ctx context.Context, bookID string, err error) {
	s.logger.ErrorContext(ctx, "rating recomputation failed",
		"error", err, "book_id", bookID)
	s.metrics.IncRecomputeFailures()
	s.upsertStats.RecordRecomputeFailure()
}

// ListUserInteractions returns a page of the user's history, newest-first,
// each item enriched with its referenced book.
func (s *Service) ListUserInteractions(ctx context.Context, userID string, page, limit int) ([]*UserHistoryItem, *Pagination, error) {
	page, limit = normalizePaging(page, limit)

	rows, total, err := s.interactions.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list user interactions: %w", err)
	}

	items := make([]*UserHistoryItem, 0, len(rows))
	for _, row := range rows {
		item := &UserHistoryItem{Interaction: row}
		b, err := s.books.GetByID(ctx, row.BookID)
		if err == nil {
			item.Book = b
		} else if !errors.Is(err, book.ErrBookNotFound) {
			return nil, nil, fmt.Errorf("failed to enrich interaction %s: %w", row.ID, err)
		}
		items = append(items, item)
	}

	return items, newPagination(page, limit, total), nil
}

// ListBookInteractions returns a page of a book's history, newest-first, each
// item enriched with a restricted view of the acting user.
func (s *Service) ListBookInteractions(ctx context.Context, bookID string, page, limit int) ([]*BookHistoryItem, *Pagination, error) {
	page, limit = normalizePaging(page, limit)

	rows, total, err := s.interactions.ListByBook(ctx, bookID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list book interactions: %w", err)
	}

	userIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			userIDs = append(userIDs, row.UserID)
		}
	}
	summaries, err := s.users.SummariesByIDs(ctx, userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user summaries: %w", err)
	}

	items := make([]*BookHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, &BookHistoryItem{
			Interaction: row,
			User:        summaries[row.UserID],
		})
	}

	return items, newPagination(page, limit, total), nil
}

// GetStats aggregates interactions, optionally scoped to a user and/or book.
func (s *Service) GetStats(ctx context.Context, filter StatsFilter) (*Stats, error) {
	result, err := s.interactions.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return result, nil
}

// GetMostActiveUsers returns up to limit users ranked by interaction count
// descending, ties broken by most recent activity, joined with display data.
func (s *Service) GetMostActiveUsers(ctx context.Context, limit int) ([]*ActiveUser, error) {
	if limit <= 0 {
		limit = DefaultActiveUsersLimit
	}

	rows, err := s.interactions.MostActiveUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank active users: %w", err)
	}

	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}
	summaries, err := s.users.SummariesByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load user summaries: %w", err)
	}

	result := make([]*ActiveUser, 0, len(rows))
	for _, row := range rows {
		result = append(result, &ActiveUser{
			UserID:           row.UserID,
			InteractionCount: row.InteractionCount,
			LastActivity:     row.LastActivity,
			User:             summaries[row.UserID],
		})
	}
	return result, nil
}

// GetRatingBreakdown returns the star distribution for a book with all five
// buckets present, zero-filled where no ratings exist.
func (s *Service) GetRatingBreakdown(ctx context.Context, bookID string) (*Breakdown, error) {
	counts, err := s.interactions.RatingBreakdown(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating breakdown: %w", err)
	}

	breakdown := &Breakdown{Counts: make(map[int]int, MaxRating)}
	for star := MinRating; star <= MaxRating; star++ {
		breakdown.Counts[star] = counts[star]
		breakdown.TotalReviews += counts[star]
	}
	return breakdown, nil
}

// Paging defaults, matching the HTTP layer's documented behavior.
const (
	DefaultPage             = 1
	DefaultLimit            = 20
	MaxLimit                = 100
	DefaultActiveUsersLimit = 10
)

// normalizePaging clamps page and limit into their valid ranges.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// newPagination computes the pagination block; totalPages == ceil(total/limit).
func newPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// roundToTenth rounds to one decimal place, half away from zero.
func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
