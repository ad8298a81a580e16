package interaction

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository using PostgreSQL.
//
// The rating upsert relies on the partial unique index
// interactions_one_rating_per_user_book on (user_id, book_id) WHERE
// kind = 'rating' (see migrations); INSERT ... ON CONFLICT makes the
// read-check-write a single atomic statement.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new Postgres-backed interaction repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends a new interaction row, assigning ID and timestamp.
func (r *PostgresRepository) Insert(ctx context.Context, i *Interaction) error {
	i.ID = uuid.New().String()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO interactions (id, user_id, book_id, kind, rating_value, time_on_page, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, i.ID, i.UserID, i.BookID, string(i.Kind), i.RatingValue, i.TimeOnPage, i.SessionID).Scan(&i.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// UpsertRating inserts or overwrites the rating row for (UserID, BookID).
// xmax = 0 distinguishes a fresh insert from a conflict update.
func (r *PostgresRepository) UpsertRating(ctx context.Context, i *Interaction) (*UpsertResult, error) {
	newID := uuid.New().String()

	row := *i
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO interactions (id, user_id, book_id, kind, rating_value, session_id, created_at)
		VALUES ($1, $2, $3, 'rating', $4, $5, NOW())
		ON CONFLICT (user_id, book_id) WHERE kind = 'rating'
		DO UPDATE SET rating_value = EXCLUDED.rating_value,
		              session_id   = EXCLUDED.session_id,
		              created_at   = EXCLUDED.created_at
		RETURNING id, created_at, (xmax = 0) AS inserted
	`, newID, i.UserID, i.BookID, i.RatingValue, i.SessionID).Scan(&row.ID, &row.Timestamp, &inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	return &UpsertResult{Inserted: inserted, Interaction: &row}, nil
}

// ListByUser returns interactions for a user ordered newest-first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Interaction, int, error) {
	return r.list(ctx, "user_id", userID, limit, offset)
}

// ListByBook returns interactions for a book ordered newest-first.
func (r *PostgresRepository) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Interaction, int, error) {
	return r.list(ctx, "book_id", bookID, limit, offset)
}

// list pages interactions filtered on one indexed column. The column name is
// restricted to the two callers above, never caller input.
func (r *PostgresRepository) list(ctx context.Context, column, value string, limit, offset int) ([]*Interaction, int, error) {
	var total int
	countQuery := "SELECT COUNT(*) FROM interactions WHERE " + column + " = $1"
	if err := r.db.QueryRowContext(ctx, countQuery, value).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	query := `
		SELECT id, user_id, book_id, kind, rating_value, time_on_page, session_id, created_at
		FROM interactions
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []*Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, 0, err
		}
		interactions = append(interactions, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	if interactions == nil {
		interactions = []*Interaction{}
	}
	return interactions, total, nil
}

// scanInteraction reads one interaction row, mapping nullable columns.
func scanInteraction(rows *sql.Rows) (*Interaction, error) {
	var (
		i           Interaction
		kind        string
		ratingValue sql.NullInt64
		timeOnPage  sql.NullInt64
	)
	if err := rows.Scan(&i.ID, &i.UserID, &i.BookID, &kind, &ratingValue, &timeOnPage, &i.SessionID, &i.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to scan interaction: %w", err)
	}
	i.Kind = Kind(kind)
	if ratingValue.Valid {
		v := int(ratingValue.Int64)
		i.RatingValue = &v
	}
	if timeOnPage.Valid {
		v := int(timeOnPage.Int64)
		i.TimeOnPage = &v
	}
	return &i, nil
}

// RatingValues returns the current rating values for a book.
func (r *PostgresRepository) RatingValues(ctx context.Context, bookID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rating_value
		FROM interactions
		WHERE book_id = $1 AND kind = 'rating'
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating values: %w", err)
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan rating value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating values: %w", err)
	}
	return values, nil
}

// Stats aggregates interactions matching the filter in a single pass using
// FILTER clauses, so counts and the rating average come from one scan.
func (r *PostgresRepository) Stats(ctx context.Context, filter StatsFilter) (*Stats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE kind = 'view'),
		       COUNT(*) FILTER (WHERE kind = 'rating'),
		       COUNT(*) FILTER (WHERE kind = 'wishlist'),
		       COALESCE(AVG(rating_value) FILTER (WHERE kind = 'rating'), 0),
		       COUNT(*)
		FROM interactions
		WHERE 1=1`
	var args []interface{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if filter.BookID != nil {
		args = append(args, *filter.BookID)
		query += " AND book_id = $" + strconv.Itoa(len(args))
	}

	stats := &Stats{}
	var avg float64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalViews, &stats.TotalRatings, &stats.TotalWishlists, &avg, &stats.TotalInteractions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	stats.AverageRating = roundToTenth(avg)
	return stats, nil
}

// MostActiveUsers groups interactions by user, sorted by count then recency,
// with user_id as the final tie-break so rankings are deterministic.
func (r *PostgresRepository) MostActiveUsers(ctx context.Context, limit int) ([]*ActiveUserRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*), MAX(created_at)
		FROM interactions
		GROUP BY user_id
		ORDER BY COUNT(*) DESC, MAX(created_at) DESC, user_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var result []*ActiveUserRow
	for rows.Next() {
		var row ActiveUserRow
		if err := rows.Scan(&row.UserID, &row.InteractionCount, &row.LastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan active user: %w", err)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active users: %w", err)
	}
	return result, nil
}

// RatingBreakdown returns the count of rating rows per star value for a book.
func (r *PostgresRepository) RatingBreakdown(ctx context.Context, bookID string) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rating_value, COUNT(*)
		FROM interactions
		WHERE book_id = $1 AND kind = 'rating'
		GROUP BY rating_value
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating breakdown: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var value, count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating breakdown: %w", err)
		}
		counts[value] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating breakdown: %w", err)
	}
	return counts, nil
}
