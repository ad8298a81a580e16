// Package book provides the catalog book model and repository used by the
// interaction engine. Only the summary fields (average rating, rating count,
// view count) are owned by this service; the rest of the catalog record is
// read-only reference data.
package book

import "time"

// Book represents a catalog book together with its derived summary statistics.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genres      []string `json:"genres,omitempty"`
	Description string   `json:"description,omitempty"`

	// Derived summary, maintained by the interaction engine.
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
	ViewCount     int64   `json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
