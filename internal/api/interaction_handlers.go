package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/onnwee/bookden/internal/book"
	"github.com/onnwee/bookden/internal/interaction"
	"github.com/onnwee/bookden/internal/middleware"
	"github.com/onnwee/bookden/internal/validate"
)

// RecordInteractionRequest is the request body for POST /interactions.
// The acting user always comes from the access token, never the body.
type RecordInteractionRequest struct {
	BookID      string `json:"book_id"`
	Kind        string `json:"kind"`
	RatingValue *int   `json:"rating_value,omitempty"`
	TimeOnPage  *int   `json:"time_on_page,omitempty"`
	SessionID   string `json:"session_id"`
}

// RecordViewRequest is the request body for the convenience view endpoint.
// All fields are optional; missing values get defaults.
type RecordViewRequest struct {
	TimeOnPage *int   `json:"time_on_page,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// RecordRatingRequest is the request body for the convenience rating endpoint.
type RecordRatingRequest struct {
	RatingValue *int   `json:"rating_value"`
	SessionID   string `json:"session_id,omitempty"`
}

// RecordWishlistRequest is the request body for the convenience wishlist endpoint.
type RecordWishlistRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// HistoryResponse is the data payload for paginated history endpoints.
type HistoryResponse struct {
	Interactions interface{}             `json:"interactions"`
	Pagination   *interaction.Pagination `json:"pagination"`
}

// BreakdownResponse is the data payload for the rating breakdown endpoint.
type BreakdownResponse struct {
	BookID       string      `json:"book_id"`
	Breakdown    map[int]int `json:"breakdown"`
	TotalReviews int         `json:"total_reviews"`
}

// DefaultViewTimeOnPage is the assumed time on page, in seconds, when the
// convenience view endpoint is called without one.
const DefaultViewTimeOnPage = 30

// InteractionHandlers holds dependencies for interaction HTTP handlers.
type InteractionHandlers struct {
	service *interaction.Service

	// devMode appends underlying error detail to internal_error responses.
	// Never enabled in production.
	devMode bool
}

// NewInteractionHandlers creates a new InteractionHandlers instance.
func NewInteractionHandlers(service *interaction.Service, devMode bool) *InteractionHandlers {
	return &InteractionHandlers{service: service, devMode: devMode}
}

// internalError writes an internal_error response, including the underlying
// error message only in development mode.
func (h *InteractionHandlers) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	if h.devMode && err != nil {
		message = message + ": " + err.Error()
	}
	WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, message)
}

// syntheticSessionID builds a session identifier for clients that do not
// track their own sessions.
func syntheticSessionID(userID string) string {
	return fmt.Sprintf("session_%d_%s", time.Now().Unix(), userID)
}

// writeRecordError maps a Record failure to the right error response.
func (h *InteractionHandlers) writeRecordError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, book.ErrBookNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Book not found")
	case errors.Is(err, interaction.ErrMissingUserID),
		errors.Is(err, interaction.ErrMissingBookID),
		errors.Is(err, interaction.ErrUnknownKind),
		errors.Is(err, interaction.ErrMissingSessionID),
		errors.Is(err, interaction.ErrMissingRatingValue),
		errors.Is(err, interaction.ErrRatingOutOfRange),
		errors.Is(err, interaction.ErrMissingTimeOnPage),
		errors.Is(err, interaction.ErrNegativeTimeOnPage):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		h.internalError(w, r, "Failed to record interaction", err)
	}
}

// requireUserID extracts the authenticated user ID or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return "", false
	}
	return userID, true
}

// pathBookID extracts and validates the bookId path segment.
func pathBookID(w http.ResponseWriter, r *http.Request) (string, bool) {
	bookID, err := validate.ID(r.PathValue("bookId"))
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidID, "Invalid book ID")
		return "", false
	}
	return bookID, true
}

// pagingParams parses page and limit query parameters, leaving range
// enforcement to the service.
func pagingParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// Record handles POST /interactions - records one interaction of any kind.
func (h *InteractionHandlers) Record(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req RecordInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	sessionID := req.SessionID
	if sessionID != "" {
		var err error
		if sessionID, err = validate.SessionID(sessionID); err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Invalid session ID")
			return
		}
	}

	// Reject malformed book IDs before touching the store; an absent ID
	// still falls through to kind validation.
	bookID := req.BookID
	if bookID != "" {
		var err error
		if bookID, err = validate.ID(bookID); err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidID, "Invalid book ID")
			return
		}
	}

	i, err := h.service.Record(r.Context(), interaction.RecordRequest{
		UserID:      userID,
		BookID:      bookID,
		Kind:        interaction.Kind(req.Kind),
		RatingValue: req.RatingValue,
		TimeOnPage:  req.TimeOnPage,
		SessionID:   sessionID,
	})
	if err != nil {
		h.writeRecordError(w, r, err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusCreated, "Interaction recorded successfully", i)
}

// RecordView handles POST /interactions/books/{bookId}/view - convenience
// endpoint for recording a view with defaults filled in.
func (h *InteractionHandlers) RecordView(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID, ok := pathBookID(w, r)
	if !ok {
		return
	}

	// Body is optional on this endpoint.
	var req RecordViewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	timeOnPage := DefaultViewTimeOnPage
	if req.TimeOnPage != nil {
		timeOnPage = *req.TimeOnPage
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = syntheticSessionID(userID)
	}

	i, err := h.service.Record(r.Context(), interaction.RecordRequest{
		UserID:     userID,
		BookID:     bookID,
		Kind:       interaction.KindView,
		TimeOnPage: &timeOnPage,
		SessionID:  sessionID,
	})
	if err != nil {
		h.writeRecordError(w, r, err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusCreated, "View recorded successfully", i)
}

// RecordRating handles POST /interactions/books/{bookId}/rate - convenience
// endpoint for submitting or replacing the caller's rating.
func (h *InteractionHandlers) RecordRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID, ok := pathBookID(w, r)
	if !ok {
		return
	}

	var req RecordRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = syntheticSessionID(userID)
	}

	i, err := h.service.Record(r.Context(), interaction.RecordRequest{
		UserID:      userID,
		BookID:      bookID,
		Kind:        interaction.KindRating,
		RatingValue: req.RatingValue,
		SessionID:   sessionID,
	})
	if err != nil {
		h.writeRecordError(w, r, err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusCreated, "Rating recorded successfully", i)
}

// RecordWishlist handles POST /interactions/books/{bookId}/wishlist -
// convenience endpoint for adding a book to the caller's wishlist.
func (h *InteractionHandlers) RecordWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID, ok := pathBookID(w, r)
	if !ok {
		return
	}

	var req RecordWishlistRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = syntheticSessionID(userID)
	}

	i, err := h.service.Record(r.Context(), interaction.RecordRequest{
		UserID:    userID,
		BookID:    bookID,
		Kind:      interaction.KindWishlist,
		SessionID: sessionID,
	})
	if err != nil {
		h.writeRecordError(w, r, err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusCreated, "Added to wishlist successfully", i)
}

// UserHistory handles GET /interactions/user - the caller's paginated
// interaction history, newest-first, enriched with book data.
func (h *InteractionHandlers) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, limit := pagingParams(r)
	items, pagination, err := h.service.ListUserInteractions(r.Context(), userID, page, limit)
	if err != nil {
		h.internalError(w, r, "Failed to load interaction history", err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusOK, "User interactions retrieved successfully", HistoryResponse{
		Interactions: items,
		Pagination:   pagination,
	})
}

// BookHistory handles GET /interactions/book/{bookId} - a book's paginated
// interaction history, newest-first, enriched with restricted user data.
func (h *InteractionHandlers) BookHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	bookID, ok := pathBookID(w, r)
	if !ok {
		return
	}

	page, limit := pagingParams(r)
	items, pagination, err := h.service.ListBookInteractions(r.Context(), bookID, page, limit)
	if err != nil {
		h.internalError(w, r, "Failed to load book interactions", err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusOK, "Book interactions retrieved successfully", HistoryResponse{
		Interactions: items,
		Pagination:   pagination,
	})
}

// Stats handles GET /interactions/stats - scalar aggregates, optionally
// filtered by user_id and/or book_id query parameters.
func (h *InteractionHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var filter interaction.StatsFilter
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := validate.ID(raw)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidID, "Invalid user ID")
			return
		}
		filter.UserID = &id
	}
	if raw := r.URL.Query().Get("book_id"); raw != "" {
		id, err := validate.ID(raw)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidID, "Invalid book ID")
			return
		}
		filter.BookID = &id
	}

	stats, err := h.service.GetStats(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, "Failed to aggregate stats", err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusOK, "Interaction stats retrieved successfully", stats)
}

// ActiveUsers handles GET /interactions/active-users - the most-active-users
// leaderboard, ranked by interaction count.
func (h *InteractionHandlers) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.service.GetMostActiveUsers(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, "Failed to load active users", err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusOK, "Most active users retrieved successfully", users)
}

// RatingBreakdown handles GET /interactions/breakdown/{bookId} - the per-star
// rating distribution for a book. This endpoint is public.
func (h *InteractionHandlers) RatingBreakdown(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathBookID(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.GetRatingBreakdown(r.Context(), bookID)
	if err != nil {
		h.internalError(w, r, "Failed to load rating breakdown", err)
		return
	}

	WriteSuccess(w, r.Context(), http.StatusOK, "Rating breakdown retrieved successfully", BreakdownResponse{
		BookID:       bookID,
		Breakdown:    breakdown.Counts,
		TotalReviews: breakdown.TotalReviews,
	})
}
