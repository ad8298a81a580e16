//go:build integration

package interaction

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// setupTestDB connects to the DATABASE_URL database and empties the tables
// the tests write to. Requires the migrations to have been applied.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	truncate := func() {
		_, _ = db.Exec("DELETE FROM interactions")
		_, _ = db.Exec("DELETE FROM books")
		_, _ = db.Exec("DELETE FROM users")
	}
	truncate()

	cleanup := func() {
		truncate()
		db.Close()
	}
	return db, cleanup
}

func seedTestBook(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO books (id, title, author, created_at, updated_at)
		VALUES ($1, 'Test Book', 'Test Author', NOW(), NOW())
	`, id)
	if err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
}

// TestPostgresRepository_UpsertRating_InsertPath verifies the first rating
// for a (user, book) pair reports Inserted.
func TestPostgresRepository_UpsertRating_InsertPath(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedTestBook(t, db, "00000000-0000-0000-0000-000000000001")
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	result, err := repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000aa", "00000000-0000-0000-0000-000000000001", 4))
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	if !result.Inserted {
		t.Error("UpsertRating() Inserted = false, want true")
	}
	if result.Interaction.ID == "" {
		t.Error("UpsertRating() returned empty ID")
	}
}

// TestPostgresRepository_UpsertRating_UpdatePath verifies a resubmission
// overwrites the existing row instead of adding a second one.
func TestPostgresRepository_UpsertRating_UpdatePath(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookID := "00000000-0000-0000-0000-000000000001"
	userID := "00000000-0000-0000-0000-0000000000aa"
	seedTestBook(t, db, bookID)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	first, err := repo.UpsertRating(ctx, newRating(userID, bookID, 2))
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	second, err := repo.UpsertRating(ctx, newRating(userID, bookID, 5))
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	if second.Inserted {
		t.Error("UpsertRating() Inserted = true, want false on resubmission")
	}
	if second.Interaction.ID != first.Interaction.ID {
		t.Errorf("UpsertRating() reused row = %s, want %s", second.Interaction.ID, first.Interaction.ID)
	}

	values, err := repo.RatingValues(ctx, bookID)
	if err != nil {
		t.Fatalf("RatingValues() error = %v", err)
	}
	if len(values) != 1 || values[0] != 5 {
		t.Errorf("RatingValues() = %v, want [5]", values)
	}
}

// TestPostgresRepository_Stats verifies the single-pass aggregate.
func TestPostgresRepository_Stats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookID := "00000000-0000-0000-0000-000000000001"
	seedTestBook(t, db, bookID)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	if err := repo.Insert(ctx, newView("00000000-0000-0000-0000-0000000000aa", bookID, 30)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000aa", bookID, 3)); err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	if _, err := repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000bb", bookID, 4)); err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}

	stats, err := repo.Stats(ctx, StatsFilter{BookID: &bookID})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalViews != 1 || stats.TotalRatings != 2 || stats.TotalInteractions != 3 {
		t.Errorf("Stats() = %+v, want views=1 ratings=2 total=3", stats)
	}
	if stats.AverageRating != 3.5 {
		t.Errorf("Stats() AverageRating = %v, want 3.5", stats.AverageRating)
	}
}

// TestPostgresRepository_ListByBook_Pagination verifies ordering and paging.
func TestPostgresRepository_ListByBook_Pagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookID := "00000000-0000-0000-0000-000000000001"
	seedTestBook(t, db, bookID)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Insert(ctx, newView("00000000-0000-0000-0000-0000000000aa", bookID, 30)); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	rows, total, err := repo.ListByBook(ctx, bookID, 2, 2)
	if err != nil {
		t.Fatalf("ListByBook() error = %v", err)
	}
	if total != 5 {
		t.Errorf("ListByBook() total = %d, want 5", total)
	}
	if len(rows) != 2 {
		t.Errorf("ListByBook() returned %d rows, want 2", len(rows))
	}
}

// TestPostgresRepository_RatingBreakdown verifies per-star grouping.
func TestPostgresRepository_RatingBreakdown(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookID := "00000000-0000-0000-0000-000000000001"
	seedTestBook(t, db, bookID)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000aa", bookID, 5))
	repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000bb", bookID, 5))
	repo.UpsertRating(ctx, newRating("00000000-0000-0000-0000-0000000000cc", bookID, 1))

	counts, err := repo.RatingBreakdown(ctx, bookID)
	if err != nil {
		t.Fatalf("RatingBreakdown() error = %v", err)
	}
	if counts[5] != 2 || counts[1] != 1 {
		t.Errorf("RatingBreakdown() = %v, want 5->2 and 1->1", counts)
	}
}
