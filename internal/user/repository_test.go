package user

import (
	"context"
	"errors"
	"testing"
)

func TestInsert_AssignsID(t *testing.T) {
	repo := NewInMemoryRepository()

	u := &User{Username: "alice", Email: "alice@example.com"}
	if err := repo.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if u.ID == "" {
		t.Error("Insert() did not assign an ID")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestSummariesByIDs(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, u := range []*User{
		{ID: "u1", Username: "alice", FavoriteGenres: []string{"sci-fi"}},
		{ID: "u2", Username: "bob"},
	} {
		if err := repo.Insert(ctx, u); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	summaries, err := repo.SummariesByIDs(ctx, []string{"u1", "u2", "ghost"})
	if err != nil {
		t.Fatalf("SummariesByIDs() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 (missing IDs omitted)", len(summaries))
	}
	if summaries["u1"].Username != "alice" {
		t.Errorf("u1 username = %q, want alice", summaries["u1"].Username)
	}
	if _, ok := summaries["ghost"]; ok {
		t.Error("unknown ID present in summaries")
	}
}

func TestSummary_OmitsCredentials(t *testing.T) {
	u := &User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "bcrypt-hash",
	}

	s := u.Summary()
	if s.ID != "u1" || s.Username != "alice" {
		t.Errorf("Summary() = %+v, want ID and Username carried over", s)
	}
}
