// Package main is the entry point for the database seeder. It loads a small
// catalog of books and a handful of users so the API has data to work with in
// development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/onnwee/bookden/internal/book"
	"github.com/onnwee/bookden/internal/db"
	"github.com/onnwee/bookden/internal/middleware"
	"github.com/onnwee/bookden/internal/user"
	"github.com/onnwee/bookden/internal/validate"
)

var seedBooks = []book.Book{
	{Title: "The Name of the Wind", Author: "Patrick Rothfuss", Genres: []string{"fantasy"}, Description: "A young man grows to be the most notorious wizard his world has ever seen."},
	{Title: "Dune", Author: "Frank Herbert", Genres: []string{"science fiction"}, Description: "A noble family becomes embroiled in a war for control over the galaxy's most valuable asset."},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genres: []string{"classic", "romance"}, Description: "The turbulent relationship between Elizabeth Bennet and Fitzwilliam Darcy."},
	{Title: "The Martian", Author: "Andy Weir", Genres: []string{"science fiction"}, Description: "An astronaut stranded on Mars fights to survive."},
	{Title: "Gone Girl", Author: "Gillian Flynn", Genres: []string{"thriller", "mystery"}, Description: "A woman disappears on her fifth wedding anniversary."},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genres: []string{"fantasy"}, Description: "Bilbo Baggins is swept into a quest to reclaim the lost Dwarf Kingdom."},
	{Title: "Educated", Author: "Tara Westover", Genres: []string{"memoir"}, Description: "A woman who leaves her survivalist family and goes on to earn a PhD."},
	{Title: "The Silent Patient", Author: "Alex Michaelides", Genres: []string{"thriller"}, Description: "A woman shoots her husband and then never speaks another word."},
	{Title: "Circe", Author: "Madeline Miller", Genres: []string{"fantasy", "mythology"}, Description: "The story of the witch Circe, banished to a deserted island."},
	{Title: "Project Hail Mary", Author: "Andy Weir", Genres: []string{"science fiction"}, Description: "A lone astronaut must save the earth from disaster."},
}

var seedUsers = []user.User{
	{Username: "alice", Email: "alice@example.com", FavoriteGenres: []string{"fantasy", "science fiction"}},
	{Username: "bob", Email: "bob@example.com", FavoriteGenres: []string{"thriller"}},
	{Username: "carol", Email: "carol@example.com", FavoriteGenres: []string{"classic", "memoir"}},
}

func main() {
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Bookden Database Seeder")
		fmt.Println()
		fmt.Println("Usage: seed [options]")
		fmt.Println()
		fmt.Println("Requires DATABASE_URL to point at a migrated database.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	logger := middleware.NewLogger(os.Getenv("ENV"))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	books := book.NewPostgresRepository(sqlDB)
	for i := range seedBooks {
		b := seedBooks[i]
		title, err := validate.BookTitle(b.Title)
		if err != nil {
			logger.Error("invalid book title in seed data", "title", b.Title, "error", err)
			os.Exit(1)
		}
		b.Title = title
		if err := books.Insert(ctx, &b); err != nil {
			logger.Error("failed to insert book", "title", b.Title, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded book", "id", b.ID, "title", b.Title)
	}

	users := user.NewPostgresRepository(sqlDB)
	for i := range seedUsers {
		u := seedUsers[i]
		username, err := validate.Username(u.Username)
		if err != nil {
			logger.Error("invalid username in seed data", "username", u.Username, "error", err)
			os.Exit(1)
		}
		u.Username = username
		if err := users.Insert(ctx, &u); err != nil {
			logger.Error("failed to insert user", "username", u.Username, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded user", "id", u.ID, "username", u.Username)
	}

	logger.Info("seeding complete", "books", len(seedBooks), "users", len(seedUsers))
}
