// Package user provides the minimal user model and repository the interaction
// engine needs: display data for enriching book histories and the activity
// leaderboard. Account management and authentication live elsewhere.
package user

import "time"

// User represents a platform user. The PasswordHash field is never exposed
// through the interaction API; handlers work with Summary instead.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FavoriteGenres []string  `json:"favorite_genres,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary is the restricted view of a user returned alongside interactions.
type Summary struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	FavoriteGenres []string `json:"favorite_genres,omitempty"`
}

// Summary returns the credential-free view of the user.
func (u *User) Summary() *Summary {
	return &Summary{
		ID:             u.ID,
		Username:       u.Username,
		FavoriteGenres: u.FavoriteGenres,
	}
}
