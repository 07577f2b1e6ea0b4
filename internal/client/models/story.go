// Package models defines client-side data models used by the UStory client:
// server-acknowledged stories, pending (offline) writes, and favorites.
package models

import "time"

// Story is a confirmed, server-acknowledged story as cached locally.
type Story struct {
	// ID is the server-assigned identifier and primary key.
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`

	// Lat and Lon are nil when the story has no location.
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Favorite is a user-pinned copy of a Story. It lives in its own collection
// and is never refreshed from the stories collection.
type Favorite Story

const (
	DefaultFavoriteName = "Anonim"
)

// NormalizeFavorite fills the documented defaults for missing fields:
// name → "Anonim", createdAt → now. Description, photo URL and coordinates
// already default to their zero values (empty string / nil).
func NormalizeFavorite(f Favorite, now time.Time) Favorite {
	if f.Name == "" {
		f.Name = DefaultFavoriteName
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now.UTC()
	}
	return f
}

// Float returns a pointer to v. Handy for optional coordinates.
func Float(v float64) *float64 {
	return &v
}
