package models

import "time"

// AnimeStatus is the airing state of a catalog entry.
type AnimeStatus string

const (
	StatusAiring    AnimeStatus = "airing"
	StatusFinished  AnimeStatus = "finished"
	StatusAnnounced AnimeStatus = "announced"
	StatusOnHiatus  AnimeStatus = "on_hiatus"
)

// ValidAnimeStatus reports whether s is one of the known airing states.
func ValidAnimeStatus(s AnimeStatus) bool {
	switch s {
	case StatusAiring, StatusFinished, StatusAnnounced, StatusOnHiatus:
		return true
	}
	return false
}

// Anime is a catalog entry. Titles are globally unique; ExternalID is the
// MyAnimeList identifier and is unique when present (import idempotence).
type Anime struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Synopsis      string        `json:"synopsis,omitempty"`
	Genres        []string      `json:"genres"`
	Rating        float64       `json:"rating"` // aggregate score 0..10
	SeasonCount   int           `json:"seasonCount"`
	EpisodeCount  int           `json:"episodeCount"`
	Status        AnimeStatus   `json:"status"`
	ReleaseYear   int           `json:"releaseYear,omitempty"`
	Studio        string        `json:"studio,omitempty"`
	ContentRating ContentRating `json:"contentRating"`
	ExternalID    string        `json:"externalId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// AnimeUpdate is a partial catalog patch. Nil fields are left untouched.
type AnimeUpdate struct {
	Title         *string        `json:"title,omitempty"`
	ImageURL      *string        `json:"imageUrl,omitempty"`
	Synopsis      *string        `json:"synopsis,omitempty"`
	Genres        *[]string      `json:"genres,omitempty"`
	Rating        *float64       `json:"rating,omitempty"`
	SeasonCount   *int           `json:"seasonCount,omitempty"`
	EpisodeCount  *int           `json:"episodeCount,omitempty"`
	Status        *AnimeStatus   `json:"status,omitempty"`
	ReleaseYear   *int           `json:"releaseYear,omitempty"`
	Studio        *string        `json:"studio,omitempty"`
	ContentRating *ContentRating `json:"contentRating,omitempty"`
}
