package models

import "time"

// WatchStatus is the viewer-facing state of a watchlist entry. There is no
// transition graph: any status may move to any other.
type WatchStatus string

const (
	StatusPlanToWatch WatchStatus = "plan_to_watch"
	StatusWatching    WatchStatus = "watching"
	StatusCompleted   WatchStatus = "completed"
	StatusDropped     WatchStatus = "dropped"
)

// ValidWatchStatus reports whether s is one of the four known states.
func ValidWatchStatus(s WatchStatus) bool {
	switch s {
	case StatusPlanToWatch, StatusWatching, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// WatchlistEntry links one profile to one anime; the pair is unique.
type WatchlistEntry struct {
	ID          string      `json:"id"`
	ProfileID   string      `json:"profileId"`
	AnimeID     string      `json:"animeId"`
	Status      WatchStatus `json:"status"`
	IsFavorite  bool        `json:"isFavorite"`
	Notes       string      `json:"notes,omitempty"`
	LastWatched *time.Time  `json:"lastWatched,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// WatchlistUpdate is a partial entry patch. Only these fields are patchable;
// anything else in a request body is dropped, not errored.
type WatchlistUpdate struct {
	Status      *WatchStatus `json:"status,omitempty"`
	IsFavorite  *bool        `json:"isFavorite,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
	LastWatched *time.Time   `json:"lastWatched,omitempty"`
}

// WatchlistStats is recomputed from a full scan of the profile's entries;
// there is no stored aggregate.
type WatchlistStats struct {
	PlanToWatch int `json:"plan_to_watch"`
	Watching    int `json:"watching"`
	Completed   int `json:"completed"`
	Dropped     int `json:"dropped"`
	Total       int `json:"total"`
	Favorites   int `json:"favorites"`
}
