package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aniview/internal/database"
	"aniview/models"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound      = errors.New("watchlist entry not found")
	ErrForbidden          = errors.New("watchlist entry belongs to another profile")
	ErrAnimeNotFound      = errors.New("anime not found")
	ErrAlreadyInWatchlist = errors.New("anime is already in the watchlist")
	ErrAgeRestricted      = errors.New("this content is not available for this profile due to age restrictions")
	ErrInvalidStatus      = errors.New("invalid watch status")
)

type entryStore interface {
	Create(ctx context.Context, e models.WatchlistEntry) error
	GetByID(ctx context.Context, id string) (models.WatchlistEntry, error)
	GetByProfileAndAnime(ctx context.Context, profileID, animeID string) (models.WatchlistEntry, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.WatchlistEntry, error)
	ListByProfileAndStatus(ctx context.Context, profileID string, status models.WatchStatus) ([]models.WatchlistEntry, error)
	ListFavorites(ctx context.Context, profileID string) ([]models.WatchlistEntry, error)
	Update(ctx context.Context, e models.WatchlistEntry) error
	Delete(ctx context.Context, id string) error
	DeleteByProfileAndAnime(ctx context.Context, profileID, animeID string) (bool, error)
}

type animeGetter interface {
	GetByID(ctx context.Context, id string) (models.Anime, error)
}

// Service manages per-profile watchlists. Callers resolve the acting
// profile first; every method trusts the profile it is handed.
type Service struct {
	store  entryStore
	animes animeGetter
}

func NewService(store entryStore, animes animeGetter) *Service {
	return &Service{store: store, animes: animes}
}

// Add puts a title on the profile's watchlist. The profile's rating
// ceiling is enforced before anything is written.
func (s *Service) Add(ctx context.Context, profile models.Profile, animeID string, status models.WatchStatus) (models.WatchlistEntry, error) {
	if status == "" {
		status = models.StatusPlanToWatch
	}
	if !models.ValidWatchStatus(status) {
		return models.WatchlistEntry{}, ErrInvalidStatus
	}

	anime, err := s.animes.GetByID(ctx, animeID)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrAnimeNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("lookup anime: %w", err)
	}

	if !profile.CanAccess(anime.ContentRating) {
		return models.WatchlistEntry{}, ErrAgeRestricted
	}

	if _, err := s.store.GetByProfileAndAnime(ctx, profile.ID, anime.ID); err == nil {
		return models.WatchlistEntry{}, ErrAlreadyInWatchlist
	} else if !errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, fmt.Errorf("check watchlist: %w", err)
	}

	now := time.Now().UTC()
	entry := models.WatchlistEntry{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		AnimeID:   anime.ID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, entry); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.WatchlistEntry{}, ErrAlreadyInWatchlist
		}
		return models.WatchlistEntry{}, fmt.Errorf("create watchlist entry: %w", err)
	}
	return entry, nil
}

// List returns the profile's entries, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, profileID string, status models.WatchStatus) ([]models.WatchlistEntry, error) {
	if status == "" {
		return s.store.ListByProfile(ctx, profileID)
	}
	if !models.ValidWatchStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.store.ListByProfileAndStatus(ctx, profileID, status)
}

// Favorites returns the profile's favorited entries.
func (s *Service) Favorites(ctx context.Context, profileID string) ([]models.WatchlistEntry, error) {
	return s.store.ListFavorites(ctx, profileID)
}

// get loads an entry and verifies it belongs to the profile.
func (s *Service) get(ctx context.Context, entryID, profileID string) (models.WatchlistEntry, error) {
	entry, err := s.store.GetByID(ctx, entryID)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("lookup watchlist entry: %w", err)
	}
	if entry.ProfileID != profileID {
		return models.WatchlistEntry{}, ErrForbidden
	}
	return entry, nil
}

// GetByAnime returns the profile's entry for a specific title.
func (s *Service) GetByAnime(ctx context.Context, profileID, animeID string) (models.WatchlistEntry, error) {
	entry, err := s.store.GetByProfileAndAnime(ctx, profileID, animeID)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	return entry, err
}

// Update applies the non-nil fields of upd to an entry of the profile.
func (s *Service) Update(ctx context.Context, entryID, profileID string, upd models.WatchlistUpdate) (models.WatchlistEntry, error) {
	entry, err := s.get(ctx, entryID, profileID)
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	if upd.Status != nil {
		if !models.ValidWatchStatus(*upd.Status) {
			return models.WatchlistEntry{}, ErrInvalidStatus
		}
		entry.Status = *upd.Status
	}
	if upd.IsFavorite != nil {
		entry.IsFavorite = *upd.IsFavorite
	}
	if upd.Notes != nil {
		entry.Notes = *upd.Notes
	}
	if upd.LastWatched != nil {
		t := upd.LastWatched.UTC()
		entry.LastWatched = &t
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, entry); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.WatchlistEntry{}, ErrEntryNotFound
		}
		return models.WatchlistEntry{}, fmt.Errorf("update watchlist entry: %w", err)
	}
	return entry, nil
}

// SetFavorite sets the favorite flag on an entry of the profile to an
// explicit value, so repeating the same request cannot flip it back.
func (s *Service) SetFavorite(ctx context.Context, entryID, profileID string, favorite bool) (models.WatchlistEntry, error) {
	return s.Update(ctx, entryID, profileID, models.WatchlistUpdate{IsFavorite: &favorite})
}

// Remove deletes an entry of the profile by entry ID.
func (s *Service) Remove(ctx context.Context, entryID, profileID string) error {
	entry, err := s.get(ctx, entryID, profileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, entry.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	return nil
}

// RemoveByAnime deletes the profile's entry for a title if one exists and
// reports whether anything was removed.
func (s *Service) RemoveByAnime(ctx context.Context, profileID, animeID string) (bool, error) {
	return s.store.DeleteByProfileAndAnime(ctx, profileID, animeID)
}

// Stats recomputes the per-status counters for a profile's watchlist.
func (s *Service) Stats(ctx context.Context, profileID string) (models.WatchlistStats, error) {
	entries, err := s.store.ListByProfile(ctx, profileID)
	if err != nil {
		return models.WatchlistStats{}, fmt.Errorf("list watchlist: %w", err)
	}

	var stats models.WatchlistStats
	for _, entry := range entries {
		switch entry.Status {
		case models.StatusPlanToWatch:
			stats.PlanToWatch++
		case models.StatusWatching:
			stats.Watching++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusDropped:
			stats.Dropped++
		}
		if entry.IsFavorite {
			stats.Favorites++
		}
	}
	stats.Total = len(entries)
	return stats, nil
}
