package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aniview/internal/database"
	"aniview/models"

	"github.com/google/uuid"
)

var (
	ErrAnimeNotFound  = errors.New("anime not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidRating  = errors.New("invalid content rating")
	ErrInvalidStatus  = errors.New("invalid airing status")
	ErrDuplicateTitle = errors.New("a title with this name already exists")
	ErrAccessDenied   = errors.New("this content is not available for this profile due to age restrictions")
)

type animeStore interface {
	Create(ctx context.Context, a models.Anime) error
	GetByID(ctx context.Context, id string) (models.Anime, error)
	GetByExternalID(ctx context.Context, externalID string) (models.Anime, error)
	Update(ctx context.Context, a models.Anime) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AnimeFilter, opts models.ListOptions) ([]models.Anime, int, error)
	Random(ctx context.Context, filter models.AnimeFilter, limit int) ([]models.Anime, error)
	Genres(ctx context.Context) ([]string, error)
}

type watchlistCleaner interface {
	DeleteByAnime(ctx context.Context, animeID string) error
}

// Service manages the title catalog and the external import path.
type Service struct {
	store     animeStore
	watchlist watchlistCleaner
	external  *jikanClient
	logger    *slog.Logger
}

// Options configures the catalog service.
type Options struct {
	ExternalBaseURL string
	RequestTimeout  time.Duration
}

func NewService(store animeStore, watchlist watchlistCleaner, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		watchlist: watchlist,
		external:  newJikanClient(opts.ExternalBaseURL, opts.RequestTimeout),
		logger:    logger,
	}
}

// CreateParams carries the fields accepted when adding a title.
type CreateParams struct {
	Title         string               `json:"title"`
	ImageURL      string               `json:"imageUrl"`
	Synopsis      string               `json:"synopsis"`
	Genres        []string             `json:"genres"`
	Rating        float64              `json:"rating"`
	SeasonCount   int                  `json:"seasonCount"`
	EpisodeCount  int                  `json:"episodeCount"`
	Status        models.AnimeStatus   `json:"status"`
	ReleaseYear   int                  `json:"releaseYear"`
	Studio        string               `json:"studio"`
	ContentRating models.ContentRating `json:"contentRating"`
	ExternalID    string               `json:"externalId"`
}

// Create validates and stores a new title. Unknown content ratings are
// rejected here so that reads never have to guess.
func (s *Service) Create(ctx context.Context, params CreateParams) (models.Anime, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Anime{}, ErrTitleRequired
	}

	contentRating := params.ContentRating
	if contentRating == "" {
		contentRating = models.RatingPG13
	}
	if !models.ValidRating(contentRating) {
		return models.Anime{}, ErrInvalidRating
	}

	status := params.Status
	if status == "" {
		status = models.StatusFinished
	}
	if !models.ValidAnimeStatus(status) {
		return models.Anime{}, ErrInvalidStatus
	}

	seasonCount := params.SeasonCount
	if seasonCount <= 0 {
		seasonCount = 1
	}
	episodeCount := params.EpisodeCount
	if episodeCount <= 0 {
		episodeCount = 1
	}

	now := time.Now().UTC()
	anime := models.Anime{
		ID:            uuid.NewString(),
		Title:         title,
		ImageURL:      params.ImageURL,
		Synopsis:      params.Synopsis,
		Genres:        params.Genres,
		Rating:        params.Rating,
		SeasonCount:   seasonCount,
		EpisodeCount:  episodeCount,
		Status:        status,
		ReleaseYear:   params.ReleaseYear,
		Studio:        params.Studio,
		ContentRating: contentRating,
		ExternalID:    strings.TrimSpace(params.ExternalID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, anime); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Anime{}, ErrDuplicateTitle
		}
		return models.Anime{}, fmt.Errorf("create anime: %w", err)
	}
	return anime, nil
}

// Get returns one title without any profile gating.
func (s *Service) Get(ctx context.Context, id string) (models.Anime, error) {
	anime, err := s.store.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Anime{}, ErrAnimeNotFound
	}
	return anime, err
}

// GetForProfile returns one title, refusing when its content rating sits
// above the profile's ceiling.
func (s *Service) GetForProfile(ctx context.Context, id string, profile models.Profile) (models.Anime, error) {
	anime, err := s.Get(ctx, id)
	if err != nil {
		return models.Anime{}, err
	}
	if !profile.CanAccess(anime.ContentRating) {
		return models.Anime{}, ErrAccessDenied
	}
	return anime, nil
}

// Update applies the non-nil fields of upd to an existing title.
func (s *Service) Update(ctx context.Context, id string, upd models.AnimeUpdate) (models.Anime, error) {
	anime, err := s.Get(ctx, id)
	if err != nil {
		return models.Anime{}, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return models.Anime{}, ErrTitleRequired
		}
		anime.Title = title
	}
	if upd.ImageURL != nil {
		anime.ImageURL = *upd.ImageURL
	}
	if upd.Synopsis != nil {
		anime.Synopsis = *upd.Synopsis
	}
	if upd.Genres != nil {
		anime.Genres = *upd.Genres
	}
	if upd.Rating != nil {
		anime.Rating = *upd.Rating
	}
	if upd.SeasonCount != nil {
		anime.SeasonCount = *upd.SeasonCount
	}
	if upd.EpisodeCount != nil {
		anime.EpisodeCount = *upd.EpisodeCount
	}
	if upd.Status != nil {
		if !models.ValidAnimeStatus(*upd.Status) {
			return models.Anime{}, ErrInvalidStatus
		}
		anime.Status = *upd.Status
	}
	if upd.ReleaseYear != nil {
		anime.ReleaseYear = *upd.ReleaseYear
	}
	if upd.Studio != nil {
		anime.Studio = *upd.Studio
	}
	if upd.ContentRating != nil {
		if !models.ValidRating(*upd.ContentRating) {
			return models.Anime{}, ErrInvalidRating
		}
		anime.ContentRating = *upd.ContentRating
	}
	anime.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, anime); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Anime{}, ErrDuplicateTitle
		}
		return models.Anime{}, fmt.Errorf("update anime: %w", err)
	}
	return anime, nil
}

// Delete removes a title and any watchlist entries referencing it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrAnimeNotFound
		}
		return fmt.Errorf("delete anime: %w", err)
	}
	if err := s.watchlist.DeleteByAnime(ctx, id); err != nil {
		s.logger.Warn("watchlist cleanup failed", "anime_id", id, "error", err)
	}
	return nil
}

// List returns a filtered page of titles plus pagination metadata.
func (s *Service) List(ctx context.Context, filter models.AnimeFilter, opts models.ListOptions) ([]models.Anime, models.Pagination, error) {
	animes, total, err := s.store.List(ctx, filter, opts)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return animes, models.NewPagination(total, opts.Skip, opts.Limit), nil
}

// Genres lists every distinct genre present in the catalog.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	return s.store.Genres(ctx)
}

// Random samples titles for discovery rows. When a profile is supplied the
// sample is restricted to ratings the profile may watch.
func (s *Service) Random(ctx context.Context, limit int, profile *models.Profile) ([]models.Anime, error) {
	if limit <= 0 {
		limit = 10
	}
	var filter models.AnimeFilter
	if profile != nil {
		filter.Ratings = models.AllowedRatings(profile.MaxContentRating)
	}
	return s.store.Random(ctx, filter, limit)
}

// SearchExternal queries the external catalog without persisting anything.
func (s *Service) SearchExternal(ctx context.Context, query string, limit int) ([]models.Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return s.external.Search(ctx, query, limit)
}

// ImportExternal pulls one title from the external catalog into the store.
// Importing the same external ID twice returns the already stored title.
func (s *Service) ImportExternal(ctx context.Context, externalID string) (models.Anime, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return models.Anime{}, ErrAnimeNotFound
	}

	if existing, err := s.store.GetByExternalID(ctx, externalID); err == nil {
		return existing, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return models.Anime{}, fmt.Errorf("lookup external id: %w", err)
	}

	fetched, err := s.external.GetByID(ctx, externalID)
	if err != nil {
		return models.Anime{}, fmt.Errorf("fetch external title: %w", err)
	}

	now := time.Now().UTC()
	fetched.ID = uuid.NewString()
	fetched.CreatedAt = now
	fetched.UpdatedAt = now

	if err := s.store.Create(ctx, fetched); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// Lost the race against a concurrent import or a manual add
			// with the same title. Return whatever landed first.
			if existing, lookupErr := s.store.GetByExternalID(ctx, externalID); lookupErr == nil {
				return existing, nil
			}
			return models.Anime{}, ErrDuplicateTitle
		}
		return models.Anime{}, fmt.Errorf("store imported title: %w", err)
	}

	s.logger.Info("imported title", "external_id", externalID, "title", fetched.Title)
	return fetched, nil
}
