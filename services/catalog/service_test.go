package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aniview/internal/database"
	"aniview/models"
	"aniview/services/catalog"
)

type memAnimeStore struct {
	items      map[string]models.Anime
	lastFilter models.AnimeFilter
}

func newMemAnimeStore() *memAnimeStore {
	return &memAnimeStore{items: make(map[string]models.Anime)}
}

func (s *memAnimeStore) Create(_ context.Context, a models.Anime) error {
	for _, existing := range s.items {
		if existing.Title == a.Title {
			return database.ErrDuplicate
		}
		if a.ExternalID != "" && existing.ExternalID == a.ExternalID {
			return database.ErrDuplicate
		}
	}
	s.items[a.ID] = a
	return nil
}

func (s *memAnimeStore) GetByID(_ context.Context, id string) (models.Anime, error) {
	a, ok := s.items[id]
	if !ok {
		return models.Anime{}, database.ErrNotFound
	}
	return a, nil
}

func (s *memAnimeStore) GetByExternalID(_ context.Context, externalID string) (models.Anime, error) {
	for _, a := range s.items {
		if a.ExternalID == externalID {
			return a, nil
		}
	}
	return models.Anime{}, database.ErrNotFound
}

func (s *memAnimeStore) Update(_ context.Context, a models.Anime) error {
	if _, ok := s.items[a.ID]; !ok {
		return database.ErrNotFound
	}
	s.items[a.ID] = a
	return nil
}

func (s *memAnimeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memAnimeStore) List(_ context.Context, filter models.AnimeFilter, _ models.ListOptions) ([]models.Anime, int, error) {
	s.lastFilter = filter
	var out []models.Anime
	for _, a := range s.items {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s *memAnimeStore) Random(_ context.Context, filter models.AnimeFilter, limit int) ([]models.Anime, error) {
	s.lastFilter = filter
	var out []models.Anime
	for _, a := range s.items {
		if len(out) >= limit {
			break
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memAnimeStore) Genres(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range s.items {
		for _, g := range a.Genres {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out, nil
}

type noopCleaner struct {
	cleaned []string
}

func (c *noopCleaner) DeleteByAnime(_ context.Context, animeID string) error {
	c.cleaned = append(c.cleaned, animeID)
	return nil
}

func newTestService(externalURL string) (*catalog.Service, *memAnimeStore, *noopCleaner) {
	store := newMemAnimeStore()
	cleaner := &noopCleaner{}
	svc := catalog.NewService(store, cleaner, catalog.Options{ExternalBaseURL: externalURL}, nil)
	return svc, store, cleaner
}

func TestCreateValidatesAndDefaults(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()

	if _, err := svc.Create(ctx, catalog.CreateParams{}); !errors.Is(err, catalog.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	if _, err := svc.Create(ctx, catalog.CreateParams{Title: "X", ContentRating: "TV-MA"}); !errors.Is(err, catalog.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}

	if _, err := svc.Create(ctx, catalog.CreateParams{Title: "X", Status: "paused"}); !errors.Is(err, catalog.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	anime, err := svc.Create(ctx, catalog.CreateParams{Title: "Quiet Town"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if anime.ContentRating != models.RatingPG13 {
		t.Fatalf("expected PG-13 default, got %q", anime.ContentRating)
	}
	if anime.Status != models.StatusFinished {
		t.Fatalf("expected finished default, got %q", anime.Status)
	}
	if anime.SeasonCount != 1 || anime.EpisodeCount != 1 {
		t.Fatalf("expected season/episode defaults of 1, got %d/%d", anime.SeasonCount, anime.EpisodeCount)
	}

	if _, err := svc.Create(ctx, catalog.CreateParams{Title: "Quiet Town"}); !errors.Is(err, catalog.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
}

func TestGetForProfileGatesOnRating(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()

	anime, err := svc.Create(ctx, catalog.CreateParams{Title: "Rough Show", ContentRating: models.RatingR})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	kid := models.Profile{ID: "p1", MaxContentRating: models.RatingPG}
	if _, err := svc.GetForProfile(ctx, anime.ID, kid); !errors.Is(err, catalog.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	adult := models.Profile{ID: "p2", MaxContentRating: models.RatingNC17}
	got, err := svc.GetForProfile(ctx, anime.ID, adult)
	if err != nil {
		t.Fatalf("adult read returned error: %v", err)
	}
	if got.ID != anime.ID {
		t.Fatalf("expected %q, got %q", anime.ID, got.ID)
	}
}

func TestRandomAppliesProfileCeiling(t *testing.T) {
	svc, store, _ := newTestService("")

	profile := models.Profile{ID: "p1", MaxContentRating: models.RatingPG13}
	if _, err := svc.Random(context.Background(), 5, &profile); err != nil {
		t.Fatalf("random returned error: %v", err)
	}

	want := []models.ContentRating{models.RatingG, models.RatingPG, models.RatingPG13}
	if len(store.lastFilter.Ratings) != len(want) {
		t.Fatalf("expected rating filter %v, got %v", want, store.lastFilter.Ratings)
	}
	for i := range want {
		if store.lastFilter.Ratings[i] != want[i] {
			t.Fatalf("expected rating filter %v, got %v", want, store.lastFilter.Ratings)
		}
	}
}

func TestDeleteCleansWatchlistReferences(t *testing.T) {
	svc, _, cleaner := newTestService("")
	ctx := context.Background()

	anime, err := svc.Create(ctx, catalog.CreateParams{Title: "Short Run"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if err := svc.Delete(ctx, anime.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(cleaner.cleaned) != 1 || cleaner.cleaned[0] != anime.ID {
		t.Fatalf("expected watchlist cleanup for %q, got %v", anime.ID, cleaner.cleaned)
	}

	if err := svc.Delete(ctx, anime.ID); !errors.Is(err, catalog.ErrAnimeNotFound) {
		t.Fatalf("expected ErrAnimeNotFound, got %v", err)
	}
}

const externalDetailBody = `{
	"data": {
		"mal_id": 21,
		"title": "Sea Voyage",
		"synopsis": "A long trip.",
		"episodes": 0,
		"status": "Currently Airing",
		"rating": "PG-13 - Teens 13 or older",
		"score": 8.7,
		"year": 1999,
		"images": {"jpg": {"large_image_url": "https://img.example/21l.jpg", "image_url": "https://img.example/21.jpg"}},
		"genres": [{"name": "Action"}, {"name": "Adventure"}],
		"studios": [{"name": "Toei Animation"}]
	}
}`

func TestImportExternal(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(externalDetailBody))
	}))
	defer server.Close()

	svc, store, _ := newTestService(server.URL)
	ctx := context.Background()

	imported, err := svc.ImportExternal(ctx, "21")
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if imported.Title != "Sea Voyage" {
		t.Fatalf("expected mapped title, got %q", imported.Title)
	}
	if imported.Status != models.StatusAiring {
		t.Fatalf("expected airing status, got %q", imported.Status)
	}
	if imported.ContentRating != models.RatingPG13 {
		t.Fatalf("expected PG-13 rating, got %q", imported.ContentRating)
	}
	if imported.Studio != "Toei Animation" {
		t.Fatalf("expected studio mapping, got %q", imported.Studio)
	}
	if imported.EpisodeCount != 1 {
		t.Fatalf("expected unknown episode count to default to 1, got %d", imported.EpisodeCount)
	}
	if imported.ExternalID != "21" {
		t.Fatalf("expected external id 21, got %q", imported.ExternalID)
	}
	if len(store.items) != 1 {
		t.Fatalf("expected one stored title, got %d", len(store.items))
	}

	// Importing the same external ID again returns the stored title and
	// does not call the external API.
	again, err := svc.ImportExternal(ctx, "21")
	if err != nil {
		t.Fatalf("second import returned error: %v", err)
	}
	if again.ID != imported.ID {
		t.Fatalf("expected same stored title, got %q vs %q", again.ID, imported.ID)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream call, got %d", hits)
	}
}

const externalSearchBody = `{
	"data": [
		{
			"mal_id": 30,
			"title": "Night Circus",
			"status": "Finished Airing",
			"rating": "Rx - Hentai",
			"score": 6.1,
			"aired": {"from": "2003-04-01T00:00:00+00:00"},
			"images": {"jpg": {"image_url": "https://img.example/30.jpg"}},
			"genres": [],
			"studios": []
		}
	]
}`

func TestSearchExternalMapsRatingsAndYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("expected q parameter on search request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(externalSearchBody))
	}))
	defer server.Close()

	svc, _, _ := newTestService(server.URL)

	results, err := svc.SearchExternal(context.Background(), "circus", 5)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ContentRating != models.RatingNC17 {
		t.Fatalf("expected NC-17 mapping for Rx rating, got %q", results[0].ContentRating)
	}
	if results[0].Status != models.StatusFinished {
		t.Fatalf("expected finished status, got %q", results[0].Status)
	}
	if results[0].ReleaseYear != 2003 {
		t.Fatalf("expected year 2003 from aired date, got %d", results[0].ReleaseYear)
	}
	if results[0].ImageURL != "https://img.example/30.jpg" {
		t.Fatalf("expected fallback image url, got %q", results[0].ImageURL)
	}
}
