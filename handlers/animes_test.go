package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aniview/handlers"
	"aniview/internal/database"
	"aniview/models"
	"aniview/services/accounts"
	"aniview/services/catalog"
	"aniview/services/profiles"
	"aniview/services/watchlist"

	"github.com/gorilla/mux"
)

type memAnimeStore struct {
	items map[string]models.Anime
}

func (s *memAnimeStore) Create(_ context.Context, a models.Anime) error {
	for _, existing := range s.items {
		if existing.Title == a.Title {
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

func (s *memAnimeStore) List(_ context.Context, _ models.AnimeFilter, _ models.ListOptions) ([]models.Anime, int, error) {
	var out []models.Anime
	for _, a := range s.items {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s *memAnimeStore) Random(_ context.Context, _ models.AnimeFilter, limit int) ([]models.Anime, error) {
	var out []models.Anime
	for _, a := range s.items {
		if len(out) >= limit {
			break
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memAnimeStore) Genres(_ context.Context) ([]string, error) { return nil, nil }

type memProfileStore struct {
	items map[string]models.Profile
}

func (s *memProfileStore) Create(_ context.Context, p models.Profile) error {
	s.items[p.ID] = p
	return nil
}

func (s *memProfileStore) GetByID(_ context.Context, id string) (models.Profile, error) {
	p, ok := s.items[id]
	if !ok {
		return models.Profile{}, database.ErrNotFound
	}
	return p, nil
}

func (s *memProfileStore) ListByUser(_ context.Context, userID string) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range s.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memProfileStore) Update(_ context.Context, p models.Profile) error {
	s.items[p.ID] = p
	return nil
}

func (s *memProfileStore) Delete(_ context.Context, id string) error {
	delete(s.items, id)
	return nil
}

type memUsers struct {
	ids map[string]bool
}

func (u *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	if !u.ids[id] {
		return models.User{}, database.ErrNotFound
	}
	return models.User{ID: id}, nil
}

type memEntryStore struct {
	items map[string]models.WatchlistEntry
}

func (s *memEntryStore) Create(_ context.Context, e models.WatchlistEntry) error {
	for _, existing := range s.items {
		if existing.ProfileID == e.ProfileID && existing.AnimeID == e.AnimeID {
			return database.ErrDuplicate
		}
	}
	s.items[e.ID] = e
	return nil
}

func (s *memEntryStore) GetByID(_ context.Context, id string) (models.WatchlistEntry, error) {
	e, ok := s.items[id]
	if !ok {
		return models.WatchlistEntry{}, database.ErrNotFound
	}
	return e, nil
}

func (s *memEntryStore) GetByProfileAndAnime(_ context.Context, profileID, animeID string) (models.WatchlistEntry, error) {
	for _, e := range s.items {
		if e.ProfileID == profileID && e.AnimeID == animeID {
			return e, nil
		}
	}
	return models.WatchlistEntry{}, database.ErrNotFound
}

func (s *memEntryStore) ListByProfile(_ context.Context, profileID string) ([]models.WatchlistEntry, error) {
	var out []models.WatchlistEntry
	for _, e := range s.items {
		if e.ProfileID == profileID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEntryStore) ListByProfileAndStatus(_ context.Context, profileID string, status models.WatchStatus) ([]models.WatchlistEntry, error) {
	var out []models.WatchlistEntry
	for _, e := range s.items {
		if e.ProfileID == profileID && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEntryStore) ListFavorites(_ context.Context, profileID string) ([]models.WatchlistEntry, error) {
	var out []models.WatchlistEntry
	for _, e := range s.items {
		if e.ProfileID == profileID && e.IsFavorite {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEntryStore) Update(_ context.Context, e models.WatchlistEntry) error {
	s.items[e.ID] = e
	return nil
}

func (s *memEntryStore) Delete(_ context.Context, id string) error {
	delete(s.items, id)
	return nil
}

func (s *memEntryStore) DeleteByProfileAndAnime(_ context.Context, profileID, animeID string) (bool, error) {
	for id, e := range s.items {
		if e.ProfileID == profileID && e.AnimeID == animeID {
			delete(s.items, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *memEntryStore) DeleteByProfile(_ context.Context, profileID string) error {
	for id, e := range s.items {
		if e.ProfileID == profileID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *memEntryStore) DeleteByAnime(_ context.Context, animeID string) error {
	for id, e := range s.items {
		if e.AnimeID == animeID {
			delete(s.items, id)
		}
	}
	return nil
}

type testEnv struct {
	catalogSvc   *catalog.Service
	profilesSvc  *profiles.Service
	watchlistSvc *watchlist.Service
	animeStore   *memAnimeStore
}

func newTestEnv() *testEnv {
	animeStore := &memAnimeStore{items: make(map[string]models.Anime)}
	profileStore := &memProfileStore{items: make(map[string]models.Profile)}
	users := &memUsers{ids: map[string]bool{"u1": true, "u2": true}}
	entryStore := &memEntryStore{items: make(map[string]models.WatchlistEntry)}

	return &testEnv{
		catalogSvc:   catalog.NewService(animeStore, entryStore, catalog.Options{}, nil),
		profilesSvc:  profiles.NewService(profileStore, users, entryStore, nil),
		watchlistSvc: watchlist.NewService(entryStore, animeStore),
		animeStore:   animeStore,
	}
}

func authed(req *http.Request, userID string) *http.Request {
	claims := accounts.Claims{UserID: userID}
	return req.WithContext(accounts.NewContext(req.Context(), claims))
}

func TestAnimeDetailGating(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	anime, err := env.catalogSvc.Create(ctx, catalog.CreateParams{Title: "Rough Show", ContentRating: models.RatingR})
	if err != nil {
		t.Fatalf("create anime returned error: %v", err)
	}
	kid, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Junior", Type: models.ProfileKid})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}
	adult, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}

	h := handlers.NewAnimesHandler(env.catalogSvc, env.profilesSvc)

	get := func(profileID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/animes/"+anime.ID, nil)
		req = mux.SetURLVars(req, map[string]string{"animeID": anime.ID})
		req = authed(req, "u1")
		if profileID != "" {
			req.Header.Set(handlers.ProfileHeader, profileID)
		}
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	if rec := get(kid.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for kid profile, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get(adult.ID); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for adult profile, got %d: %s", rec.Code, rec.Body.String())
	}
	// No acting profile means no gating.
	if rec := get(""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without profile header, got %d: %s", rec.Code, rec.Body.String())
	}
	// A profile owned by another user cannot be borrowed.
	req := httptest.NewRequest(http.MethodGet, "/api/animes/"+anime.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"animeID": anime.ID})
	req = authed(req, "u2")
	req.Header.Set(handlers.ProfileHeader, adult.ID)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign profile, got %d", rec.Code)
	}
}

func TestWatchlistAddOverHTTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	anime, err := env.catalogSvc.Create(ctx, catalog.CreateParams{Title: "Late Show", ContentRating: models.RatingNC17})
	if err != nil {
		t.Fatalf("create anime returned error: %v", err)
	}
	kid, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Junior", Type: models.ProfileKid})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}
	adult, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}

	h := handlers.NewWatchlistHandler(env.watchlistSvc, env.profilesSvc)

	add := func(profileID string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]string{"animeId": anime.ID})
		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", bytes.NewReader(payload))
		req = authed(req, "u1")
		req.Header.Set(handlers.ProfileHeader, profileID)
		rec := httptest.NewRecorder()
		h.Add(rec, req)
		return rec
	}

	if rec := add(kid.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for kid profile, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := add(adult.ID); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for adult profile, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := add(adult.ID); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate add, got %d: %s", rec.Code, rec.Body.String())
	}

	// Missing profile header is a client error.
	payload, _ := json.Marshal(map[string]string{"animeId": anime.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/watchlist", bytes.NewReader(payload))
	req = authed(req, "u1")
	rec := httptest.NewRecorder()
	h.Add(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without profile header, got %d", rec.Code)
	}
}

func TestSetFavoriteOverHTTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	anime, err := env.catalogSvc.Create(ctx, catalog.CreateParams{Title: "Quiet Show", ContentRating: models.RatingPG})
	if err != nil {
		t.Fatalf("create anime returned error: %v", err)
	}
	adult, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}
	entry, err := env.watchlistSvc.Add(ctx, adult, anime.ID, "")
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	h := handlers.NewWatchlistHandler(env.watchlistSvc, env.profilesSvc)

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/watchlist/"+entry.ID+"/favorite", bytes.NewReader([]byte(body)))
		req = mux.SetURLVars(req, map[string]string{"entryID": entry.ID})
		req = authed(req, "u1")
		req.Header.Set(handlers.ProfileHeader, adult.ID)
		rec := httptest.NewRecorder()
		h.SetFavorite(rec, req)
		return rec
	}

	if rec := patch(`{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without isFavorite, got %d: %s", rec.Code, rec.Body.String())
	}

	// The same body twice must leave the flag in the requested state.
	for i := 0; i < 2; i++ {
		rec := patch(`{"isFavorite":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got models.WatchlistEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !got.IsFavorite {
			t.Fatalf("expected favorite after request %d", i+1)
		}
	}

	rec := patch(`{"isFavorite":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.WatchlistEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.IsFavorite {
		t.Fatal("expected favorite flag cleared")
	}
}
