package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aniview/models"
	"aniview/services/accounts"
	"aniview/services/profiles"
	"aniview/services/watchlist"

	"github.com/gorilla/mux"
)

type watchlistService interface {
	Add(ctx context.Context, profile models.Profile, animeID string, status models.WatchStatus) (models.WatchlistEntry, error)
	List(ctx context.Context, profileID string, status models.WatchStatus) ([]models.WatchlistEntry, error)
	Favorites(ctx context.Context, profileID string) ([]models.WatchlistEntry, error)
	GetByAnime(ctx context.Context, profileID, animeID string) (models.WatchlistEntry, error)
	Update(ctx context.Context, entryID, profileID string, upd models.WatchlistUpdate) (models.WatchlistEntry, error)
	SetFavorite(ctx context.Context, entryID, profileID string, favorite bool) (models.WatchlistEntry, error)
	Remove(ctx context.Context, entryID, profileID string) error
	RemoveByAnime(ctx context.Context, profileID, animeID string) (bool, error)
	Stats(ctx context.Context, profileID string) (models.WatchlistStats, error)
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service  watchlistService
	Profiles profileResolver
}

func NewWatchlistHandler(service watchlistService, profilesSvc profileResolver) *WatchlistHandler {
	return &WatchlistHandler{Service: service, Profiles: profilesSvc}
}

func watchlistStatus(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrEntryNotFound),
		errors.Is(err, watchlist.ErrAnimeNotFound),
		errors.Is(err, profiles.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrAgeRestricted),
		errors.Is(err, watchlist.ErrForbidden),
		errors.Is(err, profiles.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, watchlist.ErrAlreadyInWatchlist):
		return http.StatusConflict
	case errors.Is(err, watchlist.ErrInvalidStatus),
		errors.Is(err, errProfileRequired):
		return http.StatusBadRequest
	case errors.Is(err, errNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ownProfile verifies the path profile belongs to the authenticated user.
func (h *WatchlistHandler) ownProfile(r *http.Request) (models.Profile, error) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		return models.Profile{}, errNotAuthenticated
	}

	profileID := strings.TrimSpace(mux.Vars(r)["profileID"])
	if profileID == "" {
		return models.Profile{}, errProfileRequired
	}

	return h.Profiles.Get(r.Context(), profileID, claims.UserID)
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	profile, err := resolveProfile(r, h.Profiles)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	var body struct {
		AnimeID string             `json:"animeId"`
		Status  models.WatchStatus `json:"status"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.AnimeID) == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Add(r.Context(), profile, body.AnimeID, body.Status)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ownProfile(r)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	entries, err := h.Service.List(r.Context(), profile.ID, models.WatchStatus(r.URL.Query().Get("status")))
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *WatchlistHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ownProfile(r)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	entries, err := h.Service.Favorites(r.Context(), profile.ID)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *WatchlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ownProfile(r)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	stats, err := h.Service.Stats(r.Context(), profile.ID)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (h *WatchlistHandler) GetByAnime(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ownProfile(r)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	animeID := strings.TrimSpace(mux.Vars(r)["animeID"])
	if animeID == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.GetByAnime(r.Context(), profile.ID, animeID)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// RemoveByAnime drops the pair entry if it exists. Removing a title that
// is not on the list is not an error.
func (h *WatchlistHandler) RemoveByAnime(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ownProfile(r)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	animeID := strings.TrimSpace(mux.Vars(r)["animeID"])
	if animeID == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	removed, err := h.Service.RemoveByAnime(r.Context(), profile.ID, animeID)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"removed": removed})
}

// Update accepts partial bodies and ignores fields it does not manage.
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	profile, err := resolveProfile(r, h.Profiles)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	entryID := strings.TrimSpace(mux.Vars(r)["entryID"])
	if entryID == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	var body models.WatchlistUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Update(r.Context(), entryID, profile.ID, body)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// SetFavorite requires an explicit flag in the body so retried requests
// stay idempotent.
func (h *WatchlistHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	profile, err := resolveProfile(r, h.Profiles)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	entryID := strings.TrimSpace(mux.Vars(r)["entryID"])
	if entryID == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	var body struct {
		IsFavorite *bool `json:"isFavorite"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.IsFavorite == nil {
		http.Error(w, "isFavorite is required", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.SetFavorite(r.Context(), entryID, profile.ID, *body.IsFavorite)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	profile, err := resolveProfile(r, h.Profiles)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	entryID := strings.TrimSpace(mux.Vars(r)["entryID"])
	if entryID == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Remove(r.Context(), entryID, profile.ID); err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
