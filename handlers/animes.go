package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"aniview/models"
	"aniview/services/catalog"
	"aniview/services/profiles"

	"github.com/gorilla/mux"
)

type catalogService interface {
	Create(ctx context.Context, params catalog.CreateParams) (models.Anime, error)
	Get(ctx context.Context, id string) (models.Anime, error)
	GetForProfile(ctx context.Context, id string, profile models.Profile) (models.Anime, error)
	Update(ctx context.Context, id string, upd models.AnimeUpdate) (models.Anime, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AnimeFilter, opts models.ListOptions) ([]models.Anime, models.Pagination, error)
	Genres(ctx context.Context) ([]string, error)
	Random(ctx context.Context, limit int, profile *models.Profile) ([]models.Anime, error)
	SearchExternal(ctx context.Context, query string, limit int) ([]models.Anime, error)
	ImportExternal(ctx context.Context, externalID string) (models.Anime, error)
}

var _ catalogService = (*catalog.Service)(nil)
var _ profileResolver = (*profiles.Service)(nil)

type AnimesHandler struct {
	Catalog  catalogService
	Profiles profileResolver
}

func NewAnimesHandler(catalogSvc catalogService, profilesSvc profileResolver) *AnimesHandler {
	return &AnimesHandler{Catalog: catalogSvc, Profiles: profilesSvc}
}

type listResponse struct {
	Data       any               `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func parseListOptions(r *http.Request) models.ListOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return models.ListOptions{
		Sort:  q.Get("sort"),
		Desc:  q.Get("order") == "desc",
		Skip:  (page - 1) * pageSize,
		Limit: pageSize,
	}
}

func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrAnimeNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrDuplicateTitle):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrTitleRequired),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, catalog.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *AnimesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AnimeFilter{
		Genre:         q.Get("genre"),
		Status:        models.AnimeStatus(q.Get("status")),
		ContentRating: models.ContentRating(q.Get("contentRating")),
		Search:        q.Get("search"),
	}

	animes, pagination, err := h.Catalog.List(r.Context(), filter, parseListOptions(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if animes == nil {
		animes = []models.Anime{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listResponse{Data: animes, Pagination: pagination})
}

func (h *AnimesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "search query is required", http.StatusBadRequest)
		return
	}

	animes, pagination, err := h.Catalog.List(r.Context(), models.AnimeFilter{Search: query}, parseListOptions(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if animes == nil {
		animes = []models.Anime{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listResponse{Data: animes, Pagination: pagination})
}

// Get returns one title. When the request names an acting profile the
// title's content rating is checked against that profile's ceiling.
func (h *AnimesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["animeID"])
	if id == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	var (
		anime models.Anime
		err   error
	)
	if strings.TrimSpace(r.Header.Get(ProfileHeader)) != "" {
		profile, resolveErr := resolveProfile(r, h.Profiles)
		if resolveErr != nil {
			http.Error(w, resolveErr.Error(), profileResolveStatus(resolveErr))
			return
		}
		anime, err = h.Catalog.GetForProfile(r.Context(), id, profile)
	} else {
		anime, err = h.Catalog.Get(r.Context(), id)
	}
	if err != nil {
		http.Error(w, err.Error(), catalogStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(anime)
}

func (h *AnimesHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Catalog.Genres(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if genres == nil {
		genres = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(genres)
}

// Random samples titles for discovery rows, honoring the acting profile's
// rating ceiling when one is supplied.
func (h *AnimesHandler) Random(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var profile *models.Profile
	if strings.TrimSpace(r.Header.Get(ProfileHeader)) != "" {
		resolved, err := resolveProfile(r, h.Profiles)
		if err != nil {
			http.Error(w, err.Error(), profileResolveStatus(err))
			return
		}
		profile = &resolved
	}

	animes, err := h.Catalog.Random(r.Context(), limit, profile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if animes == nil {
		animes = []models.Anime{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(animes)
}

func (h *AnimesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body catalog.CreateParams
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	anime, err := h.Catalog.Create(r.Context(), body)
	if err != nil {
		http.Error(w, err.Error(), catalogStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(anime)
}

func (h *AnimesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["animeID"])
	if id == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	var body models.AnimeUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	anime, err := h.Catalog.Update(r.Context(), id, body)
	if err != nil {
		http.Error(w, err.Error(), catalogStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(anime)
}

func (h *AnimesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["animeID"])
	if id == "" {
		http.Error(w, "anime id is required", http.StatusBadRequest)
		return
	}

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), catalogStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AnimesHandler) SearchExternal(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "search query is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	animes, err := h.Catalog.SearchExternal(r.Context(), query, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if animes == nil {
		animes = []models.Anime{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(animes)
}

func (h *AnimesHandler) ImportExternal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExternalID string `json:"externalId"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	anime, err := h.Catalog.ImportExternal(r.Context(), body.ExternalID)
	if err != nil {
		status := catalogStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(anime)
}
