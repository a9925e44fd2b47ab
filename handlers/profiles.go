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

	"github.com/gorilla/mux"
)

type profilesService interface {
	Create(ctx context.Context, userID string, params profiles.CreateParams) (models.Profile, error)
	Get(ctx context.Context, profileID, userID string) (models.Profile, error)
	List(ctx context.Context, userID string) ([]models.Profile, error)
	Update(ctx context.Context, profileID, userID string, params profiles.UpdateParams) (models.Profile, error)
	ChangeType(ctx context.Context, profileID, userID string, profileType models.ProfileType) (models.Profile, error)
	Delete(ctx context.Context, profileID, userID string) error
}

var _ profilesService = (*profiles.Service)(nil)

type ProfilesHandler struct {
	Service profilesService
}

func NewProfilesHandler(service profilesService) *ProfilesHandler {
	return &ProfilesHandler{Service: service}
}

func profileStatus(err error) int {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound),
		errors.Is(err, profiles.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, profiles.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, profiles.ErrNameRequired),
		errors.Is(err, profiles.ErrInvalidType),
		errors.Is(err, profiles.ErrInvalidRating),
		errors.Is(err, profiles.ErrLimitExceeded),
		errors.Is(err, profiles.ErrLastProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	list, err := h.Service.List(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Profile{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	var body profiles.CreateParams
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.Create(r.Context(), claims.UserID, body)
	if err != nil {
		http.Error(w, err.Error(), profileStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["profileID"])
	if id == "" {
		http.Error(w, "profile id is required", http.StatusBadRequest)
		return
	}

	profile, err := h.Service.Get(r.Context(), id, claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), profileStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// Update accepts partial bodies and ignores fields it does not manage, so
// clients sending back a full profile object do not get rejected.
func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["profileID"])
	if id == "" {
		http.Error(w, "profile id is required", http.StatusBadRequest)
		return
	}

	var body profiles.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.Update(r.Context(), id, claims.UserID, body)
	if err != nil {
		http.Error(w, err.Error(), profileStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *ProfilesHandler) ChangeType(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["profileID"])
	if id == "" {
		http.Error(w, "profile id is required", http.StatusBadRequest)
		return
	}

	var body struct {
		Type models.ProfileType `json:"type"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.ChangeType(r.Context(), id, claims.UserID, body.Type)
	if err != nil {
		http.Error(w, err.Error(), profileStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["profileID"])
	if id == "" {
		http.Error(w, "profile id is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), id, claims.UserID); err != nil {
		http.Error(w, err.Error(), profileStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
