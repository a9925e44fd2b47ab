package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aniview/models"
	"aniview/services/accounts"

	"github.com/gorilla/mux"
)

type accountsService interface {
	Get(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, actor accounts.Claims, userID string, params accounts.UpdateParams) (models.User, error)
	Delete(ctx context.Context, actor accounts.Claims, userID string) error
	List(ctx context.Context) ([]models.User, error)
	Stats(ctx context.Context) (models.UserStats, error)
}

var _ accountsService = (*accounts.Service)(nil)

type UsersHandler struct {
	Service accountsService
}

func NewUsersHandler(service accountsService) *UsersHandler {
	return &UsersHandler{Service: service}
}

// Me returns the authenticated user's own account.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	user, err := h.Service.Get(r.Context(), claims.UserID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["userID"])
	if id == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return
	}

	var body accounts.UpdateParams
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Service.Update(r.Context(), claims, id, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrNotAllowed):
			status = http.StatusForbidden
		case errors.Is(err, accounts.ErrUserNotFound):
			status = http.StatusNotFound
		case errors.Is(err, accounts.ErrEmailInUse):
			status = http.StatusConflict
		case errors.Is(err, accounts.ErrUsernameRequired),
			errors.Is(err, accounts.ErrEmailRequired),
			errors.Is(err, accounts.ErrEmailInvalid),
			errors.Is(err, accounts.ErrPasswordTooShort):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["userID"])
	if id == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), claims, id); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrNotAllowed):
			status = http.StatusForbidden
		case errors.Is(err, accounts.ErrUserNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UsersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
