package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"aniview/services/accounts"
)

type authService interface {
	Register(ctx context.Context, params accounts.RegisterParams) (accounts.Session, error)
	Login(ctx context.Context, email, password string) (accounts.Session, error)
	Refresh(ctx context.Context, claims accounts.Claims) (accounts.Session, error)
}

var _ authService = (*accounts.Service)(nil)

type AuthHandler struct {
	Service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body accounts.RegisterParams
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Service.Register(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrUsernameRequired),
			errors.Is(err, accounts.ErrEmailRequired),
			errors.Is(err, accounts.ErrEmailInvalid),
			errors.Is(err, accounts.ErrPasswordTooShort):
			status = http.StatusBadRequest
		case errors.Is(err, accounts.ErrEmailInUse):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		http.Error(w, errNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}

	session, err := h.Service.Refresh(r.Context(), claims)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrUserNotFound) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
