package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"aniview/models"
	"aniview/services/accounts"
	"aniview/services/profiles"
)

// ProfileHeader names the header carrying the acting profile's ID.
const ProfileHeader = "X-Profile-ID"

var (
	errNotAuthenticated = errors.New("authentication required")
	errProfileRequired  = errors.New("profile id header is required")
)

type profileResolver interface {
	Get(ctx context.Context, profileID, userID string) (models.Profile, error)
}

// resolveProfile loads the acting profile named by the request header and
// verifies it belongs to the authenticated user.
func resolveProfile(r *http.Request, resolver profileResolver) (models.Profile, error) {
	claims, ok := accounts.FromContext(r.Context())
	if !ok {
		return models.Profile{}, errNotAuthenticated
	}

	profileID := strings.TrimSpace(r.Header.Get(ProfileHeader))
	if profileID == "" {
		return models.Profile{}, errProfileRequired
	}

	return resolver.Get(r.Context(), profileID, claims.UserID)
}

// profileResolveStatus translates resolveProfile failures to a status code.
func profileResolveStatus(err error) int {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
