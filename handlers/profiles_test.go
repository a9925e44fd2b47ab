package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"aniview/handlers"
	"aniview/services/profiles"

	"github.com/gorilla/mux"
)

func TestProfileGetForeignOwnerForbidden(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	profile, err := env.profilesSvc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}

	h := handlers.NewProfilesHandler(env.profilesSvc)

	get := func(profileID, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/profiles/"+profileID, nil)
		req = mux.SetURLVars(req, map[string]string{"profileID": profileID})
		req = authed(req, userID)
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	if rec := get(profile.ID, "u2"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign owner, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get(profile.ID, "u1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get("missing", "u1"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d: %s", rec.Code, rec.Body.String())
	}
}
