package profiles_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aniview/internal/database"
	"aniview/models"
	"aniview/services/profiles"
)

type memProfileStore struct {
	items map[string]models.Profile
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{items: make(map[string]models.Profile)}
}

func (s *memProfileStore) Create(_ context.Context, p models.Profile) error {
	for _, existing := range s.items {
		if existing.UserID == p.UserID && existing.Name == p.Name {
			return database.ErrDuplicate
		}
	}
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
	if _, ok := s.items[p.ID]; !ok {
		return database.ErrNotFound
	}
	s.items[p.ID] = p
	return nil
}

func (s *memProfileStore) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return database.ErrNotFound
	}
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

type memPurger struct {
	purged []string
}

func (p *memPurger) DeleteByProfile(_ context.Context, profileID string) error {
	p.purged = append(p.purged, profileID)
	return nil
}

func newTestService() (*profiles.Service, *memProfileStore, *memPurger) {
	store := newMemProfileStore()
	users := &memUsers{ids: map[string]bool{"u1": true, "u2": true}}
	purger := &memPurger{}
	return profiles.NewService(store, users, purger, nil), store, purger
}

func TestCreateDefaultsToAdultCeiling(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if profile.Type != models.ProfileAdult {
		t.Fatalf("expected adult type, got %q", profile.Type)
	}
	if profile.MaxContentRating != models.RatingNC17 {
		t.Fatalf("expected NC-17 ceiling, got %q", profile.MaxContentRating)
	}
	if !strings.Contains(profile.Avatar, "seed=Main") {
		t.Fatalf("expected generated avatar with name seed, got %q", profile.Avatar)
	}
}

func TestCreateKidIgnoresWiderRating(t *testing.T) {
	svc, _, _ := newTestService()

	profile, err := svc.Create(context.Background(), "u1", profiles.CreateParams{
		Name:             "Junior",
		Type:             models.ProfileKid,
		MaxContentRating: models.RatingNC17,
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if profile.MaxContentRating != models.RatingPG {
		t.Fatalf("kid profile ceiling should stay PG, got %q", profile.MaxContentRating)
	}
}

func TestCreateAllowsNarrowerRating(t *testing.T) {
	svc, _, _ := newTestService()

	profile, err := svc.Create(context.Background(), "u1", profiles.CreateParams{
		Name:             "Careful",
		Type:             models.ProfileAdult,
		MaxContentRating: models.RatingPG13,
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if profile.MaxContentRating != models.RatingPG13 {
		t.Fatalf("expected narrowed ceiling PG-13, got %q", profile.MaxContentRating)
	}
}

func TestCreateEnforcesLimit(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	names := []string{"One", "Two", "Three", "Four", "Five"}
	for _, name := range names {
		if _, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: name}); err != nil {
			t.Fatalf("create %q returned error: %v", name, err)
		}
	}

	_, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Six"})
	if !errors.Is(err, profiles.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	// Another user is unaffected by the first user's profiles.
	if _, err := svc.Create(ctx, "u2", profiles.CreateParams{Name: "One"}); err != nil {
		t.Fatalf("create for second user returned error: %v", err)
	}
}

func TestCreateRequiresExistingOwner(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), "ghost", profiles.CreateParams{Name: "Main"})
	if !errors.Is(err, profiles.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"}); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	_, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if !errors.Is(err, profiles.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, profile.ID, "u2"); !errors.Is(err, profiles.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign owner, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing", "u1"); !errors.Is(err, profiles.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound for unknown id, got %v", err)
	}
}

func TestChangeTypeResetsCeiling(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	changed, err := svc.ChangeType(ctx, profile.ID, "u1", models.ProfileKid)
	if err != nil {
		t.Fatalf("change type returned error: %v", err)
	}
	if changed.Type != models.ProfileKid || changed.MaxContentRating != models.RatingPG {
		t.Fatalf("expected kid/PG, got %q/%q", changed.Type, changed.MaxContentRating)
	}

	changed, err = svc.ChangeType(ctx, profile.ID, "u1", models.ProfileTeen)
	if err != nil {
		t.Fatalf("change type returned error: %v", err)
	}
	if changed.MaxContentRating != models.RatingPG13 {
		t.Fatalf("expected PG-13 after teen switch, got %q", changed.MaxContentRating)
	}

	if _, err := svc.ChangeType(ctx, profile.ID, "u1", "toddler"); !errors.Is(err, profiles.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestUpdatePatchesCeilingIndependently(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	ceiling := models.RatingPG13
	updated, err := svc.Update(ctx, profile.ID, "u1", profiles.UpdateParams{MaxContentRating: &ceiling})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.MaxContentRating != models.RatingPG13 {
		t.Fatalf("expected PG-13 ceiling, got %q", updated.MaxContentRating)
	}
	if updated.Type != models.ProfileAdult {
		t.Fatalf("expected type untouched, got %q", updated.Type)
	}

	bad := models.ContentRating("TV-MA")
	if _, err := svc.Update(ctx, profile.ID, "u1", profiles.UpdateParams{MaxContentRating: &bad}); !errors.Is(err, profiles.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
}

func TestDeleteGuardsLastProfile(t *testing.T) {
	svc, _, purger := newTestService()
	ctx := context.Background()

	only, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := svc.Delete(ctx, only.ID, "u1"); !errors.Is(err, profiles.ErrLastProfile) {
		t.Fatalf("expected ErrLastProfile, got %v", err)
	}

	second, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: "Other"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := svc.Delete(ctx, second.ID, "u1"); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != second.ID {
		t.Fatalf("expected watchlist purge for %q, got %v", second.ID, purger.purged)
	}
}

func TestPurgeUserRemovesEverything(t *testing.T) {
	svc, store, purger := newTestService()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx, "u1", profiles.CreateParams{Name: name}); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
	}

	if err := svc.PurgeUser(ctx, "u1"); err != nil {
		t.Fatalf("purge returned error: %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("expected no profiles left, got %d", len(store.items))
	}
	if len(purger.purged) != 3 {
		t.Fatalf("expected 3 watchlist purges, got %d", len(purger.purged))
	}
}
