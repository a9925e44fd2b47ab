package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"aniview/internal/database"
	"aniview/models"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrForbidden       = errors.New("profile belongs to another user")
	ErrNameRequired    = errors.New("profile name is required")
	ErrNameTaken       = errors.New("a profile with this name already exists")
	ErrLimitExceeded   = errors.New("profile limit reached")
	ErrLastProfile     = errors.New("cannot delete the last profile")
	ErrInvalidType     = errors.New("invalid profile type")
	ErrInvalidRating   = errors.New("invalid content rating")
)

const (
	// MaxProfilesPerUser caps how many profiles one account can hold.
	MaxProfilesPerUser = 5

	// DefaultProfileName is given to the profile provisioned on signup.
	DefaultProfileName = "Principal"

	avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg"
)

type profileStore interface {
	Create(ctx context.Context, p models.Profile) error
	GetByID(ctx context.Context, id string) (models.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]models.Profile, error)
	Update(ctx context.Context, p models.Profile) error
	Delete(ctx context.Context, id string) error
}

type userGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type watchlistPurger interface {
	DeleteByProfile(ctx context.Context, profileID string) error
}

// Service manages viewing profiles and the rating ceilings attached to them.
type Service struct {
	store     profileStore
	users     userGetter
	watchlist watchlistPurger
	logger    *slog.Logger
}

func NewService(store profileStore, users userGetter, watchlist watchlistPurger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, users: users, watchlist: watchlist, logger: logger}
}

func defaultAvatar(name string) string {
	return avatarBaseURL + "?seed=" + url.QueryEscape(name)
}

// CreateParams carries the fields accepted when adding a profile.
type CreateParams struct {
	Name             string               `json:"name"`
	Avatar           string               `json:"avatar"`
	Type             models.ProfileType   `json:"type"`
	MaxContentRating models.ContentRating `json:"maxContentRating"`
}

// Create adds a profile for the user. The profile type fixes the rating
// ceiling; an explicit rating may only narrow it further.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (models.Profile, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return models.Profile{}, ErrNameRequired
	}

	profileType := params.Type
	if profileType == "" {
		profileType = models.ProfileAdult
	}
	ceiling, ok := models.ProfileTypeCeilings[profileType]
	if !ok {
		return models.Profile{}, ErrInvalidType
	}

	if params.MaxContentRating != "" {
		if !models.ValidRating(params.MaxContentRating) {
			return models.Profile{}, ErrInvalidRating
		}
		if models.RatingRank(params.MaxContentRating) < models.RatingRank(ceiling) {
			ceiling = params.MaxContentRating
		}
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Profile{}, ErrUserNotFound
		}
		return models.Profile{}, fmt.Errorf("lookup user: %w", err)
	}

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("list profiles: %w", err)
	}
	if len(existing) >= MaxProfilesPerUser {
		return models.Profile{}, ErrLimitExceeded
	}

	avatar := strings.TrimSpace(params.Avatar)
	if avatar == "" {
		avatar = defaultAvatar(name)
	}

	now := time.Now().UTC()
	profile := models.Profile{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             name,
		Avatar:           avatar,
		Type:             profileType,
		MaxContentRating: ceiling,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Create(ctx, profile); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Profile{}, ErrNameTaken
		}
		return models.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// CreateDefault provisions the initial profile given to every new account.
func (s *Service) CreateDefault(ctx context.Context, userID string) (models.Profile, error) {
	return s.Create(ctx, userID, CreateParams{
		Name: DefaultProfileName,
		Type: models.ProfileAdult,
	})
}

// Get returns the profile when it exists and belongs to the user.
func (s *Service) Get(ctx context.Context, profileID, userID string) (models.Profile, error) {
	profile, err := s.store.GetByID(ctx, profileID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if profile.UserID != userID {
		return models.Profile{}, ErrForbidden
	}
	return profile, nil
}

// List returns every profile owned by the user.
func (s *Service) List(ctx context.Context, userID string) ([]models.Profile, error) {
	return s.store.ListByUser(ctx, userID)
}

// UpdateParams carries the mutable profile fields. Nil means keep current.
// The type itself only changes through ChangeType; the ceiling may be
// patched here independently.
type UpdateParams struct {
	Name             *string               `json:"name"`
	Avatar           *string               `json:"avatar"`
	IsActive         *bool                 `json:"isActive"`
	MaxContentRating *models.ContentRating `json:"maxContentRating"`
}

// Update renames or retouches a profile owned by the user.
func (s *Service) Update(ctx context.Context, profileID, userID string, params UpdateParams) (models.Profile, error) {
	profile, err := s.Get(ctx, profileID, userID)
	if err != nil {
		return models.Profile{}, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return models.Profile{}, ErrNameRequired
		}
		profile.Name = name
	}
	if params.Avatar != nil {
		profile.Avatar = *params.Avatar
	}
	if params.IsActive != nil {
		profile.IsActive = *params.IsActive
	}
	if params.MaxContentRating != nil {
		if !models.ValidRating(*params.MaxContentRating) {
			return models.Profile{}, ErrInvalidRating
		}
		profile.MaxContentRating = *params.MaxContentRating
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, profile); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Profile{}, ErrNameTaken
		}
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// ChangeType switches the profile type and resets the rating ceiling to the
// ceiling of the new type.
func (s *Service) ChangeType(ctx context.Context, profileID, userID string, profileType models.ProfileType) (models.Profile, error) {
	ceiling, ok := models.ProfileTypeCeilings[profileType]
	if !ok {
		return models.Profile{}, ErrInvalidType
	}

	profile, err := s.Get(ctx, profileID, userID)
	if err != nil {
		return models.Profile{}, err
	}

	profile.Type = profileType
	profile.MaxContentRating = ceiling
	profile.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, profile); err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// Delete removes a profile and its watchlist. The last remaining profile of
// an account cannot be deleted.
func (s *Service) Delete(ctx context.Context, profileID, userID string) error {
	profile, err := s.Get(ctx, profileID, userID)
	if err != nil {
		return err
	}

	siblings, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	if len(siblings) <= 1 {
		return ErrLastProfile
	}

	if err := s.store.Delete(ctx, profile.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}

	// The profile row is gone at this point. Watchlist cleanup is best
	// effort; an orphaned entry is unreachable, not harmful.
	if err := s.watchlist.DeleteByProfile(ctx, profile.ID); err != nil {
		s.logger.Warn("watchlist cleanup failed", "profile_id", profile.ID, "error", err)
	}
	return nil
}

// PurgeUser removes every profile of the user along with their watchlists.
// Used on account deletion; failures are logged, not fatal.
func (s *Service) PurgeUser(ctx context.Context, userID string) error {
	profiles, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	p := pool.New().WithContext(ctx)
	for _, profile := range profiles {
		profile := profile
		p.Go(func(ctx context.Context) error {
			if err := s.watchlist.DeleteByProfile(ctx, profile.ID); err != nil {
				s.logger.Warn("watchlist cleanup failed", "profile_id", profile.ID, "error", err)
			}
			if err := s.store.Delete(ctx, profile.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
				s.logger.Warn("profile cleanup failed", "profile_id", profile.ID, "error", err)
			}
			return nil
		})
	}
	return p.Wait()
}
