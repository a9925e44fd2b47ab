package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"aniview/internal/database"
	"aniview/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("email is invalid")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailInUse         = errors.New("email or username already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAllowed         = errors.New("not allowed")
)

const minPasswordLength = 6

type userStore interface {
	Create(ctx context.Context, u models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
	Stats(ctx context.Context) (models.UserStats, error)
}

// profileBootstrapper provisions the initial profile for a fresh account
// and clears everything profile-related when the account goes away.
type profileBootstrapper interface {
	CreateDefault(ctx context.Context, userID string) (models.Profile, error)
	PurgeUser(ctx context.Context, userID string) error
}

// Service owns account registration, authentication and user administration.
type Service struct {
	store    userStore
	profiles profileBootstrapper
	tokens   *TokenIssuer
}

// NewService wires the accounts service. The profiles dependency may be set
// later via SetProfiles to break the construction cycle between the two
// services.
func NewService(store userStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// SetProfiles attaches the profile bootstrapper once it exists.
func (s *Service) SetProfiles(p profileBootstrapper) {
	s.profiles = p
}

// RegisterParams carries the fields accepted on signup.
type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session bundles a user with a freshly issued token.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// Register creates an account, hashes the password and provisions the
// default profile, then signs the user in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Session, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return Session{}, ErrUsernameRequired
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if len(params.Password) < minPasswordLength {
		return Session{}, ErrPasswordTooShort
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailInUse
	} else if !errors.Is(err, database.ErrNotFound) {
		return Session{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return Session{}, ErrEmailInUse
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	if s.profiles != nil {
		if _, err := s.profiles.CreateDefault(ctx, user.ID); err != nil {
			return Session{}, fmt.Errorf("create default profile: %w", err)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: user, Token: token}, nil
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: user, Token: token}, nil
}

// Refresh re-issues a token for the user identified by the claims.
func (s *Service) Refresh(ctx context.Context, claims Claims) (Session, error) {
	user, err := s.store.GetByID(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return Session{}, ErrUserNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: user, Token: token}, nil
}

// Verify validates a raw bearer token.
func (s *Service) Verify(token string) (Claims, error) {
	return s.tokens.Verify(token)
}

// Get returns one user by ID.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateParams carries the mutable account fields. Nil means keep current.
type UpdateParams struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	ProfilePic *string `json:"profilePic"`
}

// Update applies the changes when the actor edits their own account or is
// an admin.
func (s *Service) Update(ctx context.Context, actor Claims, userID string, params UpdateParams) (models.User, error) {
	if actor.UserID != userID && !actor.IsAdmin {
		return models.User{}, ErrNotAllowed
	}

	user, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if username == "" {
			return models.User{}, ErrUsernameRequired
		}
		user.Username = username
	}
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if err := validateEmail(email); err != nil {
			return models.User{}, err
		}
		user.Email = email
	}
	if params.Password != nil {
		if len(*params.Password) < minPasswordLength {
			return models.User{}, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if params.ProfilePic != nil {
		user.ProfilePic = *params.ProfilePic
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the account and everything hanging off it. Self-service or
// admin only.
func (s *Service) Delete(ctx context.Context, actor Claims, userID string) error {
	if actor.UserID != userID && !actor.IsAdmin {
		return ErrNotAllowed
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.PurgeUser(ctx, userID); err != nil {
			return fmt.Errorf("purge profiles: %w", err)
		}
	}
	return nil
}

// List returns every account. Admin only, enforced at the route layer.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.List(ctx)
}

// Stats returns registration totals and the per-month breakdown.
func (s *Service) Stats(ctx context.Context) (models.UserStats, error) {
	return s.store.Stats(ctx)
}
