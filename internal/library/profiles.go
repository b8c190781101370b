package library

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blazethunderstorm/screen-recorder/internal/models"
	"github.com/blazethunderstorm/screen-recorder/internal/repositories"
)

// UserStore is the persistence contract for user profiles.
type UserStore interface {
	UpsertByEmail(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateName(ctx context.Context, id, name string) (models.User, error)
	Stats(ctx context.Context, id string, publicViews bool) (models.ProfileStats, error)
}

// Identity is the profile reported by the authentication provider on sign-in.
type Identity struct {
	Name  string
	Email string
	Image string
}

// ProfileService exposes user profiles and first sign-in registration.
type ProfileService struct {
	Users   UserStore
	NowFunc func() time.Time
}

// NewProfileService constructs a ProfileService backed by the provided store.
func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{Users: users}
}

// SignIn returns the user for the identity, creating it on first sign-in.
func (s *ProfileService) SignIn(ctx context.Context, identity Identity) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return models.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	user, err := s.Users.UpsertByEmail(ctx, models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(identity.Name),
		Email:     email,
		Image:     strings.TrimSpace(identity.Image),
		CreatedAt: s.now(),
	})
	if err != nil {
		return models.User{}, storeError("sign in user", err)
	}

	return user, nil
}

// Profile returns the user with library statistics. Unless the caller owns the
// profile, the view total only covers public videos and the email is withheld.
func (s *ProfileService) Profile(ctx context.Context, principal *models.Principal, userID string) (models.Profile, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	self := principal != nil && principal.ID == user.ID

	stats, err := s.Users.Stats(ctx, user.ID, !self)
	if err != nil {
		return models.Profile{}, storeError("load user stats", err)
	}

	if !self {
		user.Email = ""
	}

	return models.Profile{User: user, Stats: stats}, nil
}

// Rename updates the display name of the caller's own profile. An empty name
// leaves the profile unchanged.
func (s *ProfileService) Rename(ctx context.Context, principal *models.Principal, userID, name string) (models.User, error) {
	if principal == nil || principal.ID == "" {
		return models.User{}, fmt.Errorf("%w: sign in to update your profile", ErrUnauthorized)
	}
	if principal.ID != userID {
		return models.User{}, fmt.Errorf("%w: profiles can only be updated by their owner", ErrForbidden)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return s.find(ctx, userID)
	}

	user, err := s.Users.UpdateName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return models.User{}, storeError("rename user", err)
	}

	return user, nil
}

func (s *ProfileService) find(ctx context.Context, userID string) (models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return models.User{}, storeError("find user", err)
	}
	return user, nil
}

func (s *ProfileService) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
