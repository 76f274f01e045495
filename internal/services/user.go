package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// UserService handles profile changes of signed-in users
type UserService struct {
	users storage.ActorRepository[models.User]
	media *MediaStore
	now   func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users storage.ActorRepository[models.User], media *MediaStore) *UserService {
	return &UserService{users: users, media: media, now: time.Now}
}

// Update applies the supplied fields of in to u and persists it
func (s *UserService) Update(ctx context.Context, u *models.User, in models.UserUpdate) (*models.User, error) {
	next := *u
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.ValidationError("name cannot be empty")
		}
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Mobile != nil {
		mobile := strings.TrimSpace(*in.Mobile)
		if err := ValidateMobile("mobile", mobile); err != nil {
			return nil, err
		}
		next.Mobile = mobile
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
		next.Email = email
	}
	if in.Address != nil {
		next.Address = strings.TrimSpace(*in.Address)
	}
	next.Touch(s.now())

	if err := s.users.Update(ctx, &next); err != nil {
		return nil, actorUpdateFailure(err, "User")
	}
	*u = next
	return u, nil
}

// UploadImage replaces the profile image of u
func (s *UserService) UploadImage(ctx context.Context, u *models.User, upload Upload) (*models.User, error) {
	upload.Field = "profileImage"
	slots := map[string]*string{"profileImage": &u.ProfileImage}
	err := swapImages(ctx, s.media, "users/"+u.ID, []Upload{upload}, slots, func() error {
		u.Touch(s.now())
		if err := s.users.Update(ctx, u); err != nil {
			return actorUpdateFailure(err, "User")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// actorUpdateFailure maps errors of ActorRepository.Update
func actorUpdateFailure(err error, label string) error {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return models.DuplicateActor("another " + strings.ToLower(label) + " already uses this mobile or email")
	case errors.Is(err, storage.ErrNotFound):
		return models.NotFound(label + " not found")
	}
	return storeFailure(err)
}
