package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

type UpdateProfileInput struct {
	FullName      *string
	Phone         *string
	ProfilePic    *string
	FirebaseToken *string
}

type UserService interface {
	Profile(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error)
	// ChosenTags resolves the user's accumulated tag ids to names.
	ChosenTags(ctx context.Context, userID uint) ([]string, error)
}

type userService struct {
	userRepo        repository.UserRepository
	personalization PersonalizationService
}

func NewUserService(userRepo repository.UserRepository, personalization PersonalizationService) UserService {
	return &userService{userRepo: userRepo, personalization: personalization}
}

func (s *userService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name cannot be blank", ErrInvalidArgument)
		}
		user.FullName = name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.ProfilePic != nil {
		user.ProfilePic = *in.ProfilePic
	}
	if in.FirebaseToken != nil {
		user.FirebaseToken = *in.FirebaseToken
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) ChosenTags(ctx context.Context, userID uint) ([]string, error) {
	return s.personalization.ChosenTagNames(ctx, userID)
}
