package service

import (
	"context"
	"fmt"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, userID int64) (*models.User, error)
}

type userService struct {
	ur repository.UserRepository
}

func NewUserService(ur repository.UserRepository) UserService {
	return &userService{ur: ur}
}

func (s *userService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, exists, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user %d: %w", userID, err)
	}
	if !exists {
		return nil, errs.NotFound("user", userID)
	}
	return user, nil
}
