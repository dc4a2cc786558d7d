package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	config "github.com/pulseboard/pulseboard/configs"
	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/transfer"
	"github.com/pulseboard/pulseboard/pkg/utils"
)

const sessionDuration = 24 * time.Hour * 7

type AuthService interface {
	Login(ctx context.Context, lr *transfer.LoginRequest) (string, error)
}

type authService struct {
	cfg config.Config
	ur  repository.UserRepository
}

func NewAuthService(cfg config.Config, ur repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		ur:  ur,
	}
}

// Login checks the credentials and returns a signed session token. A
// bad username and a bad password produce the same error so the login
// form leaks nothing about which was wrong.
func (s *authService) Login(ctx context.Context, lr *transfer.LoginRequest) (string, error) {
	if lr.Username == "" {
		return "", errs.Validation("username", "username is required")
	}
	if lr.Password == "" {
		return "", errs.Validation("password", "password is required")
	}

	user, exists, err := s.ur.GetByUsername(ctx, lr.Username)
	if err != nil {
		return "", fmt.Errorf("error getting user: %w", err)
	}
	if !exists {
		return "", errs.Validation("username", "invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(lr.Password)); err != nil {
		return "", errs.Validation("username", "invalid username or password")
	}

	token, err := utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(user.ID, 10), sessionDuration)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}
