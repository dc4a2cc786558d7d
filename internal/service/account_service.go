package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/pulseboard/pulseboard/configs"
	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/transfer"
	"github.com/pulseboard/pulseboard/pkg/utils"
)

// AccountService is the account registry: it owns connect, disconnect
// and reconnect for social accounts. Accounts are soft-deleted only
// (is_connected flips), never removed, so ledger history stays intact.
type AccountService interface {
	Connect(ctx context.Context, userID int64, ac *transfer.AccountConnection) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error)
	Reconnect(ctx context.Context, userID, accountID int64, rc *transfer.AccountReconnection) (*models.SocialAccount, error)
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository) AccountService {
	return &accountService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *accountService) Connect(ctx context.Context, userID int64, ac *transfer.AccountConnection) (*models.SocialAccount, error) {
	if !models.IsValidPlatform(ac.Platform) {
		return nil, errs.Validation("platform", fmt.Sprintf("unknown platform %q", ac.Platform))
	}
	if ac.AccountName == "" {
		return nil, errs.Validation("account_name", "account name is required")
	}
	if ac.ExternalAccountID == "" {
		return nil, errs.Validation("external_account_id", "external account id is required")
	}
	if ac.AccessToken == "" {
		return nil, errs.Validation("access_token", "access token is required")
	}

	accessToken, refreshToken, err := s.sealTokens(ac.AccessToken, ac.RefreshToken)
	if err != nil {
		return nil, err
	}

	account := models.SocialAccount{
		UserID:            userID,
		Platform:          ac.Platform,
		AccountName:       ac.AccountName,
		ExternalAccountID: ac.ExternalAccountID,
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		IsConnected:       true,
	}

	id, err := s.sa.Create(ctx, nil, &account)
	if err != nil {
		return nil, fmt.Errorf("error creating social account: %w", err)
	}

	return s.sa.GetByID(ctx, id)
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}
	return accounts, nil
}

// Disconnect is idempotent: disconnecting an already-disconnected
// account is a no-op success.
func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if !account.IsConnected {
		return account, nil
	}

	if err := s.sa.SetDisconnected(ctx, accountID); err != nil {
		return nil, fmt.Errorf("error disconnecting account %d: %w", accountID, err)
	}
	return s.sa.GetByID(ctx, accountID)
}

func (s *accountService) Reconnect(ctx context.Context, userID, accountID int64, rc *transfer.AccountReconnection) (*models.SocialAccount, error) {
	if rc.AccessToken == "" {
		return nil, errs.Validation("access_token", "access token is required")
	}

	if _, err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.sealTokens(rc.AccessToken, rc.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.sa.SetReconnected(ctx, accountID, accessToken, refreshToken); err != nil {
		return nil, fmt.Errorf("error reconnecting account %d: %w", accountID, err)
	}
	return s.sa.GetByID(ctx, accountID)
}

func (s *accountService) ownedAccount(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting social account %d: %w", accountID, err)
	}
	if account == nil || account.UserID != userID {
		return nil, errs.NotFound("social account", accountID)
	}
	return account, nil
}

// sealTokens encrypts credentials at rest. When no secret key is
// configured (tests, local memory mode) tokens are stored as-is.
func (s *accountService) sealTokens(accessToken, refreshToken string) (string, string, error) {
	if s.cfg.SecretKey == "" {
		return accessToken, refreshToken, nil
	}

	sealed, err := utils.Encrypt([]byte(accessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", "", fmt.Errorf("error encrypting access token: %w", err)
	}

	var sealedRefresh string
	if refreshToken != "" {
		sealedRefresh, err = utils.Encrypt([]byte(refreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			slog.Info(err.Error())
			return "", "", fmt.Errorf("error encrypting refresh token: %w", err)
		}
	}
	return sealed, sealedRefresh, nil
}
