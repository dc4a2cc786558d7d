package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type socialAccountRepository struct {
	s *Store
}

func NewSocialAccountRepository(s *Store) repository.SocialAccountRepository {
	return &socialAccountRepository{s: s}
}

func (r *socialAccountRepository) Create(ctx context.Context, tx repository.Tx, sa *models.SocialAccount) (int64, error) {
	defer r.s.lock(tx)()

	record := *sa
	record.ID = r.s.nextSocialAccountID
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	r.s.socialAccounts[record.ID] = &record
	r.s.nextSocialAccountID++
	return record.ID, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sa, ok := r.s.socialAccounts[id]
	if !ok {
		return nil, nil
	}
	copied := *sa
	return &copied, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var accounts []*models.SocialAccount
	for _, sa := range r.s.socialAccounts {
		if sa.UserID == userID {
			copied := *sa
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *socialAccountRepository) ListConnectedByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var accounts []*models.SocialAccount
	for _, sa := range r.s.socialAccounts {
		if sa.Platform == platform && sa.IsConnected {
			copied := *sa
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sa, ok := r.s.socialAccounts[accountID]
	return ok && sa.UserID == userID, nil
}

func (r *socialAccountRepository) SetDisconnected(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sa, ok := r.s.socialAccounts[id]
	if !ok {
		return nil
	}
	updated := *sa
	updated.IsConnected = false
	updated.UpdatedAt = time.Now()
	r.s.socialAccounts[id] = &updated
	return nil
}

func (r *socialAccountRepository) SetReconnected(ctx context.Context, id int64, accessToken, refreshToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sa, ok := r.s.socialAccounts[id]
	if !ok {
		return nil
	}
	updated := *sa
	updated.IsConnected = true
	updated.AccessToken = accessToken
	if refreshToken != "" {
		updated.RefreshToken = refreshToken
	}
	updated.UpdatedAt = time.Now()
	r.s.socialAccounts[id] = &updated
	return nil
}
