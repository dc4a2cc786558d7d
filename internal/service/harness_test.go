package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	config "github.com/pulseboard/pulseboard/configs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/repository/memory"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

type harness struct {
	store     *memory.Store
	accounts  AccountService
	posts     PostService
	ledger    LedgerService
	dashboard DashboardService
	analytics repository.AnalyticsRepository
	userID    int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	user := store.SeedDemoUser("not-a-real-hash")

	sa := memory.NewSocialAccountRepository(store)
	pr := memory.NewPostRepository(store)
	pp := memory.NewPlatformPostRepository(store)
	ar := memory.NewAnalyticsRepository(store)

	return &harness{
		store:     store,
		accounts:  NewAccountService(config.Config{}, sa),
		posts:     NewPostService(store, pr, pp, sa),
		ledger:    NewLedgerService(store, pr, pp),
		dashboard: NewDashboardService(nil, pr, pp, sa, ar),
		analytics: ar,
		userID:    user.ID,
	}
}

func (h *harness) connectAccount(t *testing.T, platform, name string) *models.SocialAccount {
	t.Helper()

	account, err := h.accounts.Connect(context.Background(), h.userID, &transfer.AccountConnection{
		Platform:          platform,
		AccountName:       name,
		ExternalAccountID: "ext-" + name,
		AccessToken:       "token-" + name,
	})
	require.NoError(t, err)
	return account
}

func (h *harness) schedulePost(t *testing.T, content string, accountIDs ...int64) *models.PostWithPlatforms {
	t.Helper()

	when := time.Now().Add(time.Hour)
	post, _, err := h.posts.Create(context.Background(), h.userID, &transfer.PostCreation{
		Content:      content,
		Platforms:    accountIDs,
		ScheduledFor: &when,
	})
	require.NoError(t, err)
	return post
}
