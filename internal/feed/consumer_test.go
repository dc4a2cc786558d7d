package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository/memory"
	"github.com/pulseboard/pulseboard/internal/service"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

func newConsumerFixture(t *testing.T) (*Consumer, *memory.Store, *Hub) {
	t.Helper()

	store := memory.NewStore()
	sa := memory.NewSocialAccountRepository(store)
	ar := memory.NewAnalyticsRepository(store)
	pr := memory.NewPostRepository(store)
	pp := memory.NewPlatformPostRepository(store)

	hub := NewHub()
	dashboard := service.NewDashboardService(nil, pr, pp, sa, ar)
	return NewConsumer(nil, hub, sa, ar, dashboard), store, hub
}

func seedAccount(t *testing.T, store *memory.Store, platform string, connected bool) int64 {
	t.Helper()

	sa := memory.NewSocialAccountRepository(store)
	id, err := sa.Create(context.Background(), nil, &models.SocialAccount{
		UserID:            1,
		Platform:          platform,
		AccountName:       "acct",
		ExternalAccountID: "ext",
		AccessToken:       "token",
		IsConnected:       connected,
	})
	require.NoError(t, err)
	return id
}

func TestApplyFoldsTickIntoConnectedAccounts(t *testing.T) {
	consumer, store, _ := newConsumerFixture(t)
	ctx := context.Background()

	connected := seedAccount(t, store, models.PlatformTwitter, true)
	disconnected := seedAccount(t, store, models.PlatformTwitter, false)
	otherPlatform := seedAccount(t, store, models.PlatformLinkedin, true)

	err := consumer.Apply(ctx, &transfer.MetricsEvent{
		Platform: models.PlatformTwitter,
		Metrics:  models.Metrics{"views": 12},
	})
	require.NoError(t, err)

	ar := memory.NewAnalyticsRepository(store)

	sample, err := ar.Latest(ctx, connected)
	require.NoError(t, err)
	require.NotNil(t, sample)
	assert.Equal(t, float64(12), sample.Metrics["views"])

	for _, id := range []int64{disconnected, otherPlatform} {
		sample, err := ar.Latest(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, sample)
	}
}

func TestApplyMergesSameDayTicks(t *testing.T) {
	consumer, store, _ := newConsumerFixture(t)
	ctx := context.Background()

	accountID := seedAccount(t, store, models.PlatformTwitter, true)

	require.NoError(t, consumer.Apply(ctx, &transfer.MetricsEvent{
		Platform: models.PlatformTwitter,
		Metrics:  models.Metrics{"views": 12},
	}))
	require.NoError(t, consumer.Apply(ctx, &transfer.MetricsEvent{
		Platform: models.PlatformTwitter,
		Metrics:  models.Metrics{"views": 20, "likes": 3},
	}))

	ar := memory.NewAnalyticsRepository(store)
	samples, err := ar.ListRecent(ctx, accountID, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, float64(20), samples[0].Metrics["views"])
	assert.Equal(t, float64(3), samples[0].Metrics["likes"])
}

func TestApplyForwardsToHub(t *testing.T) {
	consumer, store, hub := newConsumerFixture(t)
	ctx := context.Background()

	seedAccount(t, store, models.PlatformTwitter, true)

	events := hub.Subscribe()
	defer hub.Unsubscribe(events)

	require.NoError(t, consumer.Apply(ctx, &transfer.MetricsEvent{
		Platform: models.PlatformTwitter,
		Metrics:  models.Metrics{"views": 1},
	}))

	event := <-events
	assert.Equal(t, models.PlatformTwitter, event.Platform)
}

func TestApplyDropsMalformedTicks(t *testing.T) {
	consumer, _, hub := newConsumerFixture(t)
	ctx := context.Background()

	events := hub.Subscribe()
	defer hub.Unsubscribe(events)

	require.NoError(t, consumer.Apply(ctx, &transfer.MetricsEvent{Platform: "myspace", Metrics: models.Metrics{"views": 1}}))
	require.NoError(t, consumer.Apply(ctx, &transfer.MetricsEvent{Platform: models.PlatformTwitter}))

	assert.Empty(t, events)
}
