package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	pr := NewPostRepository(store)
	pp := NewPlatformPostRepository(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Tx) error {
		postID, err := pr.Create(ctx, tx, &models.Post{UserID: 1, Content: "doomed", Status: models.PostStatusDraft})
		require.NoError(t, err)

		_, err = pp.Create(ctx, tx, &models.PlatformPost{PostID: postID, SocialAccountID: 1, PlatformStatus: models.PlatformStatusPending})
		require.NoError(t, err)

		return boom
	})
	require.ErrorIs(t, err, boom)

	posts, err := pr.ListByUserID(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, posts, "rolled back post must not be visible")

	rows, err := pp.ListByPostID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	store := NewStore()
	pr := NewPostRepository(store)
	pp := NewPlatformPostRepository(store)
	ctx := context.Background()

	var postID int64
	err := store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		postID, err = pr.Create(ctx, tx, &models.Post{UserID: 1, Content: "kept", Status: models.PostStatusDraft})
		if err != nil {
			return err
		}
		_, err = pp.Create(ctx, tx, &models.PlatformPost{PostID: postID, SocialAccountID: 1, PlatformStatus: models.PlatformStatusPending})
		return err
	})
	require.NoError(t, err)

	post, err := pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	require.NotNil(t, post)

	rows, err := pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	store := NewStore()
	pr := NewPostRepository(store)
	ctx := context.Background()

	id, err := pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "original", Status: models.PostStatusDraft})
	require.NoError(t, err)

	got, err := pr.GetByID(ctx, nil, id)
	require.NoError(t, err)
	got.Content = "mutated by caller"

	again, err := pr.GetByID(ctx, nil, id)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Content)
}

func TestListByUserIDOrdering(t *testing.T) {
	store := NewStore()
	pr := NewPostRepository(store)
	ctx := context.Background()

	later := time.Now().Add(2 * time.Hour)
	sooner := time.Now().Add(1 * time.Hour)

	_, err := pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "unscheduled", Status: models.PostStatusDraft})
	require.NoError(t, err)
	_, err = pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "later", Status: models.PostStatusScheduled, ScheduledFor: &later})
	require.NoError(t, err)
	_, err = pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "sooner", Status: models.PostStatusScheduled, ScheduledFor: &sooner})
	require.NoError(t, err)

	posts, err := pr.ListByUserID(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "sooner", posts[0].Content)
	assert.Equal(t, "later", posts[1].Content)
	assert.Equal(t, "unscheduled", posts[2].Content, "posts without a schedule sort last")
}

func TestMergeMetricsIsAdditive(t *testing.T) {
	store := NewStore()
	pp := NewPlatformPostRepository(store)
	ctx := context.Background()

	id, err := pp.Create(ctx, nil, &models.PlatformPost{PostID: 1, SocialAccountID: 1, PlatformStatus: models.PlatformStatusPublished, Metrics: models.Metrics{"likes": 5}})
	require.NoError(t, err)

	row, err := pp.MergeMetrics(ctx, id, models.Metrics{"shares": 3})
	require.NoError(t, err)
	assert.Equal(t, float64(5), row.Metrics["likes"])
	assert.Equal(t, float64(3), row.Metrics["shares"])

	row, err = pp.MergeMetrics(ctx, id, models.Metrics{"likes": 9})
	require.NoError(t, err)
	assert.Equal(t, float64(9), row.Metrics["likes"], "patch overwrites the key it names")
	assert.Equal(t, float64(3), row.Metrics["shares"], "untouched keys survive")
}

func TestAnalyticsUpsertForDateMerges(t *testing.T) {
	store := NewStore()
	ar := NewAnalyticsRepository(store)
	ctx := context.Background()

	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ar.UpsertForDate(ctx, 1, date, models.Metrics{"views": 10}))
	require.NoError(t, ar.UpsertForDate(ctx, 1, date, models.Metrics{"likes": 2}))

	latest, err := ar.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, float64(10), latest.Metrics["views"])
	assert.Equal(t, float64(2), latest.Metrics["likes"])

	samples, err := ar.ListRecent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, samples, 1, "same date folds into one sample")
}

func TestRemoveByPostIDOnlyTouchesOnePost(t *testing.T) {
	store := NewStore()
	pp := NewPlatformPostRepository(store)
	ctx := context.Background()

	_, err := pp.Create(ctx, nil, &models.PlatformPost{PostID: 1, SocialAccountID: 1, PlatformStatus: models.PlatformStatusPending})
	require.NoError(t, err)
	_, err = pp.Create(ctx, nil, &models.PlatformPost{PostID: 2, SocialAccountID: 1, PlatformStatus: models.PlatformStatusPending})
	require.NoError(t, err)

	require.NoError(t, pp.RemoveByPostID(ctx, nil, 1))

	gone, err := pp.ListByPostID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := pp.ListByPostID(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestListDueScheduled(t *testing.T) {
	store := NewStore()
	pr := NewPostRepository(store)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	_, err := pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "due", Status: models.PostStatusScheduled, ScheduledFor: &past})
	require.NoError(t, err)
	_, err = pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "not yet", Status: models.PostStatusScheduled, ScheduledFor: &future})
	require.NoError(t, err)
	_, err = pr.Create(ctx, nil, &models.Post{UserID: 1, Content: "draft", Status: models.PostStatusDraft})
	require.NoError(t, err)

	due, err := pr.ListDueScheduled(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].Content)
}

func TestSeedDemoDataPopulatesDashboard(t *testing.T) {
	store := NewStore()
	sa := NewSocialAccountRepository(store)
	pr := NewPostRepository(store)
	pp := NewPlatformPostRepository(store)
	ar := NewAnalyticsRepository(store)
	ctx := context.Background()

	user := store.SeedDemoData("not-a-real-hash")
	require.NotNil(t, user)

	accounts, err := sa.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	platforms := map[string]bool{}
	for _, account := range accounts {
		assert.True(t, account.IsConnected)
		platforms[account.Platform] = true
	}
	assert.Len(t, platforms, 4, "one account per platform")

	scheduled, err := pr.ListByUserID(ctx, user.ID, models.PostStatusScheduled)
	require.NoError(t, err)
	assert.NotEmpty(t, scheduled)

	recent, err := pr.ListPublishedByRecency(ctx, user.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	rows, err := pp.ListByPostID(ctx, nil, recent[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, models.PlatformStatusPublished, rows[0].PlatformStatus)
	assert.NotEmpty(t, rows[0].Metrics)

	for _, account := range accounts {
		samples, err := ar.ListRecent(ctx, account.ID, 30)
		require.NoError(t, err)
		assert.Len(t, samples, 8, "a week of samples plus today for account %d", account.ID)
	}

	// Seeding again must not duplicate anything.
	store.SeedDemoData("not-a-real-hash")
	accounts, err = sa.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 4)
}
