package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/publisher"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/repository/memory"
	"github.com/pulseboard/pulseboard/internal/service"
)

type failingPublisher struct {
	failAccountID int64
	inner         publisher.Publisher
}

func (p *failingPublisher) Publish(ctx context.Context, account *models.SocialAccount, post *models.Post) (*publisher.Result, error) {
	if account.ID == p.failAccountID {
		return nil, errors.New("simulated platform outage")
	}
	return p.inner.Publish(ctx, account, post)
}

type workerFixture struct {
	store  *memory.Store
	pr     repository.PostRepository
	pp     repository.PlatformPostRepository
	sa     repository.SocialAccountRepository
	ledger service.LedgerService
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	store := memory.NewStore()
	pr := memory.NewPostRepository(store)
	pp := memory.NewPlatformPostRepository(store)
	sa := memory.NewSocialAccountRepository(store)

	return &workerFixture{
		store:  store,
		pr:     pr,
		pp:     pp,
		sa:     sa,
		ledger: service.NewLedgerService(store, pr, pp),
	}
}

func (f *workerFixture) seedScheduledPost(t *testing.T, accountIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()

	when := time.Now().Add(-time.Minute)
	postID, err := f.pr.Create(ctx, nil, &models.Post{
		UserID:       1,
		Content:      "queued up",
		Status:       models.PostStatusScheduled,
		ScheduledFor: &when,
	})
	require.NoError(t, err)

	for _, accountID := range accountIDs {
		_, err := f.pp.Create(ctx, nil, &models.PlatformPost{
			PostID:          postID,
			SocialAccountID: accountID,
			PlatformStatus:  models.PlatformStatusPending,
			Metrics:         models.Metrics{},
		})
		require.NoError(t, err)
	}
	return postID
}

func (f *workerFixture) seedAccount(t *testing.T, platform string, connected bool) int64 {
	t.Helper()

	id, err := f.sa.Create(context.Background(), nil, &models.SocialAccount{
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

func TestPublishPostSettlesAllRows(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	a := f.seedAccount(t, models.PlatformTwitter, true)
	b := f.seedAccount(t, models.PlatformLinkedin, true)
	postID := f.seedScheduledPost(t, a, b)

	q := NewQueue(f.pr, f.pp, f.sa, f.ledger, publisher.NewSimulated())
	require.NoError(t, q.PublishPost(ctx, postID))

	rows, err := f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, models.PlatformStatusPublished, row.PlatformStatus)
		assert.NotEmpty(t, row.PlatformPostID)
		assert.NotEmpty(t, row.PlatformPostURL)
		assert.NotNil(t, row.PublishedAt)
	}

	post, err := f.pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
}

func TestPublishPostPartialFailure(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	good := f.seedAccount(t, models.PlatformTwitter, true)
	bad := f.seedAccount(t, models.PlatformLinkedin, true)
	postID := f.seedScheduledPost(t, good, bad)

	q := NewQueue(f.pr, f.pp, f.sa, f.ledger, &failingPublisher{failAccountID: bad, inner: publisher.NewSimulated()})
	require.NoError(t, q.PublishPost(ctx, postID))

	rows, err := f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)

	statuses := map[int64]string{}
	for _, row := range rows {
		statuses[row.SocialAccountID] = row.PlatformStatus
	}
	assert.Equal(t, models.PlatformStatusPublished, statuses[good])
	assert.Equal(t, models.PlatformStatusFailed, statuses[bad])

	// One success is enough to call the post published.
	post, err := f.pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
}

func TestPublishPostDisconnectedAccountFails(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	gone := f.seedAccount(t, models.PlatformTwitter, false)
	postID := f.seedScheduledPost(t, gone)

	q := NewQueue(f.pr, f.pp, f.sa, f.ledger, publisher.NewSimulated())
	require.NoError(t, q.PublishPost(ctx, postID))

	rows, err := f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.PlatformStatusFailed, rows[0].PlatformStatus)
	assert.NotEmpty(t, rows[0].ErrorMessage)

	post, err := f.pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
}

func TestRetriedPostIsRepublished(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	a := f.seedAccount(t, models.PlatformTwitter, true)
	postID := f.seedScheduledPost(t, a)

	down := &failingPublisher{failAccountID: a, inner: publisher.NewSimulated()}
	q := NewQueue(f.pr, f.pp, f.sa, f.ledger, down)
	require.NoError(t, q.PublishPost(ctx, postID))

	post, err := f.pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	require.Equal(t, models.PostStatusFailed, post.Status)

	// User reschedules the failed post; the platform is back up for the
	// second run.
	posts := service.NewPostService(f.store, f.pr, f.pp, f.sa)
	_, err = posts.UpdateStatus(ctx, 1, postID, models.PostStatusScheduled)
	require.NoError(t, err)

	rows, err := f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.PlatformStatusPending, rows[0].PlatformStatus)
	require.Empty(t, rows[0].ErrorMessage)

	q = NewQueue(f.pr, f.pp, f.sa, f.ledger, publisher.NewSimulated())
	require.NoError(t, q.PublishPost(ctx, postID))

	rows, err = f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PlatformStatusPublished, rows[0].PlatformStatus)
	assert.NotEmpty(t, rows[0].PlatformPostID)

	post, err = f.pr.GetByID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
}

func TestPublishPostSkipsDeletedAndSettled(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	q := NewQueue(f.pr, f.pp, f.sa, f.ledger, publisher.NewSimulated())

	// Deleted before the task fired.
	require.NoError(t, q.PublishPost(ctx, 404))

	// Redelivered task for an already published post.
	a := f.seedAccount(t, models.PlatformTwitter, true)
	postID := f.seedScheduledPost(t, a)
	require.NoError(t, q.PublishPost(ctx, postID))

	rows, err := f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	firstID := rows[0].PlatformPostID

	require.NoError(t, q.PublishPost(ctx, postID))
	rows, err = f.pp.ListByPostID(ctx, nil, postID)
	require.NoError(t, err)
	assert.Equal(t, firstID, rows[0].PlatformPostID, "settled row must not be republished")
}
