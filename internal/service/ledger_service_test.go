package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

func publishedOutcome(id string) *transfer.PublishOutcome {
	return &transfer.PublishOutcome{
		Status:          models.PlatformStatusPublished,
		PlatformPostID:  id,
		PlatformPostURL: "https://example.com/" + id,
	}
}

func failedTestOutcome(msg string) *transfer.PublishOutcome {
	return &transfer.PublishOutcome{
		Status:       models.PlatformStatusFailed,
		ErrorMessage: msg,
	}
}

func TestRecordOutcomePublishesRow(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	post := h.schedulePost(t, "outgoing", a.ID)
	ctx := context.Background()

	row, err := h.ledger.RecordOutcome(ctx, post.Platforms[0].ID, publishedOutcome("tw-1"))
	require.NoError(t, err)

	assert.Equal(t, models.PlatformStatusPublished, row.PlatformStatus)
	assert.Equal(t, "tw-1", row.PlatformPostID)
	require.NotNil(t, row.PublishedAt)
}

func TestRecordOutcomeRejectsSettledRow(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	post := h.schedulePost(t, "settle once", a.ID)
	ctx := context.Background()
	rowID := post.Platforms[0].ID

	_, err := h.ledger.RecordOutcome(ctx, rowID, publishedOutcome("tw-1"))
	require.NoError(t, err)

	_, err = h.ledger.RecordOutcome(ctx, rowID, failedTestOutcome("late failure"))
	assert.True(t, errs.IsInvalidTransition(err))

	// First outcome stands.
	rows, err := h.ledger.ListForPost(ctx, h.userID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlatformStatusPublished, rows[0].PlatformStatus)
}

func TestRecordOutcomeValidation(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	post := h.schedulePost(t, "bad outcomes", a.ID)
	ctx := context.Background()
	rowID := post.Platforms[0].ID

	_, err := h.ledger.RecordOutcome(ctx, rowID, &transfer.PublishOutcome{Status: models.PlatformStatusPending})
	assert.True(t, errs.IsValidation(err))

	_, err = h.ledger.RecordOutcome(ctx, rowID, &transfer.PublishOutcome{Status: models.PlatformStatusPublished})
	assert.True(t, errs.IsValidation(err), "published outcome without platform post id")

	_, err = h.ledger.RecordOutcome(ctx, rowID, &transfer.PublishOutcome{Status: models.PlatformStatusFailed})
	assert.True(t, errs.IsValidation(err), "failed outcome without error message")

	_, err = h.ledger.RecordOutcome(ctx, 404, publishedOutcome("x"))
	assert.True(t, errs.IsNotFound(err))
}

func TestParentStaysScheduledWhilePending(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	b := h.connectAccount(t, models.PlatformLinkedin, "beta")
	post := h.schedulePost(t, "half done", a.ID, b.ID)
	ctx := context.Background()

	_, err := h.ledger.RecordOutcome(ctx, post.Platforms[0].ID, publishedOutcome("tw-1"))
	require.NoError(t, err)

	current, err := h.posts.Get(ctx, h.userID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, current.Status)
}

func TestParentPublishedOnPartialSuccess(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	b := h.connectAccount(t, models.PlatformLinkedin, "beta")
	post := h.schedulePost(t, "one of two", a.ID, b.ID)
	ctx := context.Background()

	_, err := h.ledger.RecordOutcome(ctx, post.Platforms[0].ID, publishedOutcome("tw-1"))
	require.NoError(t, err)
	_, err = h.ledger.RecordOutcome(ctx, post.Platforms[1].ID, failedTestOutcome("rate limited"))
	require.NoError(t, err)

	current, err := h.posts.Get(ctx, h.userID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, current.Status)
}

func TestParentFailedWhenAllFail(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	b := h.connectAccount(t, models.PlatformLinkedin, "beta")
	post := h.schedulePost(t, "nothing landed", a.ID, b.ID)
	ctx := context.Background()

	_, err := h.ledger.RecordOutcome(ctx, post.Platforms[0].ID, failedTestOutcome("expired token"))
	require.NoError(t, err)
	_, err = h.ledger.RecordOutcome(ctx, post.Platforms[1].ID, failedTestOutcome("expired token"))
	require.NoError(t, err)

	current, err := h.posts.Get(ctx, h.userID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, current.Status)
}

func TestUpdateMetricsMergeKeepsUntouchedKeys(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	post := h.schedulePost(t, "metrics", a.ID)
	ctx := context.Background()
	rowID := post.Platforms[0].ID

	_, err := h.ledger.RecordOutcome(ctx, rowID, publishedOutcome("tw-1"))
	require.NoError(t, err)

	_, err = h.ledger.UpdateMetrics(ctx, h.userID, rowID, models.Metrics{"likes": 10, "shares": 2})
	require.NoError(t, err)

	row, err := h.ledger.UpdateMetrics(ctx, h.userID, rowID, models.Metrics{"likes": 25})
	require.NoError(t, err)

	assert.Equal(t, float64(25), row.Metrics["likes"])
	assert.Equal(t, float64(2), row.Metrics["shares"])
}

func TestUpdateMetricsValidation(t *testing.T) {
	h := newHarness(t)
	a := h.connectAccount(t, models.PlatformTwitter, "alpha")
	post := h.schedulePost(t, "metrics guard", a.ID)
	ctx := context.Background()

	_, err := h.ledger.UpdateMetrics(ctx, h.userID, post.Platforms[0].ID, models.Metrics{})
	assert.True(t, errs.IsValidation(err))

	_, err = h.ledger.UpdateMetrics(ctx, h.userID+1, post.Platforms[0].ID, models.Metrics{"likes": 1})
	assert.True(t, errs.IsNotFound(err))
}
