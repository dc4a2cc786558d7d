package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMerge(t *testing.T) {
	base := Metrics{"likes": 5, "shares": 2}
	merged := base.Merge(Metrics{"likes": 9, "views": 100})

	assert.Equal(t, Metrics{"likes": 9, "shares": 2, "views": 100}, merged)
	assert.Equal(t, Metrics{"likes": 5, "shares": 2}, base, "merge must not mutate the receiver")

	assert.Equal(t, Metrics{}, Metrics(nil).Merge(nil))
}

func TestMetricsScanRoundTrip(t *testing.T) {
	value, err := Metrics{"likes": 5}.Value()
	require.NoError(t, err)

	var got Metrics
	require.NoError(t, got.Scan(value))
	assert.Equal(t, float64(5), got["likes"])

	require.NoError(t, got.Scan(nil))
	assert.Empty(t, got)
}

func TestIsValidPlatform(t *testing.T) {
	for _, platform := range []string{PlatformTwitter, PlatformInstagram, PlatformFacebook, PlatformLinkedin} {
		assert.True(t, IsValidPlatform(platform))
		_, ok := ContentLimits[platform]
		assert.True(t, ok, "%s needs a content limit", platform)
	}
	assert.False(t, IsValidPlatform("myspace"))
	assert.False(t, IsValidPlatform(""))
}

func TestIsValidPostStatus(t *testing.T) {
	for _, status := range []string{PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusFailed} {
		assert.True(t, IsValidPostStatus(status))
	}
	assert.False(t, IsValidPostStatus("archived"))
}
