package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
)

func TestSimulatedPublishBuildsPlatformURL(t *testing.T) {
	pub := NewSimulated()
	ctx := context.Background()
	post := &models.Post{ID: 1, Content: "hi"}

	cases := []struct {
		platform string
		contains string
	}{
		{models.PlatformTwitter, "twitter.com"},
		{models.PlatformInstagram, "instagram.com"},
		{models.PlatformFacebook, "facebook.com"},
		{models.PlatformLinkedin, "linkedin.com"},
	}

	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			account := &models.SocialAccount{ID: 1, Platform: tc.platform, AccountName: "acct", ExternalAccountID: "ext", IsConnected: true}

			result, err := pub.Publish(ctx, account, post)
			require.NoError(t, err)
			assert.NotEmpty(t, result.PlatformPostID)
			assert.Contains(t, result.PlatformPostURL, tc.contains)
		})
	}
}

func TestSimulatedPublishRejectsUnknownPlatform(t *testing.T) {
	pub := NewSimulated()
	account := &models.SocialAccount{ID: 1, Platform: "myspace", AccountName: "acct", IsConnected: true}

	_, err := pub.Publish(context.Background(), account, &models.Post{})
	assert.Error(t, err)
}

func TestSimulatedPublishRejectsDisconnected(t *testing.T) {
	pub := NewSimulated()
	account := &models.SocialAccount{ID: 1, Platform: models.PlatformTwitter, AccountName: "acct"}

	_, err := pub.Publish(context.Background(), account, &models.Post{})
	assert.Error(t, err)
}

func TestSimulatedPublishMintsUniqueIDs(t *testing.T) {
	pub := NewSimulated()
	account := &models.SocialAccount{ID: 1, Platform: models.PlatformTwitter, AccountName: "acct", IsConnected: true}

	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		result, err := pub.Publish(context.Background(), account, &models.Post{})
		require.NoError(t, err)
		_, dup := seen[result.PlatformPostID]
		require.False(t, dup)
		seen[result.PlatformPostID] = struct{}{}
	}
}
