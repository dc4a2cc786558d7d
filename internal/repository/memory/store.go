// Package memory provides a mutex-guarded in-memory implementation of the
// repository interfaces. It backs tests and zero-dependency deployments;
// data lives only as long as the process.
package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

// txToken marks a call as running inside WithinTx, where the store's
// write lock is already held.
type txToken struct{}

type Store struct {
	mu sync.RWMutex

	users          map[int64]*models.User
	socialAccounts map[int64]*models.SocialAccount
	posts          map[int64]*models.Post
	platformPosts  map[int64]*models.PlatformPost
	analytics      map[int64]*models.AnalyticsSnapshot
	mediaAssets    map[int64]*models.MediaAsset

	nextUserID          int64
	nextSocialAccountID int64
	nextPostID          int64
	nextPlatformPostID  int64
	nextAnalyticsID     int64
	nextMediaAssetID    int64
}

func NewStore() *Store {
	return &Store{
		users:               make(map[int64]*models.User),
		socialAccounts:      make(map[int64]*models.SocialAccount),
		posts:               make(map[int64]*models.Post),
		platformPosts:       make(map[int64]*models.PlatformPost),
		analytics:           make(map[int64]*models.AnalyticsSnapshot),
		mediaAssets:         make(map[int64]*models.MediaAsset),
		nextUserID:          1,
		nextSocialAccountID: 1,
		nextPostID:          1,
		nextPlatformPostID:  1,
		nextAnalyticsID:     1,
		nextMediaAssetID:    1,
	}
}

// WithinTx holds the write lock for the whole unit of work and restores a
// snapshot of every table if fn fails, so partial fan-outs are never
// observable and always roll back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txToken{}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type tables struct {
	users          map[int64]*models.User
	socialAccounts map[int64]*models.SocialAccount
	posts          map[int64]*models.Post
	platformPosts  map[int64]*models.PlatformPost
	analytics      map[int64]*models.AnalyticsSnapshot
	mediaAssets    map[int64]*models.MediaAsset

	nextUserID          int64
	nextSocialAccountID int64
	nextPostID          int64
	nextPlatformPostID  int64
	nextAnalyticsID     int64
	nextMediaAssetID    int64
}

// Entries are never mutated in place (repositories replace whole values),
// so copying the maps is enough for rollback.
func (s *Store) snapshot() tables {
	return tables{
		users:               copyTable(s.users),
		socialAccounts:      copyTable(s.socialAccounts),
		posts:               copyTable(s.posts),
		platformPosts:       copyTable(s.platformPosts),
		analytics:           copyTable(s.analytics),
		mediaAssets:         copyTable(s.mediaAssets),
		nextUserID:          s.nextUserID,
		nextSocialAccountID: s.nextSocialAccountID,
		nextPostID:          s.nextPostID,
		nextPlatformPostID:  s.nextPlatformPostID,
		nextAnalyticsID:     s.nextAnalyticsID,
		nextMediaAssetID:    s.nextMediaAssetID,
	}
}

func (s *Store) restore(snap tables) {
	s.users = snap.users
	s.socialAccounts = snap.socialAccounts
	s.posts = snap.posts
	s.platformPosts = snap.platformPosts
	s.analytics = snap.analytics
	s.mediaAssets = snap.mediaAssets
	s.nextUserID = snap.nextUserID
	s.nextSocialAccountID = snap.nextSocialAccountID
	s.nextPostID = snap.nextPostID
	s.nextPlatformPostID = snap.nextPlatformPostID
	s.nextAnalyticsID = snap.nextAnalyticsID
	s.nextMediaAssetID = snap.nextMediaAssetID
}

func copyTable[V any](src map[int64]V) map[int64]V {
	dst := make(map[int64]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// lock acquires the write lock unless the caller already holds it via
// WithinTx. It returns the matching unlock.
func (s *Store) lock(tx repository.Tx) func() {
	if tx != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(tx repository.Tx) func() {
	if tx != nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// SeedDemoUser creates the default development user the dashboard signs
// in as when no user exists yet. passwordHash must already be hashed.
func (s *Store) SeedDemoUser(passwordHash string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == "demo" {
			return u
		}
	}

	user := &models.User{
		ID:        s.nextUserID,
		Username:  "demo",
		Password:  passwordHash,
		Email:     "demo@example.com",
		FullName:  "Demo User",
		AvatarURL: "https://ui-avatars.com/api/?name=Demo+User&background=random",
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	s.nextUserID++
	return user
}

// SeedDemoData seeds the demo user plus a working set of connected
// accounts, posts and a week of analytics, so a fresh in-memory
// deployment has a dashboard worth looking at. Seeding twice is a no-op.
func (s *Store) SeedDemoData(passwordHash string) *models.User {
	user := s.SeedDemoUser(passwordHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.socialAccounts) > 0 {
		return user
	}

	now := time.Now()
	today := now.Truncate(24 * time.Hour)

	account := func(platform, name, externalID string) int64 {
		id := s.nextSocialAccountID
		s.socialAccounts[id] = &models.SocialAccount{
			ID:                id,
			UserID:            user.ID,
			Platform:          platform,
			AccountName:       name,
			ExternalAccountID: externalID,
			AccessToken:       "mock-token",
			IsConnected:       true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		s.nextSocialAccountID++
		return id
	}

	twitter := account(models.PlatformTwitter, "demo_twitter", "twitter123")
	instagram := account(models.PlatformInstagram, "demo_instagram", "instagram123")
	facebook := account(models.PlatformFacebook, "demo_facebook", "facebook123")
	linkedin := account(models.PlatformLinkedin, "demo_linkedin", "linkedin123")

	post := func(content string, scheduledFor time.Time, status string) int64 {
		id := s.nextPostID
		when := scheduledFor
		s.posts[id] = &models.Post{
			ID:           id,
			UserID:       user.ID,
			Content:      content,
			ScheduledFor: &when,
			Status:       status,
			CreatedAt:    now,
		}
		s.nextPostID++
		return id
	}

	row := func(pp models.PlatformPost) {
		pp.ID = s.nextPlatformPostID
		if pp.Metrics == nil {
			pp.Metrics = models.Metrics{}
		}
		record := pp
		s.platformPosts[record.ID] = &record
		s.nextPlatformPostID++
	}

	upcoming := post("Announcing our new product feature", now.AddDate(0, 0, 2), models.PostStatusScheduled)
	photoshoot := post("Behind the scenes: Summer photoshoot", now.AddDate(0, 0, 3), models.PostStatusScheduled)
	spotlight := post("Customer spotlight: Success stories", now.AddDate(0, 0, 4), models.PostStatusDraft)
	row(models.PlatformPost{PostID: upcoming, SocialAccountID: twitter, PlatformStatus: models.PlatformStatusPending})
	row(models.PlatformPost{PostID: photoshoot, SocialAccountID: instagram, PlatformStatus: models.PlatformStatusPending})
	row(models.PlatformPost{PostID: spotlight, SocialAccountID: facebook, PlatformStatus: models.PlatformStatusPending})

	published := func(content string, daysAgo int, accountID int64, externalID, url string, metrics models.Metrics) {
		when := now.AddDate(0, 0, -daysAgo)
		id := post(content, when, models.PostStatusPublished)
		row(models.PlatformPost{
			PostID:          id,
			SocialAccountID: accountID,
			PlatformStatus:  models.PlatformStatusPublished,
			PlatformPostID:  externalID,
			PlatformPostURL: url,
			PublishedAt:     &when,
			Metrics:         metrics,
		})
	}

	published("Top 10 productivity hacks for remote teams", 3, twitter,
		"123456789", "https://twitter.com/demo_twitter/status/123456789",
		models.Metrics{"views": 3200, "likes": 845, "shares": 221, "engagementRate": 4.8})
	published("New product launch: Summer collection", 5, instagram,
		"987654321", "https://instagram.com/p/987654321",
		models.Metrics{"views": 5700, "likes": 1200, "shares": 342, "engagementRate": 6.5})
	published("Industry trends for Q3", 7, linkedin,
		"555555555", "https://linkedin.com/post/555555555",
		models.Metrics{"views": 2900, "likes": 632, "shares": 78, "engagementRate": 3.2})

	sample := func(accountID int64, date time.Time, metrics models.Metrics) {
		id := s.nextAnalyticsID
		s.analytics[id] = &models.AnalyticsSnapshot{
			ID:              id,
			SocialAccountID: accountID,
			Date:            date,
			Metrics:         metrics,
		}
		s.nextAnalyticsID++
	}

	// A week of daily samples per account, trending up to today.
	for _, accountID := range []int64{twitter, instagram, facebook, linkedin} {
		for i := 7; i >= 0; i-- {
			day := today.AddDate(0, 0, -i)
			sample(accountID, day, models.Metrics{
				"views":       float64(1000 + rand.Intn(500) + (7-i)*40),
				"engagements": float64(400 + rand.Intn(200) + (7-i)*15),
				"shares":      float64(100 + rand.Intn(50) + (7-i)*4),
				"followers":   float64(40 + rand.Intn(20) + (7-i)*2),
			})
		}
	}

	return user
}
