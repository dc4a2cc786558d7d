package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

const (
	statsCacheTTL     = 5 * time.Minute
	recentSampleDays  = 30
	recentPostsLimit  = 10
	upcomingPostLimit = 20
)

// DashboardService is a read-side aggregation layer over the post
// store, the ledger and the analytics samples. It owns no state of its
// own except the redis stats cache.
type DashboardService interface {
	Upcoming(ctx context.Context, userID int64, limit int) ([]*models.PostWithPlatforms, error)
	RecentPerformance(ctx context.Context, userID int64, limit int) ([]*models.PostWithPlatforms, error)
	SummaryStats(ctx context.Context, userID int64) (*transfer.SummaryStats, error)
	PlatformComparison(ctx context.Context, userID int64) ([]*transfer.PlatformComparison, error)
	Analytics(ctx context.Context, userID int64) ([]*transfer.AccountAnalytics, error)
	AccountAnalytics(ctx context.Context, userID, accountID int64, limit int) (*transfer.AccountAnalytics, error)
	InvalidateStats(ctx context.Context, userID int64)
}

type dashboardService struct {
	rdb *redis.Client
	pr  repository.PostRepository
	pp  repository.PlatformPostRepository
	sa  repository.SocialAccountRepository
	ar  repository.AnalyticsRepository
}

func NewDashboardService(
	rdb *redis.Client,
	pr repository.PostRepository,
	pp repository.PlatformPostRepository,
	sa repository.SocialAccountRepository,
	ar repository.AnalyticsRepository) DashboardService {
	return &dashboardService{
		rdb: rdb,
		pr:  pr,
		pp:  pp,
		sa:  sa,
		ar:  ar,
	}
}

// Upcoming returns scheduled posts soonest-first, with their ledger
// rows attached.
func (s *dashboardService) Upcoming(ctx context.Context, userID int64, limit int) ([]*models.PostWithPlatforms, error) {
	if limit <= 0 {
		limit = upcomingPostLimit
	}
	posts, err := s.pr.ListByUserID(ctx, userID, models.PostStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled posts: %w", err)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return s.attachPlatforms(ctx, posts)
}

// RecentPerformance returns the user's published posts, most recently
// published first, so the metrics on their ledger rows can be shown.
func (s *dashboardService) RecentPerformance(ctx context.Context, userID int64, limit int) ([]*models.PostWithPlatforms, error) {
	if limit <= 0 {
		limit = recentPostsLimit
	}
	posts, err := s.pr.ListPublishedByRecency(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing published posts: %w", err)
	}
	return s.attachPlatforms(ctx, posts)
}

func (s *dashboardService) attachPlatforms(ctx context.Context, posts []*models.Post) ([]*models.PostWithPlatforms, error) {
	result := make([]*models.PostWithPlatforms, 0, len(posts))
	for _, post := range posts {
		platforms, err := s.pp.ListByPostID(ctx, nil, post.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing platform posts for post %d: %w", post.ID, err)
		}
		result = append(result, &models.PostWithPlatforms{Post: *post, Platforms: platforms})
	}
	return result, nil
}

func statsCacheKey(userID int64) string {
	return fmt.Sprintf("stats:%d", userID)
}

// SummaryStats sums the latest analytics sample of every account the
// user owns, with the change against the previous sample. The result
// is cached in redis until the next telemetry tick invalidates it.
func (s *dashboardService) SummaryStats(ctx context.Context, userID int64) (*transfer.SummaryStats, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, statsCacheKey(userID)).Result()
		if err == nil {
			var cached transfer.SummaryStats
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			slog.Info(err.Error())
		}
	}

	stats, err := s.computeSummaryStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, statsCacheKey(userID), raw, statsCacheTTL).Err(); err != nil {
				slog.Info(err.Error())
			}
		}
	}
	return stats, nil
}

func (s *dashboardService) computeSummaryStats(ctx context.Context, userID int64) (*transfer.SummaryStats, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}

	var latest, previous models.Metrics
	latest, previous = models.Metrics{}, models.Metrics{}
	for _, account := range accounts {
		samples, err := s.ar.ListRecent(ctx, account.ID, 2)
		if err != nil {
			return nil, fmt.Errorf("error listing analytics for account %d: %w", account.ID, err)
		}
		if len(samples) > 0 {
			addMetrics(latest, samples[0].Metrics)
		}
		if len(samples) > 1 {
			addMetrics(previous, samples[1].Metrics)
		}
	}

	return &transfer.SummaryStats{
		Views:             latest["views"],
		Engagements:       latest["engagements"],
		Shares:            latest["shares"],
		Followers:         latest["followers"],
		ViewsChange:       percentChange(previous["views"], latest["views"]),
		EngagementsChange: percentChange(previous["engagements"], latest["engagements"]),
		SharesChange:      percentChange(previous["shares"], latest["shares"]),
		FollowersChange:   percentChange(previous["followers"], latest["followers"]),
	}, nil
}

func addMetrics(into, from models.Metrics) {
	for key, value := range from {
		into[key] += value
	}
}

func percentChange(previous, latest float64) float64 {
	if previous == 0 {
		return 0
	}
	return (latest - previous) / previous * 100
}

// InvalidateStats drops the cached summary so the next read recomputes
// it. Cache misses after invalidation are the happy path, errors here
// are logged and swallowed.
func (s *dashboardService) InvalidateStats(ctx context.Context, userID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, statsCacheKey(userID)).Err(); err != nil {
		slog.Info(err.Error())
	}
}

// PlatformComparison builds one row per connected account from its
// latest analytics sample. Accounts with no sample still get a row of
// zeros so the dashboard shows every connected platform.
func (s *dashboardService) PlatformComparison(ctx context.Context, userID int64) ([]*transfer.PlatformComparison, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}

	rows := make([]*transfer.PlatformComparison, 0, len(accounts))
	for _, account := range accounts {
		if !account.IsConnected {
			continue
		}

		row := &transfer.PlatformComparison{
			SocialAccountID: account.ID,
			Platform:        account.Platform,
			AccountName:     account.AccountName,
		}
		sample, err := s.ar.Latest(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("error getting latest analytics for account %d: %w", account.ID, err)
		}
		if sample != nil {
			row.Engagement = sample.Metrics["engagement"]
			row.Reach = sample.Metrics["reach"]
			row.Growth = sample.Metrics["growth"]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Analytics returns the recent sample history for every account the
// user owns, connected or not.
func (s *dashboardService) Analytics(ctx context.Context, userID int64) ([]*transfer.AccountAnalytics, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}

	result := make([]*transfer.AccountAnalytics, 0, len(accounts))
	for _, account := range accounts {
		entry, err := s.accountAnalytics(ctx, account, 0)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *dashboardService) AccountAnalytics(ctx context.Context, userID, accountID int64, limit int) (*transfer.AccountAnalytics, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting social account %d: %w", accountID, err)
	}
	if account == nil || account.UserID != userID {
		return nil, errs.NotFound("social account", accountID)
	}
	return s.accountAnalytics(ctx, account, limit)
}

func (s *dashboardService) accountAnalytics(ctx context.Context, account *models.SocialAccount, limit int) (*transfer.AccountAnalytics, error) {
	if limit <= 0 {
		limit = recentSampleDays
	}
	samples, err := s.ar.ListRecent(ctx, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing analytics for account %d: %w", account.ID, err)
	}
	return &transfer.AccountAnalytics{
		AccountID:   account.ID,
		Platform:    account.Platform,
		AccountName: account.AccountName,
		Analytics:   samples,
	}, nil
}
