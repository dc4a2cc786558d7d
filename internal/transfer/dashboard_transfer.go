package transfer

import "github.com/pulseboard/pulseboard/internal/models"

// SummaryStats sums the most recent analytics sample of every account a
// user owns. Accounts with no sample contribute zero.
type SummaryStats struct {
	Views             float64 `json:"views"`
	Engagements       float64 `json:"engagements"`
	Shares            float64 `json:"shares"`
	Followers         float64 `json:"followers"`
	ViewsChange       float64 `json:"views_change"`
	EngagementsChange float64 `json:"engagements_change"`
	SharesChange      float64 `json:"shares_change"`
	FollowersChange   float64 `json:"followers_change"`
}

// PlatformComparison is one dashboard row per connected account, built
// from its latest analytics sample.
type PlatformComparison struct {
	SocialAccountID int64   `json:"social_account_id"`
	Platform        string  `json:"platform"`
	AccountName     string  `json:"account_name"`
	Engagement      float64 `json:"engagement"`
	Reach           float64 `json:"reach"`
	Growth          float64 `json:"growth"`
}

// AccountAnalytics pairs an account with its recent samples for the
// analytics page.
type AccountAnalytics struct {
	AccountID   int64                       `json:"account_id"`
	Platform    string                      `json:"platform"`
	AccountName string                      `json:"account_name"`
	Analytics   []*models.AnalyticsSnapshot `json:"analytics"`
}
