package models

import "time"

// AnalyticsSnapshot is one dated metrics sample for one social account,
// delivered by the telemetry feed. Summary queries only ever read the
// most recent sample per account.
type AnalyticsSnapshot struct {
	ID              int64     `db:"id" json:"id"`
	SocialAccountID int64     `db:"social_account_id" json:"social_account_id"`
	Date            time.Time `db:"date" json:"date"`
	Metrics         Metrics   `db:"metrics" json:"metrics"`
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
