package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	Content      string         `db:"content" json:"content"`
	MediaURLs    pq.StringArray `db:"media_urls" json:"media_urls"`
	ScheduledFor *time.Time     `db:"scheduled_for" json:"scheduled_for"`
	Status       string         `db:"status" json:"status"` // draft, scheduled, published, failed
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

func IsValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

// PostWithPlatforms is a Post joined with its per-platform ledger rows,
// the shape every post-returning endpoint responds with.
type PostWithPlatforms struct {
	Post
	Platforms []*PlatformPost `json:"platforms"`
}
