package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Metrics is the open key->number mapping stored alongside ledger rows
// and analytics samples (views, likes, shares, engagementRate, ...).
type Metrics map[string]float64

func (m Metrics) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metrics) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metrics{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("metrics: cannot scan %T", src)
}

// Merge returns a copy of m with the patch applied on top. Keys absent
// from the patch keep their previous values.
func (m Metrics) Merge(patch Metrics) Metrics {
	merged := make(Metrics, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// PlatformPost is one ledger row of a fan-out: a single post targeted at
// a single social account, with its own publish status and metrics.
type PlatformPost struct {
	ID              int64      `db:"id" json:"id"`
	PostID          int64      `db:"post_id" json:"post_id"`
	SocialAccountID int64      `db:"social_account_id" json:"social_account_id"`
	PlatformStatus  string     `db:"platform_status" json:"platform_status"` // pending, published, failed
	PlatformPostID  string     `db:"platform_post_id" json:"platform_post_id"`
	PlatformPostURL string     `db:"platform_post_url" json:"platform_post_url"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at"`
	Metrics         Metrics    `db:"metrics" json:"metrics"`
}

const (
	PlatformStatusPending   = "pending"
	PlatformStatusPublished = "published"
	PlatformStatusFailed    = "failed"
)
