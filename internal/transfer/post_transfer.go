package transfer

import "time"

// PostCreation is the compose-flow request: content plus the social
// account ids to fan out to, with an optional schedule time.
type PostCreation struct {
	Content      string     `json:"content"`
	MediaURLs    []string   `json:"media_urls"`
	Platforms    []int64    `json:"platforms"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

// PublishOutcome reports one platform publish attempt back to the ledger.
type PublishOutcome struct {
	Status          string `json:"status"`
	PlatformPostID  string `json:"platform_post_id"`
	PlatformPostURL string `json:"platform_post_url"`
	ErrorMessage    string `json:"error_message"`
}
