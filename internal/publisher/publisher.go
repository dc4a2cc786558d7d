package publisher

import (
	"context"

	"github.com/pulseboard/pulseboard/internal/models"
)

// Result is what a platform hands back after accepting a post.
type Result struct {
	PlatformPostID  string
	PlatformPostURL string
}

// Publisher delivers a post to one social account's platform. The
// platform is taken from the account record, never inferred from ids.
type Publisher interface {
	Publish(ctx context.Context, account *models.SocialAccount, post *models.Post) (*Result, error)
}
