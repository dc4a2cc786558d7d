package publisher

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pulseboard/pulseboard/internal/models"
)

// simulatedPublisher stands in for the real platform APIs: it mints a
// platform post id and builds the canonical URL a real publish would
// return. Useful for demos and for every test that exercises the
// publish pipeline.
type simulatedPublisher struct{}

func NewSimulated() Publisher {
	return &simulatedPublisher{}
}

func (p *simulatedPublisher) Publish(ctx context.Context, account *models.SocialAccount, post *models.Post) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !account.IsConnected {
		return nil, fmt.Errorf("account %q is disconnected", account.AccountName)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	url, err := postURL(account, id)
	if err != nil {
		return nil, err
	}
	return &Result{PlatformPostID: id, PlatformPostURL: url}, nil
}

func postURL(account *models.SocialAccount, postID string) (string, error) {
	switch account.Platform {
	case models.PlatformTwitter:
		return fmt.Sprintf("https://twitter.com/%s/status/%s", account.AccountName, postID), nil
	case models.PlatformInstagram:
		return fmt.Sprintf("https://www.instagram.com/p/%s/", postID), nil
	case models.PlatformFacebook:
		return fmt.Sprintf("https://www.facebook.com/%s/posts/%s", account.ExternalAccountID, postID), nil
	case models.PlatformLinkedin:
		return fmt.Sprintf("https://www.linkedin.com/feed/update/%s/", postID), nil
	default:
		return "", fmt.Errorf("unknown platform %q", account.Platform)
	}
}
