package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

// PostService owns the post lifecycle: compose-time validation, the
// fan-out into per-platform ledger rows, the status state machine and
// cascade deletion.
type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.PostWithPlatforms, time.Duration, error)
	Get(ctx context.Context, userID, postID int64) (*models.PostWithPlatforms, error)
	List(ctx context.Context, userID int64, status string) ([]*models.PostWithPlatforms, error)
	UpdateStatus(ctx context.Context, userID, postID int64, status string) (*models.PostWithPlatforms, error)
	Remove(ctx context.Context, userID, postID int64) (bool, error)
}

type postService struct {
	txm repository.TxManager
	pr  repository.PostRepository
	pp  repository.PlatformPostRepository
	sa  repository.SocialAccountRepository
}

func NewPostService(
	txm repository.TxManager,
	pr repository.PostRepository,
	pp repository.PlatformPostRepository,
	sa repository.SocialAccountRepository) PostService {
	return &postService{
		txm: txm,
		pr:  pr,
		pp:  pp,
		sa:  sa,
	}
}

// Create validates the compose request, then writes the post and its
// ledger rows in one transaction: a reader never sees a non-draft post
// without children, and a failed fan-out leaves nothing behind. The
// returned delay is how long until the post is due for publishing
// (zero for drafts).
func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.PostWithPlatforms, time.Duration, error) {
	if pc.Content == "" {
		return nil, 0, errs.Validation("content", "content is required")
	}
	if len(pc.Platforms) == 0 {
		return nil, 0, errs.Validation("platforms", "select at least one platform")
	}

	// Strict fan-out policy: any unknown or disconnected target rejects
	// the whole request rather than silently skipping it.
	accounts, err := s.resolveTargets(ctx, userID, pc.Platforms)
	if err != nil {
		return nil, 0, err
	}

	if err := validateContentLength(pc.Content, accounts); err != nil {
		return nil, 0, err
	}

	status := models.PostStatusDraft
	if pc.ScheduledFor != nil {
		if !pc.ScheduledFor.After(time.Now()) {
			return nil, 0, errs.Validation("scheduled_for", "scheduled time must be in the future")
		}
		status = models.PostStatusScheduled
	}

	post := models.Post{
		UserID:       userID,
		Content:      pc.Content,
		MediaURLs:    pc.MediaURLs,
		ScheduledFor: pc.ScheduledFor,
		Status:       status,
	}

	var postID int64
	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		postID, err = s.pr.Create(ctx, tx, &post)
		if err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}

		for _, account := range accounts {
			row := models.PlatformPost{
				PostID:          postID,
				SocialAccountID: account.ID,
				PlatformStatus:  models.PlatformStatusPending,
				Metrics:         models.Metrics{},
			}
			if _, err := s.pp.Create(ctx, tx, &row); err != nil {
				return fmt.Errorf("error creating platform post for account %d: %w", account.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	result, err := s.withPlatforms(ctx, postID)
	if err != nil {
		return nil, 0, err
	}

	var delay time.Duration
	if pc.ScheduledFor != nil {
		if delay = time.Until(*pc.ScheduledFor); delay < 0 {
			delay = 0
		}
	}
	return result, delay, nil
}

// resolveTargets maps the requested account ids to accounts, deduplicating
// so one fan-out never creates two rows for the same (post, account)
// pair. Platform identity always comes from the registry record.
func (s *postService) resolveTargets(ctx context.Context, userID int64, accountIDs []int64) ([]*models.SocialAccount, error) {
	seen := make(map[int64]struct{}, len(accountIDs))
	accounts := make([]*models.SocialAccount, 0, len(accountIDs))

	for _, id := range accountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		account, err := s.sa.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error getting social account %d: %w", id, err)
		}
		if account == nil || account.UserID != userID {
			return nil, errs.NotFound("social account", id)
		}
		if !account.IsConnected {
			return nil, errs.Validation("platforms", fmt.Sprintf("account %q (%s) is disconnected", account.AccountName, account.Platform))
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// validateContentLength rejects content longer than the smallest limit
// among the targeted platforms, so no platform would truncate it.
func validateContentLength(content string, accounts []*models.SocialAccount) error {
	length := len([]rune(content))
	for _, account := range accounts {
		limit, ok := models.ContentLimits[account.Platform]
		if !ok {
			return errs.Consistency("account %d has unknown platform %q", account.ID, account.Platform)
		}
		if length > limit {
			return errs.Validation("content", fmt.Sprintf("content is %d characters; %s allows at most %d", length, account.Platform, limit))
		}
	}
	return nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.PostWithPlatforms, error) {
	post, err := s.pr.GetByID(ctx, nil, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post %d: %w", postID, err)
	}
	if post == nil || post.UserID != userID {
		return nil, errs.NotFound("post", postID)
	}

	platforms, err := s.pp.ListByPostID(ctx, nil, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing platform posts for post %d: %w", postID, err)
	}
	return &models.PostWithPlatforms{Post: *post, Platforms: platforms}, nil
}

func (s *postService) List(ctx context.Context, userID int64, status string) ([]*models.PostWithPlatforms, error) {
	if status != "" && !models.IsValidPostStatus(status) {
		return nil, errs.Validation("status", fmt.Sprintf("unknown status %q", status))
	}

	posts, err := s.pr.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

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

// allowedTransitions is the post status state machine. Published is
// terminal; failed posts can be rescheduled for a retry.
var allowedTransitions = map[string]map[string]bool{
	models.PostStatusDraft:     {models.PostStatusScheduled: true},
	models.PostStatusScheduled: {models.PostStatusPublished: true, models.PostStatusFailed: true},
	models.PostStatusFailed:    {models.PostStatusScheduled: true},
	models.PostStatusPublished: {},
}

func (s *postService) UpdateStatus(ctx context.Context, userID, postID int64, status string) (*models.PostWithPlatforms, error) {
	if !models.IsValidPostStatus(status) {
		return nil, errs.Validation("status", fmt.Sprintf("unknown status %q", status))
	}

	err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		post, err := s.pr.GetByID(ctx, tx, postID)
		if err != nil {
			return fmt.Errorf("error getting post %d: %w", postID, err)
		}
		if post == nil || post.UserID != userID {
			return errs.NotFound("post", postID)
		}

		if post.Status == status {
			return nil
		}
		if !allowedTransitions[post.Status][status] {
			return errs.InvalidTransition(post.Status, status)
		}
		if status == models.PostStatusScheduled && post.ScheduledFor == nil {
			return errs.Validation("scheduled_for", "cannot schedule a post without a scheduled time")
		}

		// Rescheduling a failed post reopens its failed ledger rows so
		// the next publish run picks them up again.
		if post.Status == models.PostStatusFailed && status == models.PostStatusScheduled {
			if err := s.pp.ResetFailedByPostID(ctx, tx, postID); err != nil {
				return fmt.Errorf("error resetting platform posts for post %d: %w", postID, err)
			}
		}

		return s.pr.UpdateStatus(ctx, tx, postID, status)
	})
	if err != nil {
		return nil, err
	}

	return s.withPlatforms(ctx, postID)
}

// Remove cascade-deletes the ledger rows with the post. Deleting while
// children are still pending is legal; there is no publish-in-progress
// lock. Returns false when the post does not exist.
func (s *postService) Remove(ctx context.Context, userID, postID int64) (bool, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return false, fmt.Errorf("error checking post %d: %w", postID, err)
	}
	if !owned {
		return false, nil
	}

	var removed bool
	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		if err := s.pp.RemoveByPostID(ctx, tx, postID); err != nil {
			return fmt.Errorf("error removing platform posts for post %d: %w", postID, err)
		}
		removed, err = s.pr.Remove(ctx, tx, postID)
		if err != nil {
			return fmt.Errorf("error removing post %d: %w", postID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *postService) withPlatforms(ctx context.Context, postID int64) (*models.PostWithPlatforms, error) {
	post, err := s.pr.GetByID(ctx, nil, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post %d: %w", postID, err)
	}
	if post == nil {
		return nil, errs.Consistency("post %d vanished after write", postID)
	}

	platforms, err := s.pp.ListByPostID(ctx, nil, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing platform posts for post %d: %w", postID, err)
	}
	return &models.PostWithPlatforms{Post: *post, Platforms: platforms}, nil
}
