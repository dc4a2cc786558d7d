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

// LedgerService records publish attempt outcomes on the per-platform
// ledger rows and keeps the parent post status consistent with its
// children.
type LedgerService interface {
	RecordOutcome(ctx context.Context, platformPostID int64, outcome *transfer.PublishOutcome) (*models.PlatformPost, error)
	UpdateMetrics(ctx context.Context, userID, platformPostID int64, patch models.Metrics) (*models.PlatformPost, error)
	ListForPost(ctx context.Context, userID, postID int64) ([]*models.PlatformPost, error)
	ReconcilePostStatus(ctx context.Context, postID int64) error
}

type ledgerService struct {
	txm repository.TxManager
	pr  repository.PostRepository
	pp  repository.PlatformPostRepository
}

func NewLedgerService(txm repository.TxManager, pr repository.PostRepository, pp repository.PlatformPostRepository) LedgerService {
	return &ledgerService{txm: txm, pr: pr, pp: pp}
}

// RecordOutcome moves a pending ledger row to published or failed and
// re-derives the parent status in the same transaction. Outcomes for
// rows already settled are rejected; a publish worker retrying after a
// crash gets an InvalidTransitionError instead of overwriting history.
func (s *ledgerService) RecordOutcome(ctx context.Context, platformPostID int64, outcome *transfer.PublishOutcome) (*models.PlatformPost, error) {
	if outcome.Status != models.PlatformStatusPublished && outcome.Status != models.PlatformStatusFailed {
		return nil, errs.Validation("status", fmt.Sprintf("outcome status must be published or failed, got %q", outcome.Status))
	}
	if outcome.Status == models.PlatformStatusPublished && outcome.PlatformPostID == "" {
		return nil, errs.Validation("platform_post_id", "a published outcome needs the platform's post id")
	}
	if outcome.Status == models.PlatformStatusFailed && outcome.ErrorMessage == "" {
		return nil, errs.Validation("error_message", "a failed outcome needs an error message")
	}

	err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		row, err := s.pp.GetByID(ctx, tx, platformPostID)
		if err != nil {
			return fmt.Errorf("error getting platform post %d: %w", platformPostID, err)
		}
		if row == nil {
			return errs.NotFound("platform post", platformPostID)
		}
		if row.PlatformStatus != models.PlatformStatusPending {
			return errs.InvalidTransition(row.PlatformStatus, outcome.Status)
		}

		var publishedAt *time.Time
		if outcome.Status == models.PlatformStatusPublished {
			now := time.Now().UTC()
			publishedAt = &now
		}
		if err := s.pp.RecordOutcome(ctx, tx, platformPostID, outcome.Status,
			outcome.PlatformPostID, outcome.PlatformPostURL, outcome.ErrorMessage, publishedAt); err != nil {
			return fmt.Errorf("error recording outcome for platform post %d: %w", platformPostID, err)
		}

		return s.derivePostStatus(ctx, tx, row.PostID)
	})
	if err != nil {
		return nil, err
	}

	return s.pp.GetByID(ctx, nil, platformPostID)
}

// derivePostStatus recomputes the parent status from its children:
// any pending child keeps the post scheduled, at least one publish
// makes it published, all failures make it failed. Drafts are left
// alone.
func (s *ledgerService) derivePostStatus(ctx context.Context, tx repository.Tx, postID int64) error {
	post, err := s.pr.GetByID(ctx, tx, postID)
	if err != nil {
		return fmt.Errorf("error getting post %d: %w", postID, err)
	}
	if post == nil {
		return errs.Consistency("platform post references missing post %d", postID)
	}
	if post.Status == models.PostStatusDraft {
		return nil
	}

	rows, err := s.pp.ListByPostID(ctx, tx, postID)
	if err != nil {
		return fmt.Errorf("error listing platform posts for post %d: %w", postID, err)
	}
	if len(rows) == 0 {
		return errs.Consistency("post %d has status %q but no platform posts", postID, post.Status)
	}

	var pending, published int
	for _, row := range rows {
		switch row.PlatformStatus {
		case models.PlatformStatusPending:
			pending++
		case models.PlatformStatusPublished:
			published++
		}
	}

	derived := models.PostStatusScheduled
	if pending == 0 {
		if published > 0 {
			derived = models.PostStatusPublished
		} else {
			derived = models.PostStatusFailed
		}
	}

	if derived == post.Status {
		return nil
	}
	return s.pr.UpdateStatus(ctx, tx, postID, derived)
}

// ReconcilePostStatus re-derives one post's status outside the publish
// path, for the periodic consistency sweep.
func (s *ledgerService) ReconcilePostStatus(ctx context.Context, postID int64) error {
	return s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		return s.derivePostStatus(ctx, tx, postID)
	})
}

// UpdateMetrics merges a metric patch into the row's metrics map.
// Untouched keys survive; the merge is a single atomic update so two
// concurrent patches never drop each other's keys.
func (s *ledgerService) UpdateMetrics(ctx context.Context, userID, platformPostID int64, patch models.Metrics) (*models.PlatformPost, error) {
	if len(patch) == 0 {
		return nil, errs.Validation("metrics", "metrics patch is empty")
	}

	row, err := s.pp.GetByID(ctx, nil, platformPostID)
	if err != nil {
		return nil, fmt.Errorf("error getting platform post %d: %w", platformPostID, err)
	}
	if row == nil {
		return nil, errs.NotFound("platform post", platformPostID)
	}

	owned, err := s.pr.CheckByUserID(ctx, row.PostID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking post %d: %w", row.PostID, err)
	}
	if !owned {
		return nil, errs.NotFound("platform post", platformPostID)
	}

	updated, err := s.pp.MergeMetrics(ctx, platformPostID, patch)
	if err != nil {
		return nil, fmt.Errorf("error merging metrics for platform post %d: %w", platformPostID, err)
	}
	return updated, nil
}

func (s *ledgerService) ListForPost(ctx context.Context, userID, postID int64) ([]*models.PlatformPost, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking post %d: %w", postID, err)
	}
	if !owned {
		return nil, errs.NotFound("post", postID)
	}
	return s.pp.ListByPostID(ctx, nil, postID)
}
