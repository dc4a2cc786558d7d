package job

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/queue"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/service"

	"github.com/hibiken/asynq"
)

// ReconcileJob is the periodic safety net behind the publish queue: it
// re-enqueues scheduled posts whose due time passed without a task
// firing, and re-derives parent statuses that drifted from their
// ledger rows.
type ReconcileJob struct {
	pr     repository.PostRepository
	pp     repository.PlatformPostRepository
	ledger service.LedgerService
	client *asynq.Client
}

func NewReconcileJob(
	pr repository.PostRepository,
	pp repository.PlatformPostRepository,
	ledger service.LedgerService,
	client *asynq.Client) *ReconcileJob {
	return &ReconcileJob{
		pr:     pr,
		pp:     pp,
		ledger: ledger,
		client: client,
	}
}

func (c *ReconcileJob) Reconcile() {
	ctx := context.Background()

	posts, err := c.pr.ListDueScheduled(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		if err := c.reconcilePost(ctx, post); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (c *ReconcileJob) reconcilePost(ctx context.Context, post *models.Post) error {
	rows, err := c.pp.ListByPostID(ctx, nil, post.ID)
	if err != nil {
		return err
	}

	var pending int
	for _, row := range rows {
		if row.PlatformStatus == models.PlatformStatusPending {
			pending++
		}
	}

	if pending > 0 {
		// Due but never published, likely a task lost across a restart.
		log.Printf("Re-enqueueing overdue post %d (%d pending platforms)", post.ID, pending)
		return queue.EnqueuePost(c.client, queue.PublishPostPayload{PostID: post.ID}, 0)
	}

	// All rows settled but the post still says scheduled.
	return c.ledger.ReconcilePostStatus(ctx, post.ID)
}
