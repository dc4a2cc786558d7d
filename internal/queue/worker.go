package queue

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/publisher"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/service"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

const publishConcurrency = 10

type Queue struct {
	pr     repository.PostRepository
	pp     repository.PlatformPostRepository
	sa     repository.SocialAccountRepository
	ledger service.LedgerService
	pub    publisher.Publisher
}

func NewQueue(
	pr repository.PostRepository,
	pp repository.PlatformPostRepository,
	sa repository.SocialAccountRepository,
	ledger service.LedgerService,
	pub publisher.Publisher) *Queue {
	return &Queue{
		pr:     pr,
		pp:     pp,
		sa:     sa,
		ledger: ledger,
		pub:    pub,
	}
}

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.PublishPost(ctx, payload.PostID)
}

// PublishPost fans a due post out to every pending ledger row. Each
// row settles independently; the parent status is re-derived by the
// ledger as outcomes land. Rows already settled by an earlier attempt
// are skipped, so a redelivered task is harmless.
func (q *Queue) PublishPost(ctx context.Context, postID int64) error {
	post, err := q.pr.GetByID(ctx, nil, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// Deleted before its time came. Nothing to do.
		log.Printf("Post %d no longer exists, skipping publish", postID)
		return nil
	}
	if post.Status != models.PostStatusScheduled {
		log.Printf("Post %d is %s, skipping publish", postID, post.Status)
		return nil
	}

	rows, err := q.pp.ListByPostID(ctx, nil, postID)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, publishConcurrency)

	for _, row := range rows {
		if row.PlatformStatus != models.PlatformStatusPending {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(row *models.PlatformPost) {
			defer wg.Done()
			defer func() { <-semaphore }()
			q.publishRow(ctx, post, row)
		}(row)
	}

	wg.Wait()
	return nil
}

func (q *Queue) publishRow(ctx context.Context, post *models.Post, row *models.PlatformPost) {
	outcome := q.attempt(ctx, post, row)

	if _, err := q.ledger.RecordOutcome(ctx, row.ID, outcome); err != nil {
		// A concurrent worker may have settled the row first.
		if errs.IsInvalidTransition(err) {
			log.Printf("Platform post %d already settled, dropping outcome", row.ID)
			return
		}
		slog.Info(err.Error())
	}
}

func (q *Queue) attempt(ctx context.Context, post *models.Post, row *models.PlatformPost) *transfer.PublishOutcome {
	account, err := q.sa.GetByID(ctx, row.SocialAccountID)
	if err != nil {
		return failedOutcome(err.Error())
	}
	if account == nil {
		return failedOutcome("social account no longer exists")
	}
	if !account.IsConnected {
		return failedOutcome("social account is disconnected")
	}

	result, err := q.pub.Publish(ctx, account, post)
	if err != nil {
		log.Printf("Error publishing post %d to %s: %v", post.ID, account.Platform, err)
		return failedOutcome(err.Error())
	}

	return &transfer.PublishOutcome{
		Status:          models.PlatformStatusPublished,
		PlatformPostID:  result.PlatformPostID,
		PlatformPostURL: result.PlatformPostURL,
	}
}

func failedOutcome(message string) *transfer.PublishOutcome {
	return &transfer.PublishOutcome{
		Status:       models.PlatformStatusFailed,
		ErrorMessage: message,
	}
}
