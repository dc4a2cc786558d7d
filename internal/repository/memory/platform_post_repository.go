package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type platformPostRepository struct {
	s *Store
}

func NewPlatformPostRepository(s *Store) repository.PlatformPostRepository {
	return &platformPostRepository{s: s}
}

func (r *platformPostRepository) Create(ctx context.Context, tx repository.Tx, pp *models.PlatformPost) (int64, error) {
	defer r.s.lock(tx)()

	record := *pp
	record.ID = r.s.nextPlatformPostID
	if record.Metrics == nil {
		record.Metrics = models.Metrics{}
	}
	r.s.platformPosts[record.ID] = &record
	r.s.nextPlatformPostID++
	return record.ID, nil
}

func (r *platformPostRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*models.PlatformPost, error) {
	defer r.s.rlock(tx)()

	pp, ok := r.s.platformPosts[id]
	if !ok {
		return nil, nil
	}
	copied := *pp
	return &copied, nil
}

func (r *platformPostRepository) ListByPostID(ctx context.Context, tx repository.Tx, postID int64) ([]*models.PlatformPost, error) {
	defer r.s.rlock(tx)()

	var posts []*models.PlatformPost
	for _, pp := range r.s.platformPosts {
		if pp.PostID == postID {
			copied := *pp
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r *platformPostRepository) RecordOutcome(ctx context.Context, tx repository.Tx, id int64, status, platformPostID, platformPostURL, errorMessage string, publishedAt *time.Time) error {
	defer r.s.lock(tx)()

	pp, ok := r.s.platformPosts[id]
	if !ok {
		return nil
	}
	updated := *pp
	updated.PlatformStatus = status
	updated.PlatformPostID = platformPostID
	updated.PlatformPostURL = platformPostURL
	updated.ErrorMessage = errorMessage
	updated.PublishedAt = publishedAt
	r.s.platformPosts[id] = &updated
	return nil
}

func (r *platformPostRepository) ResetFailedByPostID(ctx context.Context, tx repository.Tx, postID int64) error {
	defer r.s.lock(tx)()

	for id, pp := range r.s.platformPosts {
		if pp.PostID != postID || pp.PlatformStatus != models.PlatformStatusFailed {
			continue
		}
		updated := *pp
		updated.PlatformStatus = models.PlatformStatusPending
		updated.PlatformPostID = ""
		updated.PlatformPostURL = ""
		updated.ErrorMessage = ""
		updated.PublishedAt = nil
		r.s.platformPosts[id] = &updated
	}
	return nil
}

func (r *platformPostRepository) MergeMetrics(ctx context.Context, id int64, patch models.Metrics) (*models.PlatformPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pp, ok := r.s.platformPosts[id]
	if !ok {
		return nil, nil
	}
	updated := *pp
	updated.Metrics = pp.Metrics.Merge(patch)
	r.s.platformPosts[id] = &updated
	copied := updated
	return &copied, nil
}

func (r *platformPostRepository) RemoveByPostID(ctx context.Context, tx repository.Tx, postID int64) error {
	defer r.s.lock(tx)()

	for id, pp := range r.s.platformPosts {
		if pp.PostID == postID {
			delete(r.s.platformPosts, id)
		}
	}
	return nil
}
