package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type postRepository struct {
	s *Store
}

func NewPostRepository(s *Store) repository.PostRepository {
	return &postRepository{s: s}
}

func (r *postRepository) Create(ctx context.Context, tx repository.Tx, post *models.Post) (int64, error) {
	defer r.s.lock(tx)()

	record := *post
	record.ID = r.s.nextPostID
	record.CreatedAt = time.Now()
	r.s.posts[record.ID] = &record
	r.s.nextPostID++
	return record.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*models.Post, error) {
	defer r.s.rlock(tx)()

	post, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

// sortPosts orders by scheduled time ascending with unscheduled posts
// last, then by creation order.
func sortPosts(posts []*models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.ScheduledFor != nil && b.ScheduledFor != nil:
			if !a.ScheduledFor.Equal(*b.ScheduledFor) {
				return a.ScheduledFor.Before(*b.ScheduledFor)
			}
			return a.ID < b.ID
		case a.ScheduledFor != nil:
			return true
		case b.ScheduledFor != nil:
			return false
		default:
			return a.ID < b.ID
		}
	})
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var posts []*models.Post
	for _, post := range r.s.posts {
		if post.UserID != userID {
			continue
		}
		if status != "" && post.Status != status {
			continue
		}
		copied := *post
		posts = append(posts, &copied)
	}
	sortPosts(posts)
	return posts, nil
}

func (r *postRepository) ListPublishedByRecency(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for _, pp := range r.s.platformPosts {
		if pp.PublishedAt == nil {
			continue
		}
		if cur, ok := latest[pp.PostID]; !ok || pp.PublishedAt.After(cur) {
			latest[pp.PostID] = *pp.PublishedAt
		}
	}

	var posts []*models.Post
	for _, post := range r.s.posts {
		if post.UserID == userID && post.Status == models.PostStatusPublished {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		ti, iok := latest[posts[i].ID]
		tj, jok := latest[posts[j].ID]
		switch {
		case iok && jok:
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return posts[i].ID > posts[j].ID
		case iok:
			return true
		case jok:
			return false
		default:
			return posts[i].ID > posts[j].ID
		}
	})

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *postRepository) ListDueScheduled(ctx context.Context, before time.Time) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var posts []*models.Post
	for _, post := range r.s.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledFor != nil && !post.ScheduledFor.After(before) {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	sortPosts(posts)
	return posts, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	post, ok := r.s.posts[postID]
	return ok && post.UserID == userID, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, tx repository.Tx, id int64, status string) error {
	defer r.s.lock(tx)()

	post, ok := r.s.posts[id]
	if !ok {
		return nil
	}
	updated := *post
	updated.Status = status
	r.s.posts[id] = &updated
	return nil
}

func (r *postRepository) Remove(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	defer r.s.lock(tx)()

	if _, ok := r.s.posts[id]; !ok {
		return false, nil
	}
	delete(r.s.posts, id)
	return true, nil
}
