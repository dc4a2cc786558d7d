package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type analyticsRepository struct {
	s *Store
}

func NewAnalyticsRepository(s *Store) repository.AnalyticsRepository {
	return &analyticsRepository{s: s}
}

func (r *analyticsRepository) Create(ctx context.Context, tx repository.Tx, snap *models.AnalyticsSnapshot) (int64, error) {
	defer r.s.lock(tx)()

	record := *snap
	record.ID = r.s.nextAnalyticsID
	if record.Metrics == nil {
		record.Metrics = models.Metrics{}
	}
	r.s.analytics[record.ID] = &record
	r.s.nextAnalyticsID++
	return record.ID, nil
}

func (r *analyticsRepository) listByAccountLocked(socialAccountID int64) []*models.AnalyticsSnapshot {
	var snaps []*models.AnalyticsSnapshot
	for _, snap := range r.s.analytics {
		if snap.SocialAccountID == socialAccountID {
			copied := *snap
			snaps = append(snaps, &copied)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].Date.Equal(snaps[j].Date) {
			return snaps[i].Date.After(snaps[j].Date)
		}
		return snaps[i].ID > snaps[j].ID
	})
	return snaps
}

func (r *analyticsRepository) ListRecent(ctx context.Context, socialAccountID int64, limit int) ([]*models.AnalyticsSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	snaps := r.listByAccountLocked(socialAccountID)
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

func (r *analyticsRepository) Latest(ctx context.Context, socialAccountID int64) (*models.AnalyticsSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	snaps := r.listByAccountLocked(socialAccountID)
	if len(snaps) == 0 {
		return nil, nil
	}
	return snaps[0], nil
}

func (r *analyticsRepository) UpsertForDate(ctx context.Context, socialAccountID int64, date time.Time, patch models.Metrics) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, snap := range r.s.analytics {
		if snap.SocialAccountID == socialAccountID && snap.Date.Equal(date) {
			updated := *snap
			updated.Metrics = snap.Metrics.Merge(patch)
			r.s.analytics[id] = &updated
			return nil
		}
	}

	record := &models.AnalyticsSnapshot{
		ID:              r.s.nextAnalyticsID,
		SocialAccountID: socialAccountID,
		Date:            date,
		Metrics:         patch.Merge(nil),
	}
	r.s.analytics[record.ID] = record
	r.s.nextAnalyticsID++
	return nil
}
