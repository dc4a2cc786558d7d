package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type mediaAssetRepository struct {
	s *Store
}

func NewMediaAssetRepository(s *Store) repository.MediaAssetRepository {
	return &mediaAssetRepository{s: s}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx repository.Tx, ma *models.MediaAsset) (int64, error) {
	defer r.s.lock(tx)()

	record := *ma
	record.ID = r.s.nextMediaAssetID
	record.CreatedAt = time.Now()
	r.s.mediaAssets[record.ID] = &record
	r.s.nextMediaAssetID++
	return record.ID, nil
}

func (r *mediaAssetRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var assets []*models.MediaAsset
	for _, ma := range r.s.mediaAssets {
		if ma.UserID == userID {
			copied := *ma
			assets = append(assets, &copied)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID > assets[j].ID })
	return assets, nil
}
