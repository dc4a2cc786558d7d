package memory

import (
	"context"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, false, nil
	}
	copied := *user
	return &copied, true, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.Username == username {
			copied := *user
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (r *userRepository) Create(ctx context.Context, tx repository.Tx, user *models.User) (int64, error) {
	defer r.s.lock(tx)()

	record := *user
	record.ID = r.s.nextUserID
	record.CreatedAt = time.Now()
	r.s.users[record.ID] = &record
	r.s.nextUserID++
	return record.ID, nil
}
