package profile

import (
	"context"
	"sync"

	"github.com/dkeye/Karaoke/internal/domain"
)

// Store is an in-memory core.ProfileStore. A production deployment would
// back this with the account service; the contract is the same: lookups may
// miss, and a miss only costs display fields.
type Store struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]domain.UserInfo
}

func NewStore() *Store {
	return &Store{profiles: make(map[domain.UserID]domain.UserInfo)}
}

func (s *Store) GetUserInfo(ctx context.Context, users []domain.UserID) ([]domain.UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserInfo, 0, len(users))
	for _, id := range users {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) SetUserInfo(ctx context.Context, info domain.UserInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.profiles[info.ID] = info
	s.mu.Unlock()
	return nil
}
