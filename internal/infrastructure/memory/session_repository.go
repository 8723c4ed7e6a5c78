package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]entity.Session)}
}

func (r *SessionRepository) Put(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.AccountID] = *s
	return nil
}

func (r *SessionRepository) Get(_ context.Context, accountID string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *SessionRepository) Invalidate(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, accountID)
	return nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
