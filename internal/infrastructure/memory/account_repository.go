// Package memory holds in-process implementations of the domain repositories.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entity.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := r.now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.byID[a.ID] = clone(a)
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *AccountRepository) Update(_ context.Context, id string, patch repository.AccountPatch) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(a)
	a.UpdatedAt = r.now()
	return clone(a), nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		delete(r.byEmail, a.Email)
		delete(r.byID, id)
	}
	return nil
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	c.Name = cloneStr(a.Name)
	c.PhoneNumber = cloneStr(a.PhoneNumber)
	c.LinkedIn = cloneStr(a.LinkedIn)
	c.GitHub = cloneStr(a.GitHub)
	if a.Avatar != nil {
		av := *a.Avatar
		c.Avatar = &av
	}
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
