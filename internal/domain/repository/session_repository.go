package repository

import (
	"context"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// SessionRepository keeps at most one session per account.
type SessionRepository interface {
	// Put creates or replaces the session of s.AccountID.
	Put(ctx context.Context, s *entity.Session) error
	// Get returns ErrNotFound when the account has no live session.
	Get(ctx context.Context, accountID string) (*entity.Session, error)
	Invalidate(ctx context.Context, accountID string) error
}
