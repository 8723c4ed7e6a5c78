// Package redisstore keeps account sessions in Redis hashes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

func sessionKey(accountID string) string {
	return "account:session:" + accountID
}

// SessionRepository stores one hash per account. A zero ttl keeps sessions
// until they are replaced or invalidated.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

// Put replaces the whole hash atomically, so a concurrent Get never sees a
// mix of two sessions.
func (r *SessionRepository) Put(ctx context.Context, s *entity.Session) error {
	key := sessionKey(s.AccountID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, sessionFields(s))
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	return err
}

func (r *SessionRepository) Get(ctx context.Context, accountID string) (*entity.Session, error) {
	data, err := r.rdb.HGetAll(ctx, sessionKey(accountID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, repository.ErrNotFound
	}
	return parseSession(accountID, data)
}

func (r *SessionRepository) Invalidate(ctx context.Context, accountID string) error {
	return r.rdb.Del(ctx, sessionKey(accountID)).Err()
}

func sessionFields(s *entity.Session) map[string]any {
	return map[string]any{
		"account_id": s.AccountID,
		"token_hash": s.TokenHash,
		"purpose":    string(s.Purpose),
		"issued_at":  s.IssuedAt.UTC().Format(time.RFC3339Nano),
	}
}

func parseSession(accountID string, data map[string]string) (*entity.Session, error) {
	hash := data["token_hash"]
	if hash == "" {
		return nil, errors.New("session hash has no token_hash")
	}
	s := &entity.Session{
		AccountID: accountID,
		TokenHash: hash,
		Purpose:   entity.SessionPurpose(data["purpose"]),
	}
	if v := data["issued_at"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse issued_at: %w", err)
		}
		s.IssuedAt = t
	}
	return s, nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
