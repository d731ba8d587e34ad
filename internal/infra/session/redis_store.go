package session

import (
	"context"
	"encoding/json"
	"time"

	"drivehub/config"
	"drivehub/internal/domain/entity"
	"drivehub/internal/domain/service"
	"drivehub/internal/errors"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "drivehub:session:"

// redisSessionStore implements service.SessionStore on top of Redis. Every Save
// refreshes the TTL, so an active session slides its expiry forward.
type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore is the constructor for redisSessionStore.
func NewRedisSessionStore(client *redis.Client, cfg *config.Config) service.SessionStore {
	return &redisSessionStore{
		client: client,
		ttl:    cfg.Session.TTL,
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Get retrieves the record for a session id. A missing or expired record returns (nil, nil).
func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*entity.SessionRecord, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to get session record")
	}

	record := new(entity.SessionRecord)
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, errors.Wrap(err, "failed to decode session record")
	}

	return record, nil
}

// Save replaces the record for a session id.
func (s *redisSessionStore) Save(ctx context.Context, sessionID string, record *entity.SessionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to encode session record")
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save session record")
	}

	return nil
}

// Destroy removes the record synchronously.
func (s *redisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "failed to destroy session record")
	}

	return nil
}
