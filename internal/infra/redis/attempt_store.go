package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps served quiz attempts in Redis so any instance can grade
// them. Keys expire with the attempt TTL.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Start(ctx context.Context, attempt domain.Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(attempt.ID), payload, s.ttl).Err(); err != nil {
		return domain.Unavailable("redis set attempt", err)
	}
	return nil
}

// Take atomically reads and deletes the attempt, so an answer sheet can be
// graded against it only once.
func (s *AttemptStore) Take(ctx context.Context, id string) (domain.Attempt, error) {
	raw, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptExpired
	}
	if err != nil {
		return domain.Attempt{}, domain.Unavailable("redis getdel attempt", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// Release puts a taken attempt back for its remaining lifetime. SETNX keeps a
// concurrent Start of the same id intact.
func (s *AttemptStore) Release(ctx context.Context, attempt domain.Attempt) error {
	ttl := s.ttl
	if ttl > 0 {
		ttl -= time.Since(attempt.StartedAt)
		if ttl <= 0 {
			return nil
		}
	}
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	if err := s.client.SetNX(ctx, s.key(attempt.ID), payload, ttl).Err(); err != nil {
		return domain.Unavailable("redis setnx attempt", err)
	}
	return nil
}

func (s *AttemptStore) key(id string) string {
	return "quiz:attempt:" + id
}
