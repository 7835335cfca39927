package memory

import (
	"context"
	"sync"
	"time"

	"assessment-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. Expired
// attempts are dropped lazily on access and on Start.
type AttemptStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		ttl:      ttl,
		clock:    time.Now,
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) Start(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for id, a := range s.attempts {
		if s.expired(a, now) {
			delete(s.attempts, id)
		}
	}
	attempt.QuestionIDs = append([]string(nil), attempt.QuestionIDs...)
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *AttemptStore) Take(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptExpired
	}
	delete(s.attempts, id)
	if s.expired(attempt, s.clock()) {
		return domain.Attempt{}, domain.ErrAttemptExpired
	}
	return attempt, nil
}

// Release restores a taken attempt unless another one already holds its id.
func (s *AttemptStore) Release(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return nil
	}
	attempt.QuestionIDs = append([]string(nil), attempt.QuestionIDs...)
	s.attempts[attempt.ID] = attempt
	return nil
}

// Len reports how many attempts are held, expired ones included.
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *AttemptStore) expired(a domain.Attempt, now time.Time) bool {
	return s.ttl > 0 && now.Sub(a.StartedAt) > s.ttl
}
