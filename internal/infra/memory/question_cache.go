package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ActiveLoader fetches the active question set from the backing store.
type ActiveLoader interface {
	ListActive(ctx context.Context) ([]domain.Question, error)
}

const activeKey = "active"

// QuestionCache caches the active question set with TTL to avoid repeated
// store hits. Concurrent misses share one load, and a load that overlaps an
// Invalidate is returned to its callers but not cached.
type QuestionCache struct {
	loader ActiveLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
	loaded    bool
	gen       uint64
}

func NewQuestionCache(loader ActiveLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := c.cached(c.clock()); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(activeKey, func() (interface{}, error) {
		now := c.clock()
		if qs, ok := c.cached(now); ok {
			return qs, nil
		}
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		qs, err := c.loader.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		ttl := c.ttlWithJitter()
		c.mu.Lock()
		if c.gen == gen {
			c.questions = qs
			c.expiresAt = now.Add(ttl)
			c.loaded = true
		}
		c.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

// Invalidate drops the cached set so the next read reloads it.
func (c *QuestionCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.questions = nil
	c.loaded = false
	c.gen++
	c.mu.Unlock()
	c.sf.Forget(activeKey)
	return nil
}

func (c *QuestionCache) cached(now time.Time) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loaded && c.expiresAt.After(now) {
		return copyQuestions(c.questions), true
	}
	return nil, false
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyQuestions(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		out[i] = cloneQuestion(q)
	}
	return out
}
