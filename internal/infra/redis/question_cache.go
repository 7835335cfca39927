package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"assessment-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ActiveLoader fetches the active question set from the backing store.
type ActiveLoader interface {
	ListActive(ctx context.Context) ([]domain.Question, error)
}

// ActiveQuestionsKey holds the JSON-encoded active question set.
const ActiveQuestionsKey = "quiz:questions:active"

// QuestionCache caches the active question set in Redis and falls back to
// the loader on miss. A Redis outage degrades to direct loads. A load that
// overlaps an Invalidate from this process is not written back.
type QuestionCache struct {
	client *redis.Client
	loader ActiveLoader
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group

	// genMu orders the write-back of a load against Invalidate.
	genMu sync.Mutex
	gen   uint64

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader ActiveLoader, ttl time.Duration, log *logger.Logger) *QuestionCache {
	if log == nil {
		log = logger.Nop()
	}
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log.With("component", "question_cache"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := c.read(ctx); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(ActiveQuestionsKey, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		c.genMu.Lock()
		gen := c.gen
		c.genMu.Unlock()
		if qs, ok := c.read(ctx); ok {
			return qs, nil
		}
		qs, err := c.loader.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		c.store(ctx, gen, payload)
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes the cached set.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gen++
	c.sf.Forget(ActiveQuestionsKey)
	if err := c.client.Del(ctx, ActiveQuestionsKey).Err(); err != nil {
		return domain.Unavailable("redis del", err)
	}
	return nil
}

// store writes payload unless the cache was invalidated since gen was read.
func (c *QuestionCache) store(ctx context.Context, gen uint64, payload []byte) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.gen != gen {
		return
	}
	if err := c.client.Set(ctx, ActiveQuestionsKey, payload, c.ttlWithJitter()).Err(); err != nil {
		c.log.Warn("cache active questions failed", "error", err)
	}
}

func (c *QuestionCache) read(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, ActiveQuestionsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("read active questions cache failed", "error", err)
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		c.log.Warn("decode active questions cache failed", "error", err)
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
