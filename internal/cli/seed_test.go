package cli

import (
	"context"
	"testing"

	"assessment-service/internal/infra/memory"
	redisstore "assessment-service/internal/infra/redis"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSeedQuestionsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuestionStore()

	n, err := seedQuestions(ctx, store)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n < 10 {
		t.Fatalf("expected at least 10 sample questions, got %d", n)
	}
	active, _ := store.CountActive(ctx)
	if active != n {
		t.Fatalf("expected %d active questions, got %d", n, active)
	}

	again, err := seedQuestions(ctx, store)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected reseed to insert nothing, got %d", again)
	}
}

func TestOpenBackendRejectsUnknownDriver(t *testing.T) {
	cfg, log, err := loadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Storage.Driver = "cassandra"
	if _, err := openBackend(context.Background(), cfg, log, false); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenBackendMemoryWiresCache(t *testing.T) {
	cfg, log, err := loadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Storage.Driver = "memory"
	cfg.Redis.Addr = ""
	b, err := openBackend(context.Background(), cfg, log, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	if b.stores.Active == nil || b.stores.Attempts == nil {
		t.Fatalf("expected cache and attempt store to be wired")
	}
}

func TestOpenBackendKeepsAttemptsInMemoryWhenRedisDown(t *testing.T) {
	cfg, log, err := loadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	cfg.Storage.Driver = "memory"
	cfg.Redis.Addr = mr.Addr()

	up, err := openBackend(context.Background(), cfg, log, true)
	if err != nil {
		t.Fatalf("open with redis: %v", err)
	}
	defer up.Close()
	if _, ok := up.stores.Attempts.(*redisstore.AttemptStore); !ok {
		t.Fatalf("expected redis attempt store, got %T", up.stores.Attempts)
	}

	mr.Close()
	down, err := openBackend(context.Background(), cfg, log, true)
	if err != nil {
		t.Fatalf("open without redis: %v", err)
	}
	defer down.Close()
	if _, ok := down.stores.Attempts.(*memory.AttemptStore); !ok {
		t.Fatalf("expected in-memory attempt store when redis is down, got %T", down.stores.Attempts)
	}
	if _, ok := down.stores.Active.(*redisstore.QuestionCache); !ok {
		t.Fatalf("expected redis question cache with storage fallback, got %T", down.stores.Active)
	}
}
