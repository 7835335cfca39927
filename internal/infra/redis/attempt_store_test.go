package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptStoreTakeOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewAttemptStore(newClient(mr), time.Minute)
	attempt := domain.Attempt{ID: "a1", QuestionIDs: []string{"q1", "q2"}, StartedAt: time.Now().UTC()}
	if err := store.Start(ctx, attempt); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !mr.Exists("quiz:attempt:a1") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := store.Take(ctx, "a1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(got.QuestionIDs) != 2 || got.QuestionIDs[1] != "q2" {
		t.Fatalf("unexpected attempt %+v", got)
	}
	if _, err := store.Take(ctx, "a1"); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("expected attempt consumed, got %v", err)
	}
}

func TestAttemptStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewAttemptStore(newClient(mr), time.Minute)
	_ = store.Start(ctx, domain.Attempt{ID: "a1", StartedAt: time.Now().UTC()})
	mr.FastForward(2 * time.Minute)

	if _, err := store.Take(ctx, "a1"); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("expected expired attempt, got %v", err)
	}
}

func TestAttemptStoreReleaseRestoresTakenAttempt(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewAttemptStore(newClient(mr), time.Minute)
	attempt := domain.Attempt{ID: "a1", QuestionIDs: []string{"q1"}, StartedAt: time.Now().UTC()}
	if err := store.Start(ctx, attempt); err != nil {
		t.Fatalf("start: %v", err)
	}
	taken, err := store.Take(ctx, "a1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := store.Release(ctx, taken); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ttl := mr.TTL("quiz:attempt:a1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected remaining ttl on released attempt, got %v", ttl)
	}
	again, err := store.Take(ctx, "a1")
	if err != nil {
		t.Fatalf("take after release: %v", err)
	}
	if len(again.QuestionIDs) != 1 || again.QuestionIDs[0] != "q1" {
		t.Fatalf("unexpected attempt %+v", again)
	}

	stale := domain.Attempt{ID: "a2", StartedAt: time.Now().Add(-2 * time.Minute)}
	if err := store.Release(ctx, stale); err != nil {
		t.Fatalf("release stale: %v", err)
	}
	if mr.Exists("quiz:attempt:a2") {
		t.Fatalf("expired attempt should not be restored")
	}
}
