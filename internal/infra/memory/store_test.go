package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	if err := store.Start(ctx, domain.Attempt{ID: "a1", QuestionIDs: []string{"q1"}, StartedAt: now}); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := store.Take(ctx, "a1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(got.QuestionIDs) != 1 || got.QuestionIDs[0] != "q1" {
		t.Fatalf("unexpected attempt %+v", got)
	}
	if _, err := store.Take(ctx, "a1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected second take to fail as expired, got %v", err)
	}

	_ = store.Start(ctx, domain.Attempt{ID: "a2", StartedAt: now})
	now = now.Add(2 * time.Minute)
	if _, err := store.Take(ctx, "a2"); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("expected expired attempt, got %v", err)
	}

	_ = store.Start(ctx, domain.Attempt{ID: "a3", StartedAt: now.Add(-time.Hour)})
	_ = store.Start(ctx, domain.Attempt{ID: "a4", StartedAt: now})
	if store.Len() != 1 {
		t.Fatalf("expected expired attempts swept on start, len=%d", store.Len())
	}

	taken, err := store.Take(ctx, "a4")
	if err != nil {
		t.Fatalf("take a4: %v", err)
	}
	if err := store.Release(ctx, taken); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := store.Take(ctx, "a4"); err != nil {
		t.Fatalf("expected released attempt to be claimable again, got %v", err)
	}
}

func TestSubmissionStoreCertificateUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewSubmissionStore()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	id, err := store.Insert(ctx, domain.Submission{UserID: "u1", Percentage: 95, CertificateGenerated: true, CertificateID: "MTX-2025-ABC123", CompletedAt: at})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, domain.Submission{UserID: "u2", Percentage: 92, CertificateGenerated: true, CertificateID: "MTX-2025-ABC123", CompletedAt: at}); !errors.Is(err, domain.ErrCertificateIDTaken) {
		t.Fatalf("expected certificate conflict, got %v", err)
	}
	got, err := store.FindByCertificateID(ctx, "MTX-2025-ABC123")
	if err != nil || got.ID != id {
		t.Fatalf("find by certificate: %v %+v", err, got)
	}
	if _, err := store.FindByCertificateID(ctx, "MTX-2025-ZZZZZZ"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmissionStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewSubmissionStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, pct := range []int{50, 90, 100, 80} {
		_, err := store.Insert(ctx, domain.Submission{
			UserID:      "u",
			Percentage:  pct,
			CompletedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	recent, _ := store.ListRecent(ctx, 2)
	if len(recent) != 2 || recent[0].Percentage != 80 || recent[1].Percentage != 100 {
		t.Fatalf("unexpected recent order %+v", recent)
	}
	inRange, _ := store.ListInRange(ctx, base.Add(24*time.Hour), base.Add(48*time.Hour))
	if len(inRange) != 2 {
		t.Fatalf("expected inclusive range of 2, got %d", len(inRange))
	}
	if n, _ := store.CountEligible(ctx); n != 2 {
		t.Fatalf("expected 2 eligible, got %d", n)
	}
	missing, _ := store.ListMissingCertificate(ctx)
	if len(missing) != 2 || missing[0].Percentage != 90 {
		t.Fatalf("unexpected missing certificates %+v", missing)
	}
	if err := store.SetCertificateID(ctx, missing[0].ID, "MTX-2025-AAAAAA"); err != nil {
		t.Fatalf("set certificate: %v", err)
	}
	if err := store.SetCertificateID(ctx, missing[1].ID, "MTX-2025-AAAAAA"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on reused certificate id, got %v", err)
	}
}

func TestUserStoreUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()
	id, err := store.Insert(ctx, domain.User{Name: "Ada", Email: "Ada@Example.com"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, domain.User{Name: "Ada 2", Email: "ada@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	u, err := store.FindByEmail(ctx, "ADA@example.com")
	if err != nil || u.ID != id {
		t.Fatalf("find by email: %v %+v", err, u)
	}
	users, _ := store.ListByIDs(ctx, []string{id, id, "missing"})
	if len(users) != 1 {
		t.Fatalf("expected deduplicated lookup, got %d", len(users))
	}
}

func TestQuestionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()
	first := sampleQuestion("", true)
	first.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := sampleQuestion("", false)
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	a, _ := store.Create(ctx, first)
	b, _ := store.Create(ctx, second)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected generated ids, got %q %q", a.ID, b.ID)
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 2 || all[0].ID != b.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if n, _ := store.CountActive(ctx); n != 1 {
		t.Fatalf("expected 1 active, got %d", n)
	}
	if _, err := store.SetActive(ctx, b.ID, true, time.Now()); err != nil {
		t.Fatalf("set active: %v", err)
	}
	active, _ := store.ListActive(ctx)
	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, a.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
