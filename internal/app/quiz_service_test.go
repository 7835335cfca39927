package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func TestRegisterNormalizesAndRejectsDuplicates(t *testing.T) {
	e := newEnv(t, bank(3))
	u := e.register(t, "  Ada ", " Ada@Example.COM ")
	if u.ID == "" || u.Email != "ada@example.com" || u.Name != "Ada" || !u.CreatedAt.Equal(base) {
		t.Fatalf("unexpected user %+v", u)
	}
	_, err := e.quiz.Register(context.Background(), domain.User{Name: "Other", Email: "ADA@example.com"})
	if !errors.Is(err, domain.ErrEmailTaken) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	_, err = e.quiz.Register(context.Background(), domain.User{Name: "No Mail"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
}

func TestStartQuizServesActiveQuestionsWithoutAnswers(t *testing.T) {
	questions := bank(14)
	questions[0].Active = false
	e := newEnv(t, questions)

	paper, err := e.quiz.StartQuiz(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if paper.Total != 10 || len(paper.Questions) != 10 || paper.AttemptID == "" {
		t.Fatalf("unexpected paper %+v", paper)
	}
	if paper.ExpiresAt == nil || !paper.ExpiresAt.Equal(base.Add(30*time.Minute)) {
		t.Fatalf("unexpected expiry %v", paper.ExpiresAt)
	}
	seen := map[string]bool{}
	for _, q := range paper.Questions {
		if q.ID == questions[0].ID {
			t.Fatalf("inactive question served")
		}
		if seen[q.ID] {
			t.Fatalf("question %s served twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSubmitWithAttemptIssuesCertificate(t *testing.T) {
	e := newEnv(t, bank(10))
	user := e.register(t, "Ada", "ada@example.com")
	paper, err := e.quiz.StartQuiz(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	served := make([]domain.Question, 0, len(paper.Questions))
	for _, pq := range paper.Questions {
		q, _ := e.stores.Questions.Get(context.Background(), pq.ID)
		served = append(served, q)
	}
	sheet := answerSheet(served, 9)
	sheet["not-served"] = domain.Choose(0)

	out, err := e.quiz.Submit(context.Background(), app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: sheet})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Score != 9 || out.Percentage != 90 || out.TotalQuestions != 10 || !out.CertificateEligible {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !app.ValidCertificateID(out.CertificateID) {
		t.Fatalf("malformed certificate id %q", out.CertificateID)
	}

	stored, err := e.stores.Submissions.FindByID(context.Background(), out.SubmissionID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.UserEmail != "ada@example.com" || stored.CertificateID != out.CertificateID || !stored.CompletedAt.Equal(base) {
		t.Fatalf("unexpected stored submission %+v", stored)
	}

	types := e.events.Types()
	if len(types) != 2 || types[0] != app.EventSubmissionCompleted || types[1] != app.EventCertificateIssued {
		t.Fatalf("unexpected events %v", types)
	}

	_, err = e.quiz.Submit(context.Background(), app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: sheet})
	if !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("attempt must be consumed once, got %v", err)
	}
}

func TestSubmitBelowThreshold(t *testing.T) {
	e := newEnv(t, bank(10))
	user := e.register(t, "Bob", "bob@example.com")
	ch, cancel := e.feed.Subscribe()
	defer cancel()

	out, err := e.quiz.Submit(context.Background(), app.SubmitRequest{UserID: user.ID, Answers: answerSheet(bank(10), 8)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Percentage != 80 || out.CertificateEligible || out.CertificateID != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if types := e.events.Types(); len(types) != 1 || types[0] != app.EventSubmissionCompleted {
		t.Fatalf("unexpected events %v", types)
	}
	select {
	case ev := <-ch:
		if ev.SubmissionID != out.SubmissionID || ev.Eligible {
			t.Fatalf("unexpected feed event %+v", ev)
		}
	default:
		t.Fatalf("expected a feed event")
	}
}

func TestSubmitRejections(t *testing.T) {
	e := newEnv(t, bank(10))
	user := e.register(t, "Cy", "cy@example.com")
	ctx := context.Background()

	if _, err := e.quiz.Submit(ctx, app.SubmitRequest{Answers: answerSheet(bank(1), 1)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without user, got %v", err)
	}
	if _, err := e.quiz.Submit(ctx, app.SubmitRequest{UserID: user.ID}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without answers, got %v", err)
	}
	if _, err := e.quiz.Submit(ctx, app.SubmitRequest{UserID: "ghost", Answers: answerSheet(bank(1), 1)}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}

	paper, _ := e.quiz.StartQuiz(ctx)
	e.now = base.Add(31 * time.Minute)
	if _, err := e.quiz.Submit(ctx, app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: answerSheet(bank(10), 10)}); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("expected expired attempt, got %v", err)
	}
	if n, _ := e.stores.Submissions.Count(ctx); n != 0 {
		t.Fatalf("rejected submissions must not be stored, got %d", n)
	}
}

// collidingStore rejects the first certificate-bearing insert as a duplicate.
type collidingStore struct {
	*memory.SubmissionStore
	rejected bool
}

func (c *collidingStore) Insert(ctx context.Context, s domain.Submission) (string, error) {
	if s.CertificateID != "" && !c.rejected {
		c.rejected = true
		return "", domain.ErrCertificateIDTaken
	}
	return c.SubmissionStore.Insert(ctx, s)
}

func TestSubmitReissuesOnInsertCollision(t *testing.T) {
	e := newEnv(t, bank(10))
	store := &collidingStore{SubmissionStore: memory.NewSubmissionStore()}
	e.stores.Submissions = store
	quiz := app.NewQuizService(e.stores, app.NewCertificateIssuer("MTX", store), nil, nil, nil, nil, app.QuizOptions{})
	user := e.register(t, "Di", "di@example.com")

	out, err := quiz.Submit(context.Background(), app.SubmitRequest{UserID: user.ID, Answers: answerSheet(bank(10), 10)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !store.rejected || !out.CertificateEligible || out.CertificateID == "" {
		t.Fatalf("expected retry after collision, got %+v", out)
	}
	if n, _ := store.Count(context.Background()); n != 1 {
		t.Fatalf("expected exactly one stored submission, got %d", n)
	}
}

// flakyStore fails the first insert as if the database were down.
type flakyStore struct {
	*memory.SubmissionStore
	failed bool
}

func (f *flakyStore) Insert(ctx context.Context, s domain.Submission) (string, error) {
	if !f.failed {
		f.failed = true
		return "", domain.Unavailable("insert submission", errors.New("connection reset"))
	}
	return f.SubmissionStore.Insert(ctx, s)
}

func TestSubmitKeepsAttemptWhenInsertFails(t *testing.T) {
	e := newEnv(t, bank(10))
	store := &flakyStore{SubmissionStore: memory.NewSubmissionStore()}
	e.stores.Submissions = store
	quiz := app.NewQuizService(e.stores, app.NewCertificateIssuer("MTX", store), nil, nil, nil, nil, app.QuizOptions{}).
		WithClock(func() time.Time { return e.now })
	user := e.register(t, "Fay", "fay@example.com")
	ctx := context.Background()

	paper, err := quiz.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	req := app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: answerSheet(bank(10), 10)}

	if _, err := quiz.Submit(ctx, req); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected storage outage, got %v", err)
	}
	if e.attempts.Len() != 1 {
		t.Fatalf("failed submit must leave the attempt open, len=%d", e.attempts.Len())
	}

	out, err := quiz.Submit(ctx, req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.TotalQuestions != 10 || out.SubmissionID == "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if _, err := quiz.Submit(ctx, req); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("attempt must be consumed after a stored submission, got %v", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("expected exactly one stored submission, got %d", n)
	}
}

func TestSubmitKeepsAttemptWhenQuestionsUnavailable(t *testing.T) {
	e := newEnv(t, bank(10))
	user := e.register(t, "Gus", "gus@example.com")
	ctx := context.Background()
	paper, err := e.quiz.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	stores := e.stores
	stores.Questions = failingQuestions{QuestionStore: e.stores.Questions}
	quiz := app.NewQuizService(stores, e.issuer, nil, nil, nil, nil, app.QuizOptions{}).
		WithClock(func() time.Time { return e.now })
	req := app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: answerSheet(bank(10), 10)}
	if _, err := quiz.Submit(ctx, req); !errors.Is(err, domain.ErrQuestionSetUnavailable) {
		t.Fatalf("expected question set unavailable, got %v", err)
	}
	if _, err := e.quiz.Submit(ctx, req); err != nil {
		t.Fatalf("retry after outage: %v", err)
	}
}

// failingQuestions cannot load questions by id.
type failingQuestions struct {
	app.QuestionStore
}

func (failingQuestions) ListByIDs(context.Context, []string) ([]domain.Question, error) {
	return nil, domain.Unavailable("list questions", errors.New("no route to host"))
}

// downAttempts is an attempt store whose backend is unreachable.
type downAttempts struct{}

func (downAttempts) Start(context.Context, domain.Attempt) error {
	return domain.Unavailable("redis set attempt", errors.New("connection refused"))
}

func (downAttempts) Take(context.Context, string) (domain.Attempt, error) {
	return domain.Attempt{}, domain.Unavailable("redis getdel attempt", errors.New("connection refused"))
}

func (downAttempts) Release(context.Context, domain.Attempt) error {
	return domain.Unavailable("redis setnx attempt", errors.New("connection refused"))
}

func TestStartQuizWithoutAttemptStore(t *testing.T) {
	e := newEnv(t, bank(10))
	stores := e.stores
	stores.Attempts = downAttempts{}
	ctx := context.Background()

	quiz := app.NewQuizService(stores, e.issuer, nil, nil, nil, nil, app.QuizOptions{})
	paper, err := quiz.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start should degrade when attempts are unavailable: %v", err)
	}
	if paper.AttemptID != "" || paper.ExpiresAt != nil || paper.Total != 10 {
		t.Fatalf("unexpected paper %+v", paper)
	}

	strict := app.NewQuizService(stores, e.issuer, nil, nil, nil, nil, app.QuizOptions{RequireAttempt: true})
	if _, err := strict.StartQuiz(ctx); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable when attempts are required, got %v", err)
	}
}

func TestSubmitRequiresAttemptWhenConfigured(t *testing.T) {
	e := newEnv(t, bank(10))
	quiz := app.NewQuizService(e.stores, e.issuer, nil, nil, nil, nil, app.QuizOptions{RequireAttempt: true}).
		WithClock(func() time.Time { return e.now })
	user := e.register(t, "Hal", "hal@example.com")
	ctx := context.Background()

	// Answering only the easy questions must not be gradeable on its own.
	_, err := quiz.Submit(ctx, app.SubmitRequest{UserID: user.ID, Answers: answerSheet(bank(10)[:3], 3)})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "attemptId" {
		t.Fatalf("expected attemptId validation error, got %v", err)
	}

	paper, err := quiz.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sheet := answerSheet(bank(10)[:3], 3)
	out, err := quiz.Submit(ctx, app.SubmitRequest{UserID: user.ID, AttemptID: paper.AttemptID, Answers: sheet})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.TotalQuestions != 10 || out.Score != 3 || out.CertificateEligible {
		t.Fatalf("unanswered served questions must count against the score, got %+v", out)
	}
}

func TestResultReviewsAgainstCurrentQuestions(t *testing.T) {
	questions := bank(4)
	e := newEnv(t, questions)
	user := e.register(t, "Eve", "eve@example.com")
	ctx := context.Background()

	out, err := e.quiz.Submit(ctx, app.SubmitRequest{UserID: user.ID, Answers: answerSheet(questions, 3)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.admin.DeleteQuestion(ctx, questions[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	view, err := e.quiz.Result(ctx, out.SubmissionID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if view.Score != 3 || view.Percentage != 75 || view.TotalQuestions != 4 {
		t.Fatalf("stored score must not change, got %+v", view)
	}
	deleted := view.Answers[0]
	if deleted.Question != "Question not found" || deleted.CorrectAnswer != nil || !deleted.IsCorrect {
		t.Fatalf("unexpected review of deleted question %+v", deleted)
	}
	if view.Answers[1].Question != questions[1].Text || *view.Answers[1].CorrectAnswer != questions[1].CorrectAnswer {
		t.Fatalf("unexpected review %+v", view.Answers[1])
	}

	if _, err := e.quiz.Result(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
