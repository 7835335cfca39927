package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func question(id, category string, difficulty domain.Difficulty, correct int) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "Question " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Category:      category,
		Difficulty:    difficulty,
		Active:        true,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
}

func bank(n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, question(fmt.Sprintf("q%02d", i), "general", domain.DifficultyEasy, i%4))
	}
	return out
}

type env struct {
	stores   app.Stores
	quiz     *app.QuizService
	admin    *app.AdminService
	issuer   *app.CertificateIssuer
	events   *recordingEvents
	feed     *app.Feed
	attempts *memory.AttemptStore
	now      time.Time
}

func newEnv(t *testing.T, questions []domain.Question) *env {
	t.Helper()
	qs := memory.NewQuestionStore()
	for _, q := range questions {
		if _, err := qs.Create(context.Background(), q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	subs := memory.NewSubmissionStore()
	e := &env{
		events:   &recordingEvents{},
		feed:     app.NewFeed(),
		attempts: memory.NewAttemptStore(0),
		now:      base,
	}
	e.stores = app.Stores{
		Questions:   qs,
		Submissions: subs,
		Users:       memory.NewUserStore(),
		Admins:      memory.NewAdminStore(),
		Attempts:    e.attempts,
		Active:      memory.NewQuestionCache(qs, time.Hour),
	}
	clock := func() time.Time { return e.now }
	e.issuer = app.NewCertificateIssuer("MTX", subs)
	e.quiz = app.NewQuizService(e.stores, e.issuer, e.events, e.feed, nil, nil, app.QuizOptions{QuestionLimit: 10, AttemptTTL: 30 * time.Minute}).WithClock(clock)
	e.admin = app.NewAdminService(e.stores, nil, e.issuer, nil).WithClock(clock)
	return e
}

func (e *env) register(t *testing.T, name, email string) domain.User {
	t.Helper()
	u, err := e.quiz.Register(context.Background(), domain.User{Name: name, Email: email, College: "MIT"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

// answerSheet answers the first `correct` questions right and the rest wrong.
func answerSheet(questions []domain.Question, correct int) domain.AnswerSheet {
	sheet := domain.AnswerSheet{}
	for i, q := range questions {
		if i < correct {
			sheet[q.ID] = domain.Choose(q.CorrectAnswer)
		} else {
			sheet[q.ID] = domain.Choose((q.CorrectAnswer + 1) % len(q.Options))
		}
	}
	return sheet
}

type recordingEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingEvents) Publish(_ context.Context, eventType string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
	return nil
}

func (r *recordingEvents) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}
