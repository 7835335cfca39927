package app

import (
	"context"
	"time"

	"assessment-service/internal/domain"
)

// QuestionStore is the question bank (memory, Mongo, Postgres).
type QuestionStore interface {
	ListActive(ctx context.Context) ([]domain.Question, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
	// ListAll returns every question, newest first.
	ListAll(ctx context.Context) ([]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Create(ctx context.Context, q domain.Question) (domain.Question, error)
	Update(ctx context.Context, q domain.Question) (domain.Question, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (domain.Question, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}

// SubmissionStore persists graded submissions. Insert must reject a
// certificate ID that is already stored with domain.ErrCertificateIDTaken.
type SubmissionStore interface {
	Insert(ctx context.Context, s domain.Submission) (string, error)
	FindByID(ctx context.Context, id string) (domain.Submission, error)
	FindByCertificateID(ctx context.Context, certificateID string) (domain.Submission, error)
	// ListRecent returns up to limit submissions, newest completion first.
	ListRecent(ctx context.Context, limit int) ([]domain.Submission, error)
	// ListInRange returns submissions with start <= completedAt <= end.
	ListInRange(ctx context.Context, start, end time.Time) ([]domain.Submission, error)
	Count(ctx context.Context) (int, error)
	CountEligible(ctx context.Context) (int, error)
	// ListMissingCertificate returns eligible submissions without a certificate ID.
	ListMissingCertificate(ctx context.Context) ([]domain.Submission, error)
	SetCertificateID(ctx context.Context, id, certificateID string) error
}

// UserStore persists candidates. Insert rejects duplicate emails with domain.ErrEmailTaken.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	Insert(ctx context.Context, u domain.User) (string, error)
	Count(ctx context.Context) (int, error)
}

// AdminStore persists console operators.
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (domain.Admin, error)
	Insert(ctx context.Context, a domain.Admin) (string, error)
}

// AttemptStore tracks served quizzes until submission. Take claims the
// attempt atomically and returns domain.ErrAttemptExpired when it is unknown,
// expired or already claimed. Release puts a claimed attempt back after a
// submission that failed to store.
type AttemptStore interface {
	Start(ctx context.Context, attempt domain.Attempt) error
	Take(ctx context.Context, id string) (domain.Attempt, error)
	Release(ctx context.Context, attempt domain.Attempt) error
}

// ActiveQuestionCache serves the active question set, typically cached.
type ActiveQuestionCache interface {
	ActiveQuestions(ctx context.Context) ([]domain.Question, error)
	Invalidate(ctx context.Context) error
}

// EventPublisher emits domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Recorder receives business metrics.
type Recorder interface {
	SubmissionScored(eligible bool, percentage int)
	CertificateRendered(format string)
}

// Stores groups the persistence dependencies shared by the services.
type Stores struct {
	Questions   QuestionStore
	Submissions SubmissionStore
	Users       UserStore
	Admins      AdminStore
	Attempts    AttemptStore
	Active      ActiveQuestionCache
}

// uncachedQuestions adapts a QuestionStore to ActiveQuestionCache.
type uncachedQuestions struct {
	store QuestionStore
}

func (u uncachedQuestions) ActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	return u.store.ListActive(ctx)
}

func (u uncachedQuestions) Invalidate(context.Context) error { return nil }

type nopRecorder struct{}

func (nopRecorder) SubmissionScored(bool, int)  {}
func (nopRecorder) CertificateRendered(string) {}
