package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"assessment-service/internal/platform/logger"
	"github.com/google/uuid"
)

const (
	DefaultQuestionLimit = 10
	DefaultAttemptTTL    = 30 * time.Minute
	insertAttempts       = 3
)

// Routing keys for published domain events.
const (
	EventSubmissionCompleted = "quiz.submission.completed"
	EventCertificateIssued   = "certificate.issued"
)

// QuizOptions tunes the candidate-facing quiz flow.
type QuizOptions struct {
	QuestionLimit int
	AttemptTTL    time.Duration
	// RequireAttempt rejects answer sheets that do not name a served attempt,
	// so candidates cannot choose which questions are graded.
	RequireAttempt bool
}

// QuizService contains the candidate use cases: register, start, submit, review.
type QuizService struct {
	stores   Stores
	issuer   *CertificateIssuer
	events   EventPublisher
	feed     *Feed
	recorder Recorder
	log      *logger.Logger
	opts     QuizOptions
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(stores Stores, issuer *CertificateIssuer, events EventPublisher, feed *Feed, recorder Recorder, log *logger.Logger, opts QuizOptions) *QuizService {
	if stores.Active == nil {
		stores.Active = uncachedQuestions{store: stores.Questions}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.QuestionLimit <= 0 {
		opts.QuestionLimit = DefaultQuestionLimit
	}
	if opts.AttemptTTL <= 0 {
		opts.AttemptTTL = DefaultAttemptTTL
	}
	return &QuizService{
		stores:   stores,
		issuer:   issuer,
		events:   events,
		feed:     feed,
		recorder: recorder,
		log:      log.With("component", "quiz"),
		opts:     opts,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// Register creates a candidate. Emails are unique.
func (s *QuizService) Register(ctx context.Context, u domain.User) (domain.User, error) {
	if err := domain.NormalizeUser(&u); err != nil {
		return domain.User{}, err
	}
	_, err := s.stores.Users.FindByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return domain.User{}, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	u.ID = ""
	u.CreatedAt = s.now().UTC()
	id, err := s.stores.Users.Insert(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	return u, nil
}

// QuizPaper is the question set served to a candidate, answers stripped.
type QuizPaper struct {
	AttemptID string                  `json:"attemptId,omitempty"`
	Questions []domain.PublicQuestion `json:"questions"`
	Total     int                     `json:"total"`
	ExpiresAt *time.Time              `json:"expiresAt,omitempty"`
}

// StartQuiz serves up to QuestionLimit active questions in random order and
// opens an attempt recording which were served.
func (s *QuizService) StartQuiz(ctx context.Context) (QuizPaper, error) {
	active, err := s.stores.Active.ActiveQuestions(ctx)
	if err != nil {
		return QuizPaper{}, fmt.Errorf("%w: %v", domain.ErrQuestionSetUnavailable, err)
	}

	picked := append([]domain.Question(nil), active...)
	s.rndMu.Lock()
	s.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	s.rndMu.Unlock()
	if len(picked) > s.opts.QuestionLimit {
		picked = picked[:s.opts.QuestionLimit]
	}

	paper := QuizPaper{
		Questions: make([]domain.PublicQuestion, 0, len(picked)),
		Total:     len(picked),
	}
	ids := make([]string, 0, len(picked))
	for _, q := range picked {
		paper.Questions = append(paper.Questions, q.Public())
		ids = append(ids, q.ID)
	}

	if s.stores.Attempts != nil {
		started := s.now().UTC()
		attempt := domain.Attempt{ID: uuid.NewString(), QuestionIDs: ids, StartedAt: started}
		if err := s.stores.Attempts.Start(ctx, attempt); err != nil {
			if s.opts.RequireAttempt || !errors.Is(err, domain.ErrUnavailable) {
				return QuizPaper{}, err
			}
			s.log.Warn("attempt store unavailable, serving quiz without attempt", "error", err)
			return paper, nil
		}
		expires := started.Add(s.opts.AttemptTTL)
		paper.AttemptID = attempt.ID
		paper.ExpiresAt = &expires
	}
	return paper, nil
}

// SubmitRequest is a candidate's completed answer sheet.
type SubmitRequest struct {
	UserID    string             `json:"userId"`
	AttemptID string             `json:"attemptId,omitempty"`
	Answers   domain.AnswerSheet `json:"answers"`
}

// SubmitOutcome is returned to the candidate after grading.
type SubmitOutcome struct {
	SubmissionID        string `json:"submissionId"`
	Score               int    `json:"score"`
	Percentage          int    `json:"percentage"`
	TotalQuestions      int    `json:"totalQuestions"`
	CertificateEligible bool   `json:"certificateEligible"`
	CertificateID       string `json:"certificateId,omitempty"`
}

// Submit grades an answer sheet against the authoritative questions and
// stores the result. Nothing is stored unless grading and certificate
// issuance both succeed; a claimed attempt is released again on failure so
// the candidate can retry.
func (s *QuizService) Submit(ctx context.Context, req SubmitRequest) (SubmitOutcome, error) {
	if req.UserID == "" {
		return SubmitOutcome{}, domain.Invalid("userId", "is required")
	}
	if req.AttemptID == "" {
		if s.opts.RequireAttempt {
			return SubmitOutcome{}, domain.Invalid("attemptId", "is required")
		}
		if len(req.Answers) == 0 {
			return SubmitOutcome{}, domain.Invalid("answers", "are required")
		}
	}

	user, err := s.stores.Users.FindByID(ctx, req.UserID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	attempt, err := s.claimAttempt(ctx, req.AttemptID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	submission, err := s.grade(ctx, user, req, attempt)
	if err != nil {
		s.releaseAttempt(ctx, attempt)
		return SubmitOutcome{}, err
	}

	s.recorder.SubmissionScored(submission.CertificateGenerated, submission.Percentage)
	s.announce(ctx, submission)

	return SubmitOutcome{
		SubmissionID:        submission.ID,
		Score:               submission.Score,
		Percentage:          submission.Percentage,
		TotalQuestions:      submission.TotalQuestions(),
		CertificateEligible: submission.CertificateGenerated,
		CertificateID:       submission.CertificateID,
	}, nil
}

// claimAttempt takes the attempt named by id. A nil attempt means the sheet
// was submitted without one.
func (s *QuizService) claimAttempt(ctx context.Context, id string) (*domain.Attempt, error) {
	if id == "" {
		return nil, nil
	}
	if s.stores.Attempts == nil {
		return nil, domain.ErrAttemptExpired
	}
	attempt, err := s.stores.Attempts.Take(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.now().Sub(attempt.StartedAt) > s.opts.AttemptTTL {
		return nil, domain.ErrAttemptExpired
	}
	return &attempt, nil
}

func (s *QuizService) releaseAttempt(ctx context.Context, attempt *domain.Attempt) {
	if attempt == nil {
		return
	}
	if err := s.stores.Attempts.Release(ctx, *attempt); err != nil {
		s.log.Warn("release attempt failed", "attempt_id", attempt.ID, "error", err)
	}
}

// grade scores the sheet and inserts the submission, reissuing the
// certificate id when it collides with a stored one.
func (s *QuizService) grade(ctx context.Context, user domain.User, req SubmitRequest, attempt *domain.Attempt) (domain.Submission, error) {
	questions, err := s.authoritativeQuestions(ctx, req, attempt)
	if err != nil {
		return domain.Submission{}, err
	}

	result := ScoreSubmission(questions, req.Answers)
	completedAt := s.now().UTC()
	submission := domain.Submission{
		UserID:      user.ID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		Answers:     result.Answers,
		Score:       result.Score,
		Percentage:  result.Percentage,
		CompletedAt: completedAt,
	}

	for try := 0; ; try++ {
		eligibility, err := s.issuer.Evaluate(ctx, result.Percentage, completedAt)
		if err != nil {
			return domain.Submission{}, err
		}
		submission.CertificateGenerated = eligibility.Eligible
		submission.CertificateID = eligibility.CertificateID

		id, err := s.stores.Submissions.Insert(ctx, submission)
		if err == nil {
			submission.ID = id
			return submission, nil
		}
		if !errors.Is(err, domain.ErrCertificateIDTaken) || try+1 >= insertAttempts {
			return domain.Submission{}, err
		}
		s.log.Warn("certificate id collided on insert, reissuing", "certificate_id", submission.CertificateID)
	}
}

// authoritativeQuestions resolves the question set to grade against: the
// questions served in the attempt, or else the questions named in the sheet.
func (s *QuizService) authoritativeQuestions(ctx context.Context, req SubmitRequest, attempt *domain.Attempt) ([]domain.Question, error) {
	var ids []string
	if attempt != nil {
		ids = attempt.QuestionIDs
	} else {
		ids = make([]string, 0, len(req.Answers))
		for id := range req.Answers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	questions, err := s.stores.Questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionSetUnavailable, err)
	}
	return orderByIDs(questions, ids), nil
}

func (s *QuizService) announce(ctx context.Context, sub domain.Submission) {
	ev := SubmissionEvent{
		SubmissionID:  sub.ID,
		UserName:      sub.UserName,
		UserEmail:     sub.UserEmail,
		Score:         sub.Score,
		Total:         sub.TotalQuestions(),
		Percentage:    sub.Percentage,
		Eligible:      sub.CertificateGenerated,
		CertificateID: sub.CertificateID,
		CompletedAt:   sub.CompletedAt,
	}
	if s.feed != nil {
		s.feed.Publish(ev)
	}
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, EventSubmissionCompleted, ev); err != nil {
		s.log.Warn("publish submission event failed", "submission_id", sub.ID, "error", err)
	}
	if sub.CertificateGenerated {
		if err := s.events.Publish(ctx, EventCertificateIssued, ev); err != nil {
			s.log.Warn("publish certificate event failed", "submission_id", sub.ID, "error", err)
		}
	}
}

// ReviewedAnswer is one answer record joined with the current question text.
type ReviewedAnswer struct {
	QuestionID     string   `json:"questionId"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	SelectedAnswer *int     `json:"selectedAnswer"`
	CorrectAnswer  *int     `json:"correctAnswer"`
	IsCorrect      bool     `json:"isCorrect"`
}

// ResultView is the candidate's results page.
type ResultView struct {
	ID                   string           `json:"id"`
	UserName             string           `json:"userName"`
	Score                int              `json:"score"`
	Percentage           int              `json:"percentage"`
	TotalQuestions       int              `json:"totalQuestions"`
	CompletedAt          time.Time        `json:"completedAt"`
	CertificateGenerated bool             `json:"certificateGenerated"`
	CertificateID        string           `json:"certificateId,omitempty"`
	Answers              []ReviewedAnswer `json:"answers"`
}

const missingQuestionText = "Question not found"

// Result loads a stored submission with an answer review. Questions deleted
// since submission show as "Question not found"; the stored score is unchanged.
func (s *QuizService) Result(ctx context.Context, submissionID string) (ResultView, error) {
	sub, err := s.stores.Submissions.FindByID(ctx, submissionID)
	if err != nil {
		return ResultView{}, err
	}
	ids := make([]string, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.stores.Questions.ListByIDs(ctx, ids)
	if err != nil {
		return ResultView{}, err
	}
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	view := ResultView{
		ID:                   sub.ID,
		UserName:             sub.UserName,
		Score:                sub.Score,
		Percentage:           sub.Percentage,
		TotalQuestions:       sub.TotalQuestions(),
		CompletedAt:          sub.CompletedAt,
		CertificateGenerated: sub.CertificateGenerated,
		CertificateID:        sub.CertificateID,
		Answers:              make([]ReviewedAnswer, 0, len(sub.Answers)),
	}
	for _, a := range sub.Answers {
		ra := ReviewedAnswer{
			QuestionID:     a.QuestionID,
			Question:       missingQuestionText,
			Options:        []string{},
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
		}
		if q, ok := byID[a.QuestionID]; ok {
			correct := q.CorrectAnswer
			ra.Question = q.Text
			ra.Options = q.Options
			ra.CorrectAnswer = &correct
		}
		view.Answers = append(view.Answers, ra)
	}
	return view, nil
}

// orderByIDs returns questions in the order of ids, dropping unknown IDs.
func orderByIDs(questions []domain.Question, ids []string) []domain.Question {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(questions))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}
