package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"assessment-service/internal/auth"
	"assessment-service/internal/domain"
	"assessment-service/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
	DefaultTimeRange   = 30
	MaxTimeRange       = 365
)

// AdminService backs the administrative console.
type AdminService struct {
	stores Stores
	tokens *auth.TokenManager
	issuer *CertificateIssuer
	log    *logger.Logger
	now    func() time.Time
}

func NewAdminService(stores Stores, tokens *auth.TokenManager, issuer *CertificateIssuer, log *logger.Logger) *AdminService {
	if stores.Active == nil {
		stores.Active = uncachedQuestions{store: stores.Questions}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AdminService{
		stores: stores,
		tokens: tokens,
		issuer: issuer,
		log:    log.With("component", "admin"),
		now:    time.Now,
	}
}

// WithClock is test-only for deterministic windows.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

// LoginResult is a signed admin session.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     domain.Admin `json:"admin"`
}

// Login checks credentials against the stored bcrypt hash and issues a token.
func (s *AdminService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.Invalid("", "Email and password are required")
	}
	admin, err := s.stores.Admins.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !auth.CheckPassword(admin.PasswordHash, password) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	token, expires, err := s.tokens.Issue(admin.ID, admin.Email)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expires, Admin: admin}, nil
}

// CreateAdmin stores a new admin with a hashed password. It is a no-op
// returning the existing admin when the email is already registered.
func (s *AdminService) CreateAdmin(ctx context.Context, email, password, name string) (domain.Admin, bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Admin{}, false, domain.Invalid("email", "is required")
	}
	existing, err := s.stores.Admins.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Admin{}, false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Admin{}, false, err
	}
	admin := domain.Admin{Email: email, PasswordHash: hash, Name: name, CreatedAt: s.now().UTC()}
	id, err := s.stores.Admins.Insert(ctx, admin)
	if err != nil {
		return domain.Admin{}, false, err
	}
	admin.ID = id
	return admin, true, nil
}

func (s *AdminService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.stores.Questions.ListAll(ctx)
}

func (s *AdminService) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.stores.Questions.Get(ctx, id)
}

// CreateQuestion validates and stores a new active question.
func (s *AdminService) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := domain.NormalizeQuestion(&q); err != nil {
		return domain.Question{}, err
	}
	now := s.now().UTC()
	q.ID = ""
	q.Active = true
	q.CreatedAt = now
	q.UpdatedAt = now
	created, err := s.stores.Questions.Create(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// UpdateQuestion replaces the editable fields of an existing question.
func (s *AdminService) UpdateQuestion(ctx context.Context, id string, q domain.Question) (domain.Question, error) {
	if err := domain.NormalizeQuestion(&q); err != nil {
		return domain.Question{}, err
	}
	existing, err := s.stores.Questions.Get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	q.ID = id
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = s.now().UTC()
	updated, err := s.stores.Questions.Update(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// SetQuestionActive toggles whether a question can be served.
func (s *AdminService) SetQuestionActive(ctx context.Context, id string, active bool) (domain.Question, error) {
	q, err := s.stores.Questions.SetActive(ctx, id, active, s.now().UTC())
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	return q, nil
}

// DeleteQuestion removes a question. Stored submissions keep their answer
// records; analytics then report those answers as unresolved.
func (s *AdminService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.stores.Questions.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if err := s.stores.Active.Invalidate(ctx); err != nil {
		s.log.Warn("invalidate active question cache failed", "error", err)
	}
}

// RecentSubmissions lists the newest submissions, capped at MaxRecentLimit.
func (s *AdminService) RecentSubmissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.stores.Submissions.ListRecent(ctx, limit)
}

// Stats are the dashboard headline counters.
type Stats struct {
	TotalSubmissions    int `json:"totalSubmissions"`
	TotalUsers          int `json:"totalUsers"`
	TotalQuestions      int `json:"totalQuestions"`
	ExcellentPerformers int `json:"excellentPerformers"`
}

// Stats counts the collections concurrently.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalSubmissions, err = s.stores.Submissions.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalUsers, err = s.stores.Users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalQuestions, err = s.stores.Questions.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.ExcellentPerformers, err = s.stores.Submissions.CountEligible(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Window returns [now-days, now] after validating days.
func (s *AdminService) Window(days int) (time.Time, time.Time, error) {
	if days == 0 {
		days = DefaultTimeRange
	}
	if days < 1 || days > MaxTimeRange {
		return time.Time{}, time.Time{}, domain.Invalid("timeRange", "must be between 1 and %d days", MaxTimeRange)
	}
	end := s.now().UTC()
	return end.AddDate(0, 0, -days), end, nil
}

// Analytics computes the analytics projection over the last days.
func (s *AdminService) Analytics(ctx context.Context, days int) (Analytics, error) {
	start, end, err := s.Window(days)
	if err != nil {
		return Analytics{}, err
	}
	submissions, err := s.stores.Submissions.ListInRange(ctx, start, end)
	if err != nil {
		return Analytics{}, err
	}
	questions, err := s.stores.Questions.ListActive(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return ComputeAnalytics(submissions, questions), nil
}

var exportHeader = []string{
	"Submission Date", "User Name", "Email", "Company", "College", "Experience",
	"Score", "Percentage", "Certificate Generated", "Certificate ID",
}

// ExportCSV writes the submissions of the last days, joined with candidate
// profiles, as CSV.
func (s *AdminService) ExportCSV(ctx context.Context, days int, w io.Writer) error {
	start, end, err := s.Window(days)
	if err != nil {
		return err
	}
	submissions, err := s.stores.Submissions.ListInRange(ctx, start, end)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.UserID)
	}
	users, err := s.stores.Users.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, sub := range submissions {
		u := byID[sub.UserID]
		certificate := "No"
		if sub.CertificateGenerated {
			certificate = "Yes"
		}
		row := []string{
			sub.CompletedAt.UTC().Format(time.DateOnly),
			sub.UserName,
			sub.UserEmail,
			orNA(u.Company),
			orNA(u.College),
			orNA(u.Experience),
			strconv.Itoa(sub.Score),
			strconv.Itoa(sub.Percentage),
			certificate,
			sub.CertificateID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName is the download name for an export produced now.
func (s *AdminService) ExportFileName(prefix string) string {
	return fmt.Sprintf("%s-analytics-%s.csv", strings.ToLower(prefix), s.now().UTC().Format(time.DateOnly))
}

// BackfillCertificates issues identifiers for eligible submissions stored
// without one and returns how many were updated.
func (s *AdminService) BackfillCertificates(ctx context.Context) (int, error) {
	missing, err := s.stores.Submissions.ListMissingCertificate(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, sub := range missing {
		id, err := s.issuer.Issue(ctx, sub.CompletedAt)
		if err != nil {
			return updated, err
		}
		if err := s.stores.Submissions.SetCertificateID(ctx, sub.ID, id); err != nil {
			return updated, fmt.Errorf("backfill %s: %w", sub.ID, err)
		}
		updated++
	}
	return updated, nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
