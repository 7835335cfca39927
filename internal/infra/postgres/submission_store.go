package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

var submissionConflicts = map[string]error{
	"quiz_submissions_certificate_id_key": domain.ErrCertificateIDTaken,
}

// SubmissionStore keeps graded submissions in quiz_submissions.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

func setSubmissionID(s *domain.Submission, id string) { s.ID = id }

func (s *SubmissionStore) Insert(ctx context.Context, sub domain.Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO quiz_submissions (id, user_id, certificate_id, percentage, completed_at, data)
VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.UserID, nullable(sub.CertificateID), sub.Percentage, sub.CompletedAt, raw)
	if err != nil {
		return "", mapError("insert submission", err, domain.ErrSubmissionNotFound, submissionConflicts)
	}
	return sub.ID, nil
}

func (s *SubmissionStore) FindByID(ctx context.Context, id string) (domain.Submission, error) {
	return s.findOne(ctx, `SELECT id, data FROM quiz_submissions WHERE id = $1`, id, domain.ErrSubmissionNotFound)
}

func (s *SubmissionStore) FindByCertificateID(ctx context.Context, certificateID string) (domain.Submission, error) {
	return s.findOne(ctx, `SELECT id, data FROM quiz_submissions WHERE certificate_id = $1`, certificateID, domain.ErrCertificateNotFound)
}

func (s *SubmissionStore) findOne(ctx context.Context, query, arg string, notFound error) (domain.Submission, error) {
	var (
		id  string
		raw []byte
	)
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&id, &raw); err != nil {
		return domain.Submission{}, mapError("find submission", err, notFound, nil)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	sub.ID = id
	return sub, nil
}

func (s *SubmissionStore) ListRecent(ctx context.Context, limit int) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM quiz_submissions ORDER BY completed_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, domain.Unavailable("list recent submissions", err)
	}
	return scanDocs(rows, setSubmissionID)
}

func (s *SubmissionStore) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, data FROM quiz_submissions
WHERE completed_at >= $1 AND completed_at <= $2
ORDER BY completed_at DESC, id DESC`, start, end)
	if err != nil {
		return nil, domain.Unavailable("list submissions in range", err)
	}
	return scanDocs(rows, setSubmissionID)
}

func (s *SubmissionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM quiz_submissions`).Scan(&n); err != nil {
		return 0, domain.Unavailable("count submissions", err)
	}
	return n, nil
}

func (s *SubmissionStore) CountEligible(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM quiz_submissions WHERE percentage >= $1`, app.CertificateThreshold).Scan(&n)
	if err != nil {
		return 0, domain.Unavailable("count eligible submissions", err)
	}
	return n, nil
}

func (s *SubmissionStore) ListMissingCertificate(ctx context.Context) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, data FROM quiz_submissions
WHERE percentage >= $1 AND certificate_id IS NULL
ORDER BY completed_at, id`, app.CertificateThreshold)
	if err != nil {
		return nil, domain.Unavailable("list submissions missing certificate", err)
	}
	return scanDocs(rows, setSubmissionID)
}

func (s *SubmissionStore) SetCertificateID(ctx context.Context, id, certificateID string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE quiz_submissions
SET certificate_id = $2,
    data = data || jsonb_build_object('certificateId', $2::text, 'certificateGenerated', true)
WHERE id = $1`, id, certificateID)
	if err != nil {
		return mapError("set certificate id", err, domain.ErrSubmissionNotFound, submissionConflicts)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}
