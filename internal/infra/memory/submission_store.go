package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/google/uuid"
)

// SubmissionStore is an in-memory implementation of app.SubmissionStore.
type SubmissionStore struct {
	mu           sync.RWMutex
	submissions  map[string]domain.Submission
	certificates map[string]string
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		submissions:  make(map[string]domain.Submission),
		certificates: make(map[string]string),
	}
}

func (s *SubmissionStore) Insert(_ context.Context, sub domain.Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.CertificateID != "" {
		if _, taken := s.certificates[sub.CertificateID]; taken {
			return "", domain.ErrCertificateIDTaken
		}
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	s.submissions[sub.ID] = cloneSubmission(sub)
	if sub.CertificateID != "" {
		s.certificates[sub.CertificateID] = sub.ID
	}
	return sub.ID, nil
}

func (s *SubmissionStore) FindByID(_ context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (s *SubmissionStore) FindByCertificateID(_ context.Context, certificateID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.certificates[certificateID]
	if !ok {
		return domain.Submission{}, domain.ErrCertificateNotFound
	}
	return cloneSubmission(s.submissions[id]), nil
}

func (s *SubmissionStore) ListRecent(_ context.Context, limit int) ([]domain.Submission, error) {
	out := s.sorted(func(domain.Submission) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SubmissionStore) ListInRange(_ context.Context, start, end time.Time) ([]domain.Submission, error) {
	return s.sorted(func(sub domain.Submission) bool {
		return !sub.CompletedAt.Before(start) && !sub.CompletedAt.After(end)
	}), nil
}

func (s *SubmissionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions), nil
}

func (s *SubmissionStore) CountEligible(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sub := range s.submissions {
		if app.IsEligible(sub.Percentage) {
			n++
		}
	}
	return n, nil
}

func (s *SubmissionStore) ListMissingCertificate(_ context.Context) ([]domain.Submission, error) {
	out := s.sorted(func(sub domain.Submission) bool {
		return app.IsEligible(sub.Percentage) && sub.CertificateID == ""
	})
	// oldest first so backfilled identifiers follow completion order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SubmissionStore) SetCertificateID(_ context.Context, id, certificateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if owner, taken := s.certificates[certificateID]; taken && owner != id {
		return domain.ErrCertificateIDTaken
	}
	if sub.CertificateID != "" {
		delete(s.certificates, sub.CertificateID)
	}
	sub.CertificateID = certificateID
	sub.CertificateGenerated = true
	s.submissions[id] = sub
	s.certificates[certificateID] = id
	return nil
}

// sorted returns matching submissions, newest completion first.
func (s *SubmissionStore) sorted(keep func(domain.Submission) bool) []domain.Submission {
	s.mu.RLock()
	out := make([]domain.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if keep(sub) {
			out = append(out, cloneSubmission(sub))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	sub.Answers = append([]domain.AnswerRecord(nil), sub.Answers...)
	return sub
}
