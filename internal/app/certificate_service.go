package app

import (
	"context"
	"errors"
	"io"

	"assessment-service/internal/domain"
)

// CertificateRenderer turns a certificate projection into a document.
type CertificateRenderer interface {
	RenderPDF(w io.Writer, cert domain.Certificate) error
	RenderPNG(w io.Writer, cert domain.Certificate) error
}

// CertificateService projects submissions into certificates on demand.
type CertificateService struct {
	submissions SubmissionStore
	users       UserStore
	renderer    CertificateRenderer
	recorder    Recorder
	prefix      string
}

func NewCertificateService(submissions SubmissionStore, users UserStore, renderer CertificateRenderer, recorder Recorder, prefix string) *CertificateService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if prefix == "" {
		prefix = DefaultCertificatePrefix
	}
	return &CertificateService{
		submissions: submissions,
		users:       users,
		renderer:    renderer,
		recorder:    recorder,
		prefix:      prefix,
	}
}

// Preview builds the certificate for an eligible submission, using the
// identifier stored at submission time.
func (s *CertificateService) Preview(ctx context.Context, submissionID string) (domain.Certificate, error) {
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return domain.Certificate{}, err
	}
	if !IsEligible(sub.Percentage) {
		return domain.Certificate{}, domain.ErrNotEligible
	}
	if sub.CertificateID == "" {
		return domain.Certificate{}, domain.ErrCertificateNotFound
	}
	user, err := s.users.FindByID(ctx, sub.UserID)
	if err != nil {
		return domain.Certificate{}, err
	}
	return project(sub, user), nil
}

// Verify looks a certificate up by its identifier. The candidate profile is
// optional here: a missing user still yields the denormalized name and email.
func (s *CertificateService) Verify(ctx context.Context, certificateID string) (domain.Certificate, error) {
	if !ValidCertificateID(certificateID) {
		return domain.Certificate{}, domain.Invalid("certificateId", "is malformed")
	}
	sub, err := s.submissions.FindByCertificateID(ctx, certificateID)
	if err != nil {
		return domain.Certificate{}, err
	}
	user, err := s.users.FindByEmail(ctx, sub.UserEmail)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Certificate{}, err
	}
	return project(sub, user), nil
}

// WritePDF renders the certificate PDF for a submission into w.
func (s *CertificateService) WritePDF(ctx context.Context, submissionID string, w io.Writer) (domain.Certificate, error) {
	cert, err := s.Preview(ctx, submissionID)
	if err != nil {
		return domain.Certificate{}, err
	}
	if err := s.renderer.RenderPDF(w, cert); err != nil {
		return domain.Certificate{}, err
	}
	s.recorder.CertificateRendered("pdf")
	return cert, nil
}

// WritePNG renders the certificate thumbnail for a submission into w.
func (s *CertificateService) WritePNG(ctx context.Context, submissionID string, w io.Writer) (domain.Certificate, error) {
	cert, err := s.Preview(ctx, submissionID)
	if err != nil {
		return domain.Certificate{}, err
	}
	if err := s.renderer.RenderPNG(w, cert); err != nil {
		return domain.Certificate{}, err
	}
	s.recorder.CertificateRendered("png")
	return cert, nil
}

// FileName is the download name for cert.
func (s *CertificateService) FileName(cert domain.Certificate) string {
	return CertificateFileName(s.prefix, cert.UserName)
}

func project(sub domain.Submission, user domain.User) domain.Certificate {
	name := sub.UserName
	if user.Name != "" {
		name = user.Name
	}
	email := sub.UserEmail
	if user.Email != "" {
		email = user.Email
	}
	return domain.Certificate{
		CertificateID:  sub.CertificateID,
		SubmissionID:   sub.ID,
		UserName:       name,
		UserEmail:      email,
		Company:        user.Company,
		College:        user.College,
		Institution:    user.Institution(),
		Score:          sub.Score,
		Percentage:     sub.Percentage,
		TotalQuestions: sub.TotalQuestions(),
		CompletedAt:    sub.CompletedAt,
		Excellence:     IsEligible(sub.Percentage),
	}
}
