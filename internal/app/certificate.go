package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"assessment-service/internal/domain"
)

// CertificateThreshold is the fixed pass mark, in percent, for a certificate.
const CertificateThreshold = 90

const (
	certificateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	certificateTokenLen = 6
	// DefaultCertificatePrefix is used when no prefix is configured.
	DefaultCertificatePrefix = "MTX"
	defaultIssueAttempts     = 5
)

// IsEligible reports whether a percentage earns a certificate.
func IsEligible(percentage int) bool {
	return percentage >= CertificateThreshold
}

// Eligibility is the certificate decision for one submission. CertificateID
// is set if and only if Eligible is true.
type Eligibility struct {
	Eligible      bool   `json:"eligible"`
	CertificateID string `json:"certificateId,omitempty"`
}

// CertificateFinder looks up a submission by its certificate identifier.
type CertificateFinder interface {
	FindByCertificateID(ctx context.Context, certificateID string) (domain.Submission, error)
}

// CertificateIssuer applies the eligibility policy and issues identifiers of
// the form PREFIX-YEAR-RANDOM6, checked for uniqueness before use.
type CertificateIssuer struct {
	prefix   string
	finder   CertificateFinder
	random   io.Reader
	attempts int
}

func NewCertificateIssuer(prefix string, finder CertificateFinder) *CertificateIssuer {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCertificatePrefix
	}
	return &CertificateIssuer{
		prefix:   prefix,
		finder:   finder,
		random:   rand.Reader,
		attempts: defaultIssueAttempts,
	}
}

// NewCertificateIssuerWithSource is test-only for deterministic tokens.
func NewCertificateIssuerWithSource(prefix string, finder CertificateFinder, random io.Reader) *CertificateIssuer {
	issuer := NewCertificateIssuer(prefix, finder)
	issuer.random = random
	return issuer
}

// Prefix returns the configured identifier prefix.
func (i *CertificateIssuer) Prefix() string {
	return i.prefix
}

// Evaluate decides eligibility for percentage and, when eligible, issues an
// identifier not yet used by any stored submission.
func (i *CertificateIssuer) Evaluate(ctx context.Context, percentage int, completedAt time.Time) (Eligibility, error) {
	if !IsEligible(percentage) {
		return Eligibility{}, nil
	}
	id, err := i.Issue(ctx, completedAt)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{Eligible: true, CertificateID: id}, nil
}

// Issue draws identifiers until one is unused, giving up after a few collisions.
func (i *CertificateIssuer) Issue(ctx context.Context, completedAt time.Time) (string, error) {
	for attempt := 0; attempt < i.attempts; attempt++ {
		id, err := GenerateCertificateID(i.prefix, completedAt, i.random)
		if err != nil {
			return "", err
		}
		if i.finder == nil {
			return id, nil
		}
		_, err = i.finder.FindByCertificateID(ctx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return id, nil
		case err != nil:
			return "", fmt.Errorf("check certificate id: %w", err)
		}
	}
	return "", domain.ErrCertificateExhausted
}

// GenerateCertificateID builds PREFIX-YEAR-RANDOM6 from the given entropy source.
func GenerateCertificateID(prefix string, completedAt time.Time, random io.Reader) (string, error) {
	token, err := randomToken(random, certificateTokenLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%s", prefix, completedAt.Year(), token), nil
}

// randomToken rejects bytes above the largest multiple of the alphabet size
// so every character is equally likely.
func randomToken(random io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(certificateAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, certificateAlphabet[int(b)%len(certificateAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

var certificateIDPattern = regexp.MustCompile(`^[A-Z0-9]+-\d{4}-[A-Z0-9]{6}$`)

// ValidCertificateID reports whether id has the PREFIX-YEAR-RANDOM6 shape.
func ValidCertificateID(id string) bool {
	return certificateIDPattern.MatchString(id)
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// CertificateFileName is the download name for a candidate's certificate PDF.
func CertificateFileName(prefix, userName string) string {
	name := strings.ToLower(unsafeFileChars.ReplaceAllString(strings.TrimSpace(userName), "-"))
	if name == "" {
		name = "candidate"
	}
	return fmt.Sprintf("%s-certificate-%s.pdf", strings.ToLower(prefix), name)
}

// FormatCertificateDate renders a completion date as "January 2, 2006".
func FormatCertificateDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
