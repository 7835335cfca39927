package domain

import (
	"net/mail"
	"strings"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

// NormalizeQuestion trims text fields in place and checks the question
// invariants, including 0 <= CorrectAnswer < len(Options).
func NormalizeQuestion(q *Question) error {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)
	q.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}

	if q.Text == "" {
		return Invalid("question", "is required")
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return Invalid("options", "must have between %d and %d entries, got %d", MinOptions, MaxOptions, len(q.Options))
	}
	for i, opt := range q.Options {
		if opt == "" {
			return Invalid("options", "option %d is empty", i)
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return Invalid("correctAnswer", "invalid correct answer index %d", q.CorrectAnswer)
	}
	if q.Category == "" {
		return Invalid("category", "is required")
	}
	if !q.Difficulty.Valid() {
		return Invalid("difficulty", "must be one of easy, medium, hard")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUser trims the profile in place and checks required fields.
func NormalizeUser(u *User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Company = strings.TrimSpace(u.Company)
	u.College = strings.TrimSpace(u.College)
	u.University = strings.TrimSpace(u.University)
	u.Course = strings.TrimSpace(u.Course)
	u.Experience = strings.TrimSpace(u.Experience)
	u.Phone = strings.TrimSpace(u.Phone)

	if u.Name == "" {
		return Invalid("name", "is required")
	}
	if u.Email == "" {
		return Invalid("email", "is required")
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return Invalid("email", "is not a valid address")
	}
	if u.GraduationYear < 0 {
		return Invalid("graduationYear", "must not be negative")
	}
	return nil
}
