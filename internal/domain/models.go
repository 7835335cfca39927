package domain

import "time"

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a single multiple-choice item in the question bank.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Active        bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PublicQuestion is what a candidate sees before submitting: no correct answer.
type PublicQuestion struct {
	ID         string     `json:"id"`
	Text       string     `json:"question"`
	Options    []string   `json:"options"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
}

// Public strips the correct answer from q.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// User is a registered candidate.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Company        string    `json:"company,omitempty"`
	College        string    `json:"college,omitempty"`
	University     string    `json:"university,omitempty"`
	Course         string    `json:"course,omitempty"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	Experience     string    `json:"experience,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Institution returns the company or, failing that, the college.
func (u User) Institution() string {
	if u.Company != "" {
		return u.Company
	}
	if u.College != "" {
		return u.College
	}
	return u.University
}

// AnswerRecord is the graded outcome of one question within a submission.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer *int   `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Submission is the immutable record of one completed quiz attempt.
type Submission struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"userId"`
	UserName             string         `json:"userName"`
	UserEmail            string         `json:"userEmail"`
	Answers              []AnswerRecord `json:"answers"`
	Score                int            `json:"score"`
	Percentage           int            `json:"percentage"`
	CompletedAt          time.Time      `json:"completedAt"`
	CertificateGenerated bool           `json:"certificateGenerated"`
	CertificateID        string         `json:"certificateId,omitempty"`
}

// TotalQuestions is the number of graded questions.
func (s Submission) TotalQuestions() int {
	return len(s.Answers)
}

// Admin is a console operator. PasswordHash is never serialized to clients.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Attempt tracks the question set served to a candidate and when.
type Attempt struct {
	ID          string    `json:"id"`
	QuestionIDs []string  `json:"questionIds"`
	StartedAt   time.Time `json:"startedAt"`
}

// Certificate is a derived projection of a submission plus candidate profile.
type Certificate struct {
	CertificateID  string    `json:"certificateId"`
	SubmissionID   string    `json:"submissionId"`
	UserName       string    `json:"userName"`
	UserEmail      string    `json:"userEmail"`
	Company        string    `json:"company"`
	College        string    `json:"college"`
	Institution    string    `json:"institution"`
	Score          int       `json:"score"`
	Percentage     int       `json:"percentage"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
	Excellence     bool      `json:"excellence"`
}
