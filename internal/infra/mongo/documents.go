package mongo

import (
	"time"

	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type questionDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Question      string             `bson:"question"`
	Options       []string           `bson:"options"`
	CorrectAnswer int                `bson:"correctAnswer"`
	Category      string             `bson:"category"`
	Difficulty    string             `bson:"difficulty"`
	IsActive      bool               `bson:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func toQuestionDoc(q domain.Question) questionDoc {
	return questionDoc{
		Question:      q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Category:      q.Category,
		Difficulty:    string(q.Difficulty),
		IsActive:      q.Active,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

func (d questionDoc) toDomain() domain.Question {
	return domain.Question{
		ID:            d.ID.Hex(),
		Text:          d.Question,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer,
		Category:      d.Category,
		Difficulty:    domain.Difficulty(d.Difficulty),
		Active:        d.IsActive,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Company        string             `bson:"company,omitempty"`
	College        string             `bson:"college,omitempty"`
	University     string             `bson:"university,omitempty"`
	Course         string             `bson:"course,omitempty"`
	GraduationYear int                `bson:"graduationYear,omitempty"`
	Experience     string             `bson:"experience,omitempty"`
	Phone          string             `bson:"phone,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		Name:           u.Name,
		Email:          u.Email,
		Company:        u.Company,
		College:        u.College,
		University:     u.University,
		Course:         u.Course,
		GraduationYear: u.GraduationYear,
		Experience:     u.Experience,
		Phone:          u.Phone,
		CreatedAt:      u.CreatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		Company:        d.Company,
		College:        d.College,
		University:     d.University,
		Course:         d.Course,
		GraduationYear: d.GraduationYear,
		Experience:     d.Experience,
		Phone:          d.Phone,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

type answerDoc struct {
	QuestionID     string `bson:"questionId"`
	SelectedAnswer *int   `bson:"selectedAnswer"`
	IsCorrect      bool   `bson:"isCorrect"`
}

type submissionDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	UserID               string             `bson:"userId"`
	UserName             string             `bson:"userName"`
	UserEmail            string             `bson:"userEmail"`
	Answers              []answerDoc        `bson:"answers"`
	Score                int                `bson:"score"`
	Percentage           int                `bson:"percentage"`
	CompletedAt          time.Time          `bson:"completedAt"`
	CertificateGenerated bool               `bson:"certificateGenerated"`
	// omitted when empty so the sparse unique index ignores it
	CertificateID string `bson:"certificateId,omitempty"`
}

func toSubmissionDoc(s domain.Submission) submissionDoc {
	answers := make([]answerDoc, 0, len(s.Answers))
	for _, a := range s.Answers {
		answers = append(answers, answerDoc{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer, IsCorrect: a.IsCorrect})
	}
	return submissionDoc{
		UserID:               s.UserID,
		UserName:             s.UserName,
		UserEmail:            s.UserEmail,
		Answers:              answers,
		Score:                s.Score,
		Percentage:           s.Percentage,
		CompletedAt:          s.CompletedAt,
		CertificateGenerated: s.CertificateGenerated,
		CertificateID:        s.CertificateID,
	}
}

func (d submissionDoc) toDomain() domain.Submission {
	answers := make([]domain.AnswerRecord, 0, len(d.Answers))
	for _, a := range d.Answers {
		answers = append(answers, domain.AnswerRecord{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer, IsCorrect: a.IsCorrect})
	}
	return domain.Submission{
		ID:                   d.ID.Hex(),
		UserID:               d.UserID,
		UserName:             d.UserName,
		UserEmail:            d.UserEmail,
		Answers:              answers,
		Score:                d.Score,
		Percentage:           d.Percentage,
		CompletedAt:          d.CompletedAt.UTC(),
		CertificateGenerated: d.CertificateGenerated,
		CertificateID:        d.CertificateID,
	}
}

type adminDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Name         string             `bson:"name"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d adminDoc) toDomain() domain.Admin {
	return domain.Admin{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
