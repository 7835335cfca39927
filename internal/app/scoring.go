package app

import (
	"math"

	"assessment-service/internal/domain"
)

// ScoreResult is the graded outcome of an answer sheet.
type ScoreResult struct {
	Answers    []domain.AnswerRecord `json:"answers"`
	Score      int                   `json:"score"`
	Percentage int                   `json:"percentage"`
}

// Total is the number of graded questions.
func (r ScoreResult) Total() int {
	return len(r.Answers)
}

// ScoreSubmission grades answers against the authoritative questions. Every
// question yields one record in input order; a missing or unanswered selection
// is incorrect. It never fails and has no side effects.
func ScoreSubmission(questions []domain.Question, answers domain.AnswerSheet) ScoreResult {
	records := make([]domain.AnswerRecord, 0, len(questions))
	score := 0
	for _, q := range questions {
		sel := answers[q.ID]
		idx, answered := sel.Index()
		correct := answered && idx == q.CorrectAnswer
		if correct {
			score++
		}
		records = append(records, domain.AnswerRecord{
			QuestionID:     q.ID,
			SelectedAnswer: sel.Ptr(),
			IsCorrect:      correct,
		})
	}
	return ScoreResult{
		Answers:    records,
		Score:      score,
		Percentage: Percentage(score, len(questions)),
	}
}

// Percentage is round(100*correct/total), 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
