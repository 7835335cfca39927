package app

import (
	"sort"
	"time"

	"assessment-service/internal/domain"
)

// Overview summarizes a window of submissions.
type Overview struct {
	TotalSubmissions    int     `json:"totalSubmissions"`
	TotalUsers          int     `json:"totalUsers"`
	AverageScore        float64 `json:"averageScore"`
	AveragePercentage   float64 `json:"averagePercentage"`
	ExcellentPerformers int     `json:"excellentPerformers"`
	// UnresolvedAnswers counts answer records whose question is no longer in
	// the active set; they are excluded from every breakdown below.
	UnresolvedAnswers int `json:"unresolvedAnswers"`
}

// CategoryPerformance is answer accuracy for one category.
type CategoryPerformance struct {
	Category       string  `json:"category"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
	Accuracy       float64 `json:"accuracy"`
}

// DifficultyPerformance is answer accuracy for one difficulty level.
type DifficultyPerformance struct {
	Difficulty     domain.Difficulty `json:"difficulty"`
	TotalQuestions int               `json:"totalQuestions"`
	CorrectAnswers int               `json:"correctAnswers"`
	Accuracy       float64           `json:"accuracy"`
}

// DailyPoint is the submission count and mean score for one calendar day.
type DailyPoint struct {
	Date         string  `json:"date"`
	Submissions  int     `json:"submissions"`
	AverageScore float64 `json:"averageScore"`
}

// QuestionPerformance is accuracy for one question, with metadata from the
// current question snapshot.
type QuestionPerformance struct {
	QuestionID      string            `json:"questionId"`
	Question        string            `json:"question"`
	Category        string            `json:"category"`
	Difficulty      domain.Difficulty `json:"difficulty"`
	TotalAttempts   int               `json:"totalAttempts"`
	CorrectAttempts int               `json:"correctAttempts"`
	Accuracy        float64           `json:"accuracy"`
}

// ScoreBucket is one bar of the percentage histogram.
type ScoreBucket struct {
	ScoreRange string  `json:"scoreRange"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Analytics is the full read-side projection over a window.
type Analytics struct {
	Overview            Overview                `json:"overview"`
	CategoryPerformance []CategoryPerformance   `json:"categoryPerformance"`
	DifficultyAnalysis  []DifficultyPerformance `json:"difficultyAnalysis"`
	TimeSeriesData      []DailyPoint            `json:"timeSeriesData"`
	QuestionPerformance []QuestionPerformance   `json:"questionPerformance"`
	UserPerformance     []ScoreBucket           `json:"userPerformance"`
}

// ScoreRanges are the fixed, disjoint histogram buckets covering [0,100].
var ScoreRanges = []struct {
	Label    string
	Min, Max int
}{
	{"0-20%", 0, 20},
	{"21-40%", 21, 40},
	{"41-60%", 41, 60},
	{"61-80%", 61, 80},
	{"81-89%", 81, 89},
	{"90-100%", 90, 100},
}

// BucketIndex returns the histogram bucket for a percentage. Values outside
// [0,100] are clamped.
func BucketIndex(percentage int) int {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	for i, r := range ScoreRanges {
		if percentage >= r.Min && percentage <= r.Max {
			return i
		}
	}
	return len(ScoreRanges) - 1
}

type tally struct {
	total, correct int
}

func (t tally) accuracy() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.total) * 100
}

// ComputeAnalytics folds submissions into the analytics projection. Answers
// whose question is absent from questions are counted in
// Overview.UnresolvedAnswers and skipped by the per-category, per-difficulty
// and per-question breakdowns. Neither input is modified.
func ComputeAnalytics(submissions []domain.Submission, questions []domain.Question) Analytics {
	out := Analytics{
		CategoryPerformance: []CategoryPerformance{},
		DifficultyAnalysis:  []DifficultyPerformance{},
		TimeSeriesData:      []DailyPoint{},
		QuestionPerformance: []QuestionPerformance{},
		UserPerformance:     []ScoreBucket{},
	}
	if len(submissions) == 0 {
		return out
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	users := make(map[string]struct{})
	var scoreSum, pctSum int
	categories := map[string]*tally{}
	var categoryOrder []string
	difficulties := map[domain.Difficulty]*tally{}
	var difficultyOrder []domain.Difficulty
	perQuestion := map[string]*tally{}
	var questionOrder []string
	type day struct {
		count    int
		scoreSum int
	}
	days := map[string]*day{}
	buckets := make([]int, len(ScoreRanges))

	for _, s := range submissions {
		users[s.UserID] = struct{}{}
		scoreSum += s.Score
		pctSum += s.Percentage
		if IsEligible(s.Percentage) {
			out.Overview.ExcellentPerformers++
		}
		buckets[BucketIndex(s.Percentage)]++

		date := s.CompletedAt.UTC().Format(time.DateOnly)
		d, ok := days[date]
		if !ok {
			d = &day{}
			days[date] = d
		}
		d.count++
		d.scoreSum += s.Score

		for _, a := range s.Answers {
			q, ok := byID[a.QuestionID]
			if !ok {
				out.Overview.UnresolvedAnswers++
				continue
			}
			c, ok := categories[q.Category]
			if !ok {
				c = &tally{}
				categories[q.Category] = c
				categoryOrder = append(categoryOrder, q.Category)
			}
			df, ok := difficulties[q.Difficulty]
			if !ok {
				df = &tally{}
				difficulties[q.Difficulty] = df
				difficultyOrder = append(difficultyOrder, q.Difficulty)
			}
			pq, ok := perQuestion[q.ID]
			if !ok {
				pq = &tally{}
				perQuestion[q.ID] = pq
				questionOrder = append(questionOrder, q.ID)
			}
			for _, t := range []*tally{c, df, pq} {
				t.total++
				if a.IsCorrect {
					t.correct++
				}
			}
		}
	}

	n := len(submissions)
	out.Overview.TotalSubmissions = n
	out.Overview.TotalUsers = len(users)
	out.Overview.AverageScore = float64(scoreSum) / float64(n)
	out.Overview.AveragePercentage = float64(pctSum) / float64(n)

	for _, name := range categoryOrder {
		t := categories[name]
		out.CategoryPerformance = append(out.CategoryPerformance, CategoryPerformance{
			Category:       name,
			TotalQuestions: t.total,
			CorrectAnswers: t.correct,
			Accuracy:       t.accuracy(),
		})
	}
	for _, level := range difficultyOrder {
		t := difficulties[level]
		out.DifficultyAnalysis = append(out.DifficultyAnalysis, DifficultyPerformance{
			Difficulty:     level,
			TotalQuestions: t.total,
			CorrectAnswers: t.correct,
			Accuracy:       t.accuracy(),
		})
	}
	for _, id := range questionOrder {
		t := perQuestion[id]
		q := byID[id]
		out.QuestionPerformance = append(out.QuestionPerformance, QuestionPerformance{
			QuestionID:      id,
			Question:        q.Text,
			Category:        q.Category,
			Difficulty:      q.Difficulty,
			TotalAttempts:   t.total,
			CorrectAttempts: t.correct,
			Accuracy:        t.accuracy(),
		})
	}

	for date, d := range days {
		out.TimeSeriesData = append(out.TimeSeriesData, DailyPoint{
			Date:         date,
			Submissions:  d.count,
			AverageScore: float64(d.scoreSum) / float64(d.count),
		})
	}
	sort.Slice(out.TimeSeriesData, func(i, j int) bool {
		return out.TimeSeriesData[i].Date < out.TimeSeriesData[j].Date
	})

	for i, r := range ScoreRanges {
		out.UserPerformance = append(out.UserPerformance, ScoreBucket{
			ScoreRange: r.Label,
			Min:        r.Min,
			Max:        r.Max,
			Count:      buckets[i],
			Percentage: float64(buckets[i]) / float64(n) * 100,
		})
	}
	return out
}
