package app_test

import (
	"math"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func answer(id string, correct bool) domain.AnswerRecord {
	sel := 0
	return domain.AnswerRecord{QuestionID: id, SelectedAnswer: &sel, IsCorrect: correct}
}

func TestComputeAnalyticsEmptyWindow(t *testing.T) {
	a := app.ComputeAnalytics(nil, bank(3))
	if a.Overview.TotalSubmissions != 0 || a.Overview.AverageScore != 0 {
		t.Fatalf("unexpected overview %+v", a.Overview)
	}
	if a.UserPerformance == nil || len(a.UserPerformance) != 0 {
		t.Fatalf("empty window must yield an empty, non-nil histogram")
	}
	if a.CategoryPerformance == nil || a.TimeSeriesData == nil || a.QuestionPerformance == nil {
		t.Fatalf("breakdowns must be empty slices, not nil")
	}
}

func TestComputeAnalytics(t *testing.T) {
	questions := []domain.Question{
		question("q1", "go", domain.DifficultyEasy, 0),
		question("q2", "go", domain.DifficultyHard, 0),
		question("q3", "sql", domain.DifficultyEasy, 0),
	}
	day1 := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)
	submissions := []domain.Submission{
		{UserID: "u1", Score: 3, Percentage: 100, CompletedAt: day2, Answers: []domain.AnswerRecord{
			answer("q1", true), answer("q2", true), answer("q3", true),
		}},
		{UserID: "u2", Score: 1, Percentage: 33, CompletedAt: day1, Answers: []domain.AnswerRecord{
			answer("q1", true), answer("q2", false), answer("q3", false),
		}},
		{UserID: "u1", Score: 1, Percentage: 50, CompletedAt: day1, Answers: []domain.AnswerRecord{
			answer("q1", false), answer("deleted", true),
		}},
	}

	a := app.ComputeAnalytics(submissions, questions)
	ov := a.Overview
	if ov.TotalSubmissions != 3 || ov.TotalUsers != 2 || ov.ExcellentPerformers != 1 || ov.UnresolvedAnswers != 1 {
		t.Fatalf("unexpected overview %+v", ov)
	}
	if math.Abs(ov.AverageScore-5.0/3) > 1e-9 || math.Abs(ov.AveragePercentage-61) > 1e-9 {
		t.Fatalf("unexpected averages %+v", ov)
	}

	cats := map[string]app.CategoryPerformance{}
	for _, c := range a.CategoryPerformance {
		cats[c.Category] = c
	}
	if g := cats["go"]; g.TotalQuestions != 5 || g.CorrectAnswers != 3 || g.Accuracy != 60 {
		t.Fatalf("unexpected go category %+v", g)
	}
	if s := cats["sql"]; s.TotalQuestions != 2 || s.CorrectAnswers != 1 {
		t.Fatalf("unexpected sql category %+v", s)
	}

	diffs := map[domain.Difficulty]app.DifficultyPerformance{}
	for _, d := range a.DifficultyAnalysis {
		diffs[d.Difficulty] = d
	}
	if e := diffs[domain.DifficultyEasy]; e.TotalQuestions != 5 || e.CorrectAnswers != 3 {
		t.Fatalf("unexpected easy breakdown %+v", e)
	}

	if len(a.QuestionPerformance) != 3 {
		t.Fatalf("deleted questions must not appear in per-question stats, got %d", len(a.QuestionPerformance))
	}

	if len(a.TimeSeriesData) != 2 || a.TimeSeriesData[0].Date != "2025-03-01" || a.TimeSeriesData[1].Date != "2025-03-02" {
		t.Fatalf("unexpected time series %+v", a.TimeSeriesData)
	}
	if a.TimeSeriesData[0].Submissions != 2 || a.TimeSeriesData[0].AverageScore != 1 {
		t.Fatalf("unexpected first day %+v", a.TimeSeriesData[0])
	}

	if len(a.UserPerformance) != len(app.ScoreRanges) {
		t.Fatalf("expected every bucket, got %d", len(a.UserPerformance))
	}
	total, pct := 0, 0.0
	for _, b := range a.UserPerformance {
		total += b.Count
		pct += b.Percentage
	}
	if total != 3 || math.Abs(pct-100) > 1e-9 {
		t.Fatalf("bucket counts must cover every submission: count=%d pct=%f", total, pct)
	}
	if a.UserPerformance[5].Count != 1 || a.UserPerformance[1].Count != 1 || a.UserPerformance[2].Count != 1 {
		t.Fatalf("unexpected buckets %+v", a.UserPerformance)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := map[int]int{0: 0, 20: 0, 21: 1, 60: 2, 80: 3, 81: 4, 89: 4, 90: 5, 100: 5, -3: 0, 120: 5}
	for pct, want := range cases {
		if got := app.BucketIndex(pct); got != want {
			t.Fatalf("BucketIndex(%d) = %d, want %d", pct, got, want)
		}
	}
}
