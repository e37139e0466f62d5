package app_test

import (
	"testing"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

func gradeFixture() []domain.Question {
	return []domain.Question{
		{
			ID:   "q1",
			Text: "First",
			Choices: []domain.Choice{
				{ID: "c1", Text: "wrong", Correct: false},
				{ID: "c2", Text: "right", Correct: true},
			},
		},
		{
			ID:   "q2",
			Text: "Second",
			Choices: []domain.Choice{
				{ID: "c3", Text: "right", Correct: true},
				{ID: "c4", Text: "wrong", Correct: false},
			},
		},
	}
}

func TestGradeMixedAnswers(t *testing.T) {
	result := app.Grade(gradeFixture(), map[string]string{"q1": "c2", "q2": "c4"})

	if result.Score != 1 || result.Total != 2 {
		t.Fatalf("expected 1/2, got %d/%d", result.Score, result.Total)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if !result.Results[0].Correct || result.Results[0].UserChoiceID != "c2" {
		t.Fatalf("q1 should be correct: %+v", result.Results[0])
	}
	if result.Results[1].Correct || result.Results[1].UserChoiceID != "c4" {
		t.Fatalf("q2 should be wrong: %+v", result.Results[1])
	}
	if result.Results[0].QuestionID != "q1" || result.Results[1].QuestionID != "q2" {
		t.Fatalf("results out of original order: %+v", result.Results)
	}
}

func TestGradeEmptySubmission(t *testing.T) {
	result := app.Grade(gradeFixture(), map[string]string{})

	if result.Score != 0 || result.Total != 2 {
		t.Fatalf("expected 0/2, got %d/%d", result.Score, result.Total)
	}
	for _, r := range result.Results {
		if r.UserChoiceID != "" || r.Correct {
			t.Fatalf("unanswered question marked answered: %+v", r)
		}
		if r.UserAnswerText != "Unanswered" {
			t.Fatalf("expected Unanswered placeholder, got %q", r.UserAnswerText)
		}
	}
}

func TestGradeEmptyQuestionSet(t *testing.T) {
	result := app.Grade(nil, map[string]string{"q1": "c1"})
	if result.Score != 0 || result.Total != 0 || len(result.Results) != 0 {
		t.Fatalf("expected empty 0/0 result, got %+v", result)
	}
}

func TestGradeIgnoresUnknownQuestions(t *testing.T) {
	result := app.Grade(gradeFixture(), map[string]string{"q1": "c2", "ghost": "c9"})
	if result.Score != 1 || result.Total != 2 {
		t.Fatalf("unknown question affected score: %d/%d", result.Score, result.Total)
	}
}

func TestGradeUnknownChoiceCountsUnanswered(t *testing.T) {
	result := app.Grade(gradeFixture(), map[string]string{"q1": "c999"})
	r := result.Results[0]
	if r.Correct || r.UserChoiceID != "" || r.UserAnswerText != "Unanswered" {
		t.Fatalf("invalid choice should grade as unanswered: %+v", r)
	}
}

func TestGradeQuestionWithoutCorrectChoice(t *testing.T) {
	questions := []domain.Question{
		{
			ID:   "q1",
			Text: "Unwinnable",
			Choices: []domain.Choice{
				{ID: "c1", Text: "a"},
				{ID: "c2", Text: "b"},
			},
		},
	}

	result := app.Grade(questions, map[string]string{"q1": "c1"})
	r := result.Results[0]
	if r.Correct {
		t.Fatalf("question with no flagged choice was marked correct")
	}
	if r.CorrectChoiceID != "" || r.CorrectAnswerText != "" {
		t.Fatalf("expected empty canonical choice, got %+v", r)
	}
	if r.UserChoiceID != "c1" || r.UserAnswerText != "a" {
		t.Fatalf("submitted choice not reflected: %+v", r)
	}
}

func TestGradeMultipleFlaggedChoicesFirstWins(t *testing.T) {
	questions := []domain.Question{
		{
			ID:   "q1",
			Text: "Ambiguous",
			Choices: []domain.Choice{
				{ID: "c1", Text: "a", Correct: true},
				{ID: "c2", Text: "b", Correct: true},
			},
		},
	}

	if r := app.Grade(questions, map[string]string{"q1": "c1"}); !r.Results[0].Correct {
		t.Fatalf("first flagged choice should be canonical: %+v", r.Results[0])
	}
	if r := app.Grade(questions, map[string]string{"q1": "c2"}); r.Results[0].Correct {
		t.Fatalf("second flagged choice should not grade correct: %+v", r.Results[0])
	}
}
