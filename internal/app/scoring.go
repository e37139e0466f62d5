package app

import (
	"log"

	"timed-quiz-service/internal/domain"
)

// Grade scores a set of submitted answers against the ground-truth
// question set. It is a pure function: given valid inputs it never fails.
//
// answers maps question ID to the submitted choice ID. Entries for
// questions not in the set are ignored. An unanswered question, or one
// whose submitted choice is not part of its choice set, counts as
// incorrect. A question is correct iff the submitted choice equals the
// canonical correct choice (first flagged in stored order; a question
// with no flagged choice can never be correct). Results keep the
// original question order; Total is always the question count.
func Grade(questions []domain.Question, answers map[string]string) domain.QuizResult {
	results := make([]domain.QuestionResult, 0, len(questions))
	score := 0

	for _, q := range questions {
		res := domain.QuestionResult{
			QuestionID:     q.ID,
			QuestionText:   q.Text,
			UserAnswerText: "Unanswered",
		}
		correct, hasCorrect, _ := q.CorrectChoice()
		if hasCorrect {
			res.CorrectChoiceID = correct.ID
			res.CorrectAnswerText = correct.Text
		}
		if choiceID, ok := answers[q.ID]; ok {
			for _, c := range q.Choices {
				if c.ID == choiceID {
					res.UserChoiceID = c.ID
					res.UserAnswerText = c.Text
					break
				}
			}
		}
		if res.UserChoiceID != "" && hasCorrect && res.UserChoiceID == correct.ID {
			res.Correct = true
			score++
		}
		results = append(results, res)
	}

	return domain.QuizResult{Score: score, Total: len(questions), Results: results}
}

// logGroundTruthAnomalies reports questions carrying more than one flagged
// correct choice. Grading still resolves them (first flagged wins), but
// the stored data needs fixing.
func logGroundTruthAnomalies(questions []domain.Question) {
	for _, q := range questions {
		if _, _, extra := q.CorrectChoice(); extra {
			log.Printf("question %s has multiple choices flagged correct; using the first", q.ID)
		}
	}
}
