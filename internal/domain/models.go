package domain

// Choice is the ground-truth view of a possible answer. Correct never
// crosses the presentation boundary; see Question.Sanitized.
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with its ordered choices.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// QuizChoice is the sanitized view of a choice sent to clients.
type QuizChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizQuestion is the sanitized view of a question sent to clients.
type QuizQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Choices []QuizChoice `json:"choices"`
}

// Sanitized strips the correctness flags for presentation.
func (q Question) Sanitized() QuizQuestion {
	choices := make([]QuizChoice, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, QuizChoice{ID: c.ID, Text: c.Text})
	}
	return QuizQuestion{ID: q.ID, Text: q.Text, Choices: choices}
}

// Sanitize maps a ground-truth question set to its presentation view,
// preserving order.
func Sanitize(questions []Question) []QuizQuestion {
	out := make([]QuizQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Sanitized())
	}
	return out
}

// CorrectChoice returns the canonical correct choice for a question: the
// first choice flagged correct in stored order. ok reports whether any
// choice is flagged; extra reports whether more than one is, which the
// grading caller logs as a data-integrity anomaly.
func (q Question) CorrectChoice() (choice Choice, ok bool, extra bool) {
	for _, c := range q.Choices {
		if !c.Correct {
			continue
		}
		if ok {
			return choice, true, true
		}
		choice, ok = c, true
	}
	return choice, ok, false
}

// Answer is a single (question, choice) pair in a submission.
type Answer struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

// AnswerPayload is the raw submission body from the external boundary.
// It may contain duplicates; the first entry per question wins.
type AnswerPayload struct {
	Answers []Answer `json:"answers"`
}

// QuestionResult details the outcome for one question. Empty UserChoiceID
// means unanswered; empty CorrectChoiceID means no choice was flagged
// correct in the ground truth.
type QuestionResult struct {
	QuestionID        string `json:"questionId"`
	QuestionText      string `json:"questionText"`
	UserChoiceID      string `json:"userChoiceId,omitempty"`
	UserAnswerText    string `json:"userAnswerText"`
	CorrectChoiceID   string `json:"correctChoiceId,omitempty"`
	CorrectAnswerText string `json:"correctAnswerText"`
	Correct           bool   `json:"isCorrect"`
}

// QuizResult is the graded outcome of a whole attempt, with per-question
// results in original question order.
type QuizResult struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

// SessionState is the lifecycle phase of a quiz attempt.
type SessionState string

const (
	StateNotStarted  SessionState = "not_started"
	StateInProgress  SessionState = "in_progress"
	StateCalculating SessionState = "calculating"
	StateCompleted   SessionState = "completed"
)

// SessionSnapshot is the client-visible view of a session; it never
// carries ground truth.
type SessionSnapshot struct {
	SessionID     string            `json:"sessionId"`
	State         SessionState      `json:"state"`
	TimeLeft      int               `json:"timeLeft"`
	CurrentIndex  int               `json:"currentIndex"`
	QuestionCount int               `json:"questionCount"`
	Answers       map[string]string `json:"answers"`
	Result        *QuizResult       `json:"result,omitempty"`
}
