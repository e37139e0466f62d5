package app

import (
	"context"

	"timed-quiz-service/internal/domain"
)

// SessionStore abstracts how quiz sessions are tracked (in-memory, Redis-marked, etc).
type SessionStore interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService contains the quiz use cases: the sanitized question feed,
// the stateless grading boundary, and the per-session operations.
type QuizService struct {
	sessions  SessionStore
	questions QuestionRepository
}

func NewQuizService(store SessionStore, questions QuestionRepository) *QuizService {
	return &QuizService{sessions: store, questions: questions}
}

// ListQuestions returns the presentation view of the question set. No
// correctness signal ever appears in it.
func (s *QuizService) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return s.questions.ListQuestions(ctx)
}

// Grade scores a raw submission against the server-held ground truth; the
// payload is never trusted to carry or imply correctness. Entries
// referencing unknown questions are ignored, the first entry per question
// wins, and an entry pairing a choice with the wrong question is rejected
// with ErrMalformedAnswer before any scoring happens.
func (s *QuizService) Grade(ctx context.Context, payload domain.AnswerPayload) (domain.QuizResult, error) {
	truth, err := s.questions.GroundTruth(ctx)
	if err != nil {
		return domain.QuizResult{}, domain.ErrScoringUnavailable
	}

	byID := make(map[string]domain.Question, len(truth))
	for _, q := range truth {
		byID[q.ID] = q
	}

	answers := make(map[string]string, len(payload.Answers))
	for _, a := range payload.Answers {
		if a.QuestionID == "" || a.ChoiceID == "" {
			return domain.QuizResult{}, domain.ErrMalformedAnswer
		}
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if !hasChoice(q, a.ChoiceID) {
			return domain.QuizResult{}, domain.ErrMalformedAnswer
		}
		if _, dup := answers[a.QuestionID]; dup {
			continue
		}
		answers[a.QuestionID] = a.ChoiceID
	}

	logGroundTruthAnomalies(truth)
	return Grade(truth, answers), nil
}

func hasChoice(q domain.Question, choiceID string) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// OpenSession ensures a session exists for the ID and returns its
// current snapshot without starting the attempt.
func (s *QuizService) OpenSession(sessionID string) domain.SessionSnapshot {
	return s.sessions.GetOrCreate(sessionID).Snapshot()
}

// StartSession creates the session if needed and starts the attempt.
func (s *QuizService) StartSession(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	return s.sessions.GetOrCreate(sessionID).Start(ctx)
}

// SelectAnswer records a choice on an active session.
func (s *QuizService) SelectAnswer(sessionID, questionID, choiceID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.SelectAnswer(questionID, choiceID)
}

// Next advances the session cursor.
func (s *QuizService) Next(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Next(), nil
}

// Previous moves the session cursor back.
func (s *QuizService) Previous(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Previous(), nil
}

// SubmitSession grades the session's answers.
func (s *QuizService) SubmitSession(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Submit(ctx)
}

// RestartSession resets the session to not_started.
func (s *QuizService) RestartSession(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Restart(), nil
}

// SessionQuestions returns the sanitized question set a session loaded.
func (s *QuizService) SessionQuestions(sessionID string) ([]domain.QuizQuestion, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Questions(), nil
}

// Watch returns a channel of session snapshots. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *QuizService) Watch(sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// EndSession stops the session's countdown and drops it from the store.
func (s *QuizService) EndSession(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}
