package app

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// QuestionRepository supplies the two views of the question set: the
// sanitized one for presentation and the ground-truth one for grading.
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error)
	GroundTruth(ctx context.Context) ([]domain.Question, error)
}

// SessionConfig holds the per-attempt countdown settings.
type SessionConfig struct {
	// Duration is the countdown for the whole attempt, in seconds.
	Duration int
	// Tick is the countdown interval; 1s in production, shorter in tests.
	Tick time.Duration
}

const defaultDuration = 300

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Duration <= 0 {
		c.Duration = defaultDuration
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	return c
}

// Session is the state machine for one quiz attempt. It owns all mutable
// attempt data: lifecycle state, the loaded (sanitized) question set, the
// answers map, the cursor, and the countdown. The countdown goroutine and
// callers serialize through mu, so a timer tick and a manual submit can
// never both reach grading.
type Session struct {
	id   string
	repo QuestionRepository
	cfg  SessionConfig

	mu          sync.Mutex
	state       domain.SessionState
	questions   []domain.QuizQuestion
	timeLeft    int
	currentIdx  int
	answers     map[string]string
	result      *domain.QuizResult
	timerStop   chan struct{}
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// SessionFactory builds a session for a given ID; session stores use it
// so they stay ignorant of repository and countdown wiring.
type SessionFactory func(id string) *Session

func NewSession(id string, repo QuestionRepository, cfg SessionConfig) *Session {
	return &Session{
		id:          id,
		repo:        repo,
		cfg:         cfg.withDefaults(),
		state:       domain.StateNotStarted,
		answers:     make(map[string]string),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start pulls the question set and begins the attempt. It is valid only
// from not_started and fails with ErrEmptyQuestionSet when no questions
// are available; an empty set is never treated as an instantly completed
// quiz.
func (s *Session) Start(ctx context.Context) (domain.SessionSnapshot, error) {
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateNotStarted {
		return s.snapshotLocked(), domain.ErrInvalidTransition
	}
	if len(questions) == 0 {
		return s.snapshotLocked(), domain.ErrEmptyQuestionSet
	}

	s.questions = questions
	s.timeLeft = s.cfg.Duration
	s.currentIdx = 0
	s.answers = make(map[string]string)
	s.result = nil
	s.state = domain.StateInProgress
	s.startTimerLocked()
	return s.broadcastLocked(), nil
}

// SelectAnswer records the choice for a question, overwriting any earlier
// selection. Valid only while in_progress; a choice that does not belong
// to the question is rejected with ErrMalformedAnswer and no state
// changes.
func (s *Session) SelectAnswer(questionID, choiceID string) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return s.snapshotLocked(), domain.ErrInvalidTransition
	}
	if !s.choiceBelongsLocked(questionID, choiceID) {
		return s.snapshotLocked(), domain.ErrMalformedAnswer
	}
	s.answers[questionID] = choiceID
	return s.broadcastLocked(), nil
}

func (s *Session) choiceBelongsLocked(questionID, choiceID string) bool {
	if questionID == "" || choiceID == "" {
		return false
	}
	for _, q := range s.questions {
		if q.ID != questionID {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == choiceID {
				return true
			}
		}
		return false
	}
	return false
}

// Next moves the cursor forward, clamped to the last question. It never
// touches answers or the countdown and is a no-op outside in_progress.
func (s *Session) Next() domain.SessionSnapshot {
	return s.move(1)
}

// Previous moves the cursor back, clamped to the first question.
func (s *Session) Previous() domain.SessionSnapshot {
	return s.move(-1)
}

func (s *Session) move(delta int) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return s.snapshotLocked()
	}
	idx := s.currentIdx + delta
	if idx >= 0 && idx < len(s.questions) {
		s.currentIdx = idx
	}
	return s.broadcastLocked()
}

// Submit grades the attempt. It is a no-op in any state other than
// in_progress; that single guard reconciles the countdown expiring and a
// manual submit racing each other, so grading runs at most once. If the
// ground truth cannot be fetched the session reverts to in_progress with
// answers intact and the caller gets ErrScoringUnavailable; retry is
// manual, never automatic.
func (s *Session) Submit(ctx context.Context) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	if s.state != domain.StateInProgress {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.state = domain.StateCalculating
	s.stopTimerLocked()
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	s.broadcastLocked()
	s.mu.Unlock()

	truth, err := s.repo.GroundTruth(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateCalculating {
		// Restart intervened while grading; drop the stale result.
		return s.snapshotLocked(), nil
	}
	if err != nil {
		s.state = domain.StateInProgress
		if s.timeLeft > 0 {
			s.startTimerLocked()
		}
		return s.broadcastLocked(), domain.ErrScoringUnavailable
	}

	logGroundTruthAnomalies(truth)
	result := Grade(truth, answers)
	s.result = &result
	s.state = domain.StateCompleted
	return s.broadcastLocked(), nil
}

// Restart clears all attempt data and returns to not_started. It is
// accepted from any state; the next Start re-pulls the question set.
func (s *Session) Restart() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.state = domain.StateNotStarted
	s.questions = nil
	s.timeLeft = 0
	s.currentIdx = 0
	s.answers = make(map[string]string)
	s.result = nil
	return s.broadcastLocked()
}

// Close stops the countdown so an abandoned session leaks no goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Questions returns the sanitized question set loaded at Start.
func (s *Session) Questions() []domain.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuizQuestion, len(s.questions))
	copy(out, s.questions)
	return out
}

// Snapshot returns the current client-visible view of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) startTimerLocked() {
	stop := make(chan struct{})
	s.timerStop = stop
	go s.runCountdown(stop)
}

func (s *Session) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// runCountdown decrements the clock once per tick and forces a submit
// when it reaches zero. The stop channel is closed the moment the session
// leaves in_progress, so no tick can fire after the attempt is over.
func (s *Session) runCountdown(stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.tick() {
				_, _ = s.Submit(context.Background())
				return
			}
		case <-stop:
			return
		}
	}
}

// tick performs one countdown step and reports whether time ran out.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return false
	}
	if s.timeLeft > 0 {
		s.timeLeft--
		s.broadcastLocked()
	}
	return s.timeLeft == 0
}

// Subscribe returns a channel receiving a snapshot after every state
// change and countdown tick. The caller must invoke cancel to avoid
// leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.SessionSnapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stalest update so a slow consumer never blocks the countdown.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	snap := domain.SessionSnapshot{
		SessionID:     s.id,
		State:         s.state,
		TimeLeft:      s.timeLeft,
		CurrentIndex:  s.currentIdx,
		QuestionCount: len(s.questions),
		Answers:       answers,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
