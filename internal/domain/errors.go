package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when a session is started with no
	// questions available; terminal for the attempt.
	ErrEmptyQuestionSet = errors.New("no questions available")
	// ErrInvalidTransition is returned when an operation is invoked in a
	// state that disallows it.
	ErrInvalidTransition = errors.New("invalid session state for operation")
	// ErrScoringUnavailable indicates grading could not complete because
	// the ground truth could not be fetched; the session stays retryable.
	ErrScoringUnavailable = errors.New("scoring service unreachable")
	// ErrMalformedAnswer indicates a submission entry referencing a choice
	// that does not belong to its question, or a structurally invalid entry.
	ErrMalformedAnswer = errors.New("malformed answer payload")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
)
