package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when a session is started with no questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrInvalidPhase is returned when an operation arrives outside the phase
	// that permits it, e.g. a second submission while the first is being graded.
	ErrInvalidPhase = errors.New("operation not valid in current session phase")
	// ErrSessionNotFinished is returned when the result is requested before the
	// session reaches its terminal phase.
	ErrSessionNotFinished = errors.New("session not finished")
	// ErrSessionClosed is returned after a session has been exited; late timer
	// fires and in-flight grading results are discarded against it.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionNotFound is returned when a session ID has no live runner.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionSetNotFound indicates the question material could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrUnknownMode indicates an unrecognized session mode string.
	ErrUnknownMode = errors.New("unknown session mode")
)
