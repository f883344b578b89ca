package session

import "errors"

// Submission gating and persistence conditions. Navigation problems are
// clamped rather than surfaced, so only jump targets report
// ErrInvalidNavigation, and callers treat it as a rejected request, not a
// corrupted session.
var (
	ErrInvalidNavigation    = errors.New("session: navigation target out of range")
	ErrIncompleteEvaluation = errors.New("session: not all cells have been judged")
	ErrMissingEvaluatorID   = errors.New("session: evaluator ID is required")
	ErrPersistenceFailure   = errors.New("session: persisting judgments failed")
	ErrAlreadySubmitted     = errors.New("session: judgments already submitted")
)
