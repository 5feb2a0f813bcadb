package engine

import "errors"

// Input validation errors: the caller must correct the request.
var (
	ErrInvalidAction  = errors.New("action not supported for platform")
	ErrInvalidLink    = errors.New("link does not match platform")
	ErrInvalidBalance = errors.New("balance must not be negative")
)

// State-conflict errors: the request was well-formed but the current state
// rejects it. Clients must not retry automatically.
var (
	ErrDuplicateLink    = errors.New("an active task with this link already exists")
	ErrTaskInactive     = errors.New("task is no longer active")
	ErrSelfCompletion   = errors.New("cannot complete your own task")
	ErrAlreadyCompleted = errors.New("task already completed")
)

// Not-found errors: usually stale client state, a refresh resolves it.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrPrincipalNotFound = errors.New("principal not found")
)
