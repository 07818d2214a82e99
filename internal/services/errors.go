package services

import "errors"

// Error taxonomy for the capture and quiz workflows. Handlers map these to
// HTTP status codes; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrValidation indicates bad user input, e.g. an empty name
	ErrValidation = errors.New("validation error")
	// ErrPrecondition indicates required prior state is missing,
	// e.g. no friend selected before creating an event
	ErrPrecondition = errors.New("precondition not met")
	// ErrPermissionDenied indicates an OS-level permission was refused
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNetwork indicates a transport-level failure
	ErrNetwork = errors.New("network error")
	// ErrTimeout indicates a call exceeded its deadline
	ErrTimeout = errors.New("timeout")
	// ErrServer indicates a non-2xx response from a collaborator
	ErrServer = errors.New("server error")
	// ErrInsufficientContent is the domain error for quiz generation when
	// too little has been captured about the friend
	ErrInsufficientContent = errors.New("not enough captured memories")

	// ErrMinimumBlocks guards the at-least-one-editable-block invariant
	ErrMinimumBlocks = errors.New("cannot remove the last block")
	// ErrMissingLink means commit was attempted without a link id
	ErrMissingLink = errors.New("no link for this capture")
	// ErrNothingToSave means every block was blank after filtering
	ErrNothingToSave = errors.New("nothing to save")
	// ErrNoAnswerSelected means submit was attempted with no staged answer
	ErrNoAnswerSelected = errors.New("no answer selected")

	// ErrInvalidTransition means an operation was called in the wrong state
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSessionNotFound means the referenced session does not exist
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy means another operation for this session is in flight
	ErrSessionBusy = errors.New("operation already in flight")
)
