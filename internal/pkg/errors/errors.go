package errors

import "errors"

var (
	// ErrNotAuthenticated means no actor could be resolved for the request.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized means the caller presented bad credentials (worker secret mismatch included).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrJobNotFound means a worker callback referenced an unknown job.
	ErrJobNotFound = errors.New("job not found")
	// ErrStorage wraps store read/write failures.
	ErrStorage = errors.New("storage error")
	// ErrGenerationFailed wraps text-provider failures; safe to retry from the caller.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrGenerationInvalid means the provider returned unusable content; never persisted.
	ErrGenerationInvalid = errors.New("generation invalid")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
