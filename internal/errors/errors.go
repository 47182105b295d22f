package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidRequest is returned when a match request is malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCorpusUnavailable is returned until the first recipe snapshot has been indexed
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrRecipeNotFound is returned when a recipe id is not part of the current snapshot
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrSourceUnavailable is returned when the recipe source cannot produce a snapshot
	ErrSourceUnavailable = errors.New("recipe source unavailable")

	// ErrCacheMiss is returned by snapshot caches that hold no usable entry
	ErrCacheMiss = errors.New("cache miss")
)

// InvalidRequestError carries the human-readable reason a match request was rejected
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// NewInvalidRequestError creates a new InvalidRequestError
func NewInvalidRequestError(field, reason string) *InvalidRequestError {
	return &InvalidRequestError{Field: field, Reason: reason}
}

// CorpusUnavailableError is returned by queries issued before any index was built
type CorpusUnavailableError struct {
	Reason string
}

func (e *CorpusUnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("corpus unavailable: %s", e.Reason)
	}
	return "corpus unavailable: no recipe snapshot has been loaded yet"
}

func (e *CorpusUnavailableError) Is(target error) bool {
	return target == ErrCorpusUnavailable
}

// NewCorpusUnavailableError creates a new CorpusUnavailableError
func NewCorpusUnavailableError(reason string) *CorpusUnavailableError {
	return &CorpusUnavailableError{Reason: reason}
}

// RecipeNotFoundError represents a recipe lookup miss with context
type RecipeNotFoundError struct {
	RecipeID string
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("recipe with ID '%s' not found", e.RecipeID)
}

func (e *RecipeNotFoundError) Is(target error) bool {
	return target == ErrRecipeNotFound
}

// NewRecipeNotFoundError creates a new RecipeNotFoundError
func NewRecipeNotFoundError(recipeID string) *RecipeNotFoundError {
	return &RecipeNotFoundError{RecipeID: recipeID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// SourceError wraps a failure of a recipe source operation
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("recipe source '%s' failed during %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError
func NewSourceError(source, op string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Err: err}
}
