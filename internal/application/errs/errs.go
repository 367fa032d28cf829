package errs

import "fmt"

type NotFoundError struct {
	Err error
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("not found: %v", t.Err)
}

type ConflictError struct {
	Err error
}

func (t ConflictError) Error() string {
	return fmt.Sprintf("conflict: %v", t.Err)
}

// DuplicateSubmissionError is returned when a customer resubmits within the
// cooldown window. Callers translate it to a retry-later response.
type DuplicateSubmissionError struct {
	Err error
}

func (t DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("duplicate submission: %v", t.Err)
}

type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}
