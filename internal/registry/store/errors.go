package store

import "fmt"

// NotFoundError indicates the resource was not found (or belongs to another user).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates a client-side validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// CodeUniquenessViolation is the ConflictError code of duplicate names.
const CodeUniquenessViolation = "uniqueness_violation"

// ConflictError indicates a uniqueness/conflict violation.
type ConflictError struct {
	Message string
	Code    string
	Details map[string]interface{}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ReferentialIntegrityError indicates the operation would break a reference
// between records, such as deleting a category that still holds items.
type ReferentialIntegrityError struct {
	Resource string
	ID       string
	Message  string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Message)
}

// StoreError wraps a backend failure with the operation that caused it.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Wrap returns err as a *StoreError, passing nil and typed store errors through.
func Wrap(op, collection string, err error) error {
	switch err.(type) {
	case nil:
		return nil
	case *NotFoundError, *ValidationError, *ConflictError, *ReferentialIntegrityError, *StoreError:
		return err
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}
