package tablebridge

import "fmt"

// ErrorKind categorizes the failure modes a table-bridge operation can
// surface to its caller.
type ErrorKind string

const (
	ErrInvalidData   ErrorKind = "invalid_data"
	ErrUnsupported   ErrorKind = "unsupported"
	ErrNotFound      ErrorKind = "not_found"
	ErrConflict      ErrorKind = "conflict"
	ErrIo            ErrorKind = "io"
	ErrObjectStore   ErrorKind = "object_store"
	ErrSerialization ErrorKind = "serialization"
	ErrInternal      ErrorKind = "internal"
)

// TableError is the single error type returned by every exported operation
// in this module. Callers switch on Kind rather than doing string matching
// or type assertions against ad-hoc error structs.
type TableError struct {
	Kind       ErrorKind
	Message    string
	Violations []string
	Cause      error
}

func (e *TableError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Violations)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *TableError) Unwrap() error {
	return e.Cause
}

func newErr(kind ErrorKind, message string) *TableError {
	return &TableError{Kind: kind, Message: message}
}

// NewInvalidDataError reports rows that failed one or more constraint,
// invariant, or not-null checks. Violations holds one human-readable
// description per failed check.
func NewInvalidDataError(message string, violations []string) *TableError {
	return &TableError{Kind: ErrInvalidData, Message: message, Violations: violations}
}

// NewUnsupportedError reports a predicate, schema shape, or configuration
// combination this module does not implement.
func NewUnsupportedError(message string) *TableError {
	return newErr(ErrUnsupported, message)
}

// NewNotFoundError reports a missing column, file, or constraint.
func NewNotFoundError(message string) *TableError {
	return newErr(ErrNotFound, message)
}

// NewConflictError reports a constraint or configuration that already
// exists under the requested name.
func NewConflictError(message string) *TableError {
	return newErr(ErrConflict, message)
}

// NewIoError wraps a failure reading or writing data outside the object
// store contract (e.g. a local scratch file).
func NewIoError(message string, cause error) *TableError {
	return &TableError{Kind: ErrIo, Message: message, Cause: cause}
}

// NewObjectStoreError wraps a failure reported by an ObjectStore
// implementation.
func NewObjectStoreError(message string, cause error) *TableError {
	return &TableError{Kind: ErrObjectStore, Message: message, Cause: cause}
}

// NewSerializationError wraps a failure encoding or decoding a plan, schema,
// or scalar value.
func NewSerializationError(message string, cause error) *TableError {
	return &TableError{Kind: ErrSerialization, Message: message, Cause: cause}
}

// NewInternalError wraps an invariant violation inside this module itself.
func NewInternalError(message string, cause error) *TableError {
	return &TableError{Kind: ErrInternal, Message: message, Cause: cause}
}

// IsKind reports whether err is a *TableError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *TableError
	if e, ok := err.(*TableError); ok {
		te = e
	} else {
		return false
	}
	return te.Kind == kind
}
