package stub

import (
	"errors"
	"fmt"
)

// ErrInvalidPredicate is matched by every *InvalidPredicateError via errors.Is.
var ErrInvalidPredicate = errors.New("invalid predicate")

// InvalidPredicateError reports a stub that cannot be registered: a regex
// that does not compile, an unparsable JSONPath, XPath, schema or expression,
// or a contradictory combination of matchers.
type InvalidPredicateError struct {
	// Field locates the offending component, e.g. "request.headers.Accept".
	Field string
	// Reason is a short description of the problem.
	Reason string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *InvalidPredicateError) Error() string {
	msg := "invalid predicate"
	if e.Field != "" {
		msg += " at " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidPredicateError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidPredicate) hold for any InvalidPredicateError.
func (e *InvalidPredicateError) Is(target error) bool {
	return target == ErrInvalidPredicate
}

// Invalid builds an InvalidPredicateError with a formatted reason.
func Invalid(field string, err error, format string, args ...any) *InvalidPredicateError {
	return &InvalidPredicateError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}
