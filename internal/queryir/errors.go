package queryir

import (
	"errors"
	"fmt"
)

// BadQueryError represents a malformed client query.
//
// Bad queries include:
//   - Unknown operator names
//   - Filtering or ordering by an attribute the object type does not have
//   - Malformed date literals and task date macro forms
//   - Malformed relevant-filter identifiers
//   - Malformed pagination bounds
//   - Ordering by similarity without a prior similar filter
//
// Bad queries are terminal client input errors: the whole batch resolution
// aborts and nothing is retried.
type BadQueryError struct {
	// Code identifies the error category.
	Code BadQueryCode

	// Message is a human-readable description.
	Message string

	// Object names the object type involved, when known.
	Object string

	// Field names the attribute involved, when known.
	Field string
}

// BadQueryCode categorizes bad query errors.
type BadQueryCode string

const (
	// CodeUnknownOperator indicates an operator name outside the supported set.
	CodeUnknownOperator BadQueryCode = "UNKNOWN_OPERATOR"

	// CodeUnknownAttribute indicates a field name the object type does not have.
	CodeUnknownAttribute BadQueryCode = "UNKNOWN_ATTRIBUTE"

	// CodeBadDate indicates a date literal that does not parse as MM/DD/YYYY
	// or names a calendar-invalid date.
	CodeBadDate BadQueryCode = "BAD_DATE"

	// CodeBadRelevantIDs indicates non-numeric identifiers on a relevant leaf.
	CodeBadRelevantIDs BadQueryCode = "BAD_RELEVANT_IDS"

	// CodeBadLimit indicates malformed pagination bounds.
	CodeBadLimit BadQueryCode = "BAD_LIMIT"

	// CodeBadExpression indicates a structurally invalid expression node.
	CodeBadExpression BadQueryCode = "BAD_EXPRESSION"

	// CodeBadOrdering indicates an order-by clause that cannot be satisfied,
	// including similarity ordering with no prior similar filter.
	CodeBadOrdering BadQueryCode = "BAD_ORDERING"

	// CodeNoSimilarity indicates the target type declares no similarity contract.
	CodeNoSimilarity BadQueryCode = "NO_SIMILARITY"
)

// Error implements the error interface.
func (e *BadQueryError) Error() string {
	if e.Object != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s (object=%s, field=%s)", e.Code, e.Message, e.Object, e.Field)
	}
	if e.Object != "" {
		return fmt.Sprintf("%s: %s (object=%s)", e.Code, e.Message, e.Object)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBadQuery returns true if the error is a bad query error.
// Uses errors.As to handle wrapped errors.
func IsBadQuery(err error) bool {
	var bq *BadQueryError
	return errors.As(err, &bq)
}

// BadQueryf creates a BadQueryError with a formatted message.
func BadQueryf(code BadQueryCode, format string, args ...any) *BadQueryError {
	return &BadQueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownAttributeError creates a BadQueryError for a missing attribute.
func NewUnknownAttributeError(object, field string) *BadQueryError {
	return &BadQueryError{
		Code:    CodeUnknownAttribute,
		Message: fmt.Sprintf("object %q does not have attribute %q", object, field),
		Object:  object,
		Field:   field,
	}
}

// NewBadDateError creates a BadQueryError for a malformed date literal.
func NewBadDateError(field string) *BadQueryError {
	return &BadQueryError{
		Code:    CodeBadDate,
		Message: fmt.Sprintf("field %q expects a MM/DD/YYYY date", field),
		Field:   field,
	}
}
