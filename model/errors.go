package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrForbidden       = "FORBIDDEN"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrInternalError   = "INTERNAL_ERROR"
)

// Transition denial codes. All four are terminal for a single guard attempt;
// none is retried by the engine itself.
//
//   - INVALID_TRANSITION: the edge does not exist in the workflow graph. A
//     configuration or programming defect — logged as an anomaly, never
//     surfaced to the end user as actionable guidance.
//   - UNAUTHORIZED: the actor's role may not traverse this edge. Expected,
//     user-facing, non-retryable without a role change.
//   - COMMENT_REQUIRED: the edge demands a justification comment and none was
//     supplied. Retryable with a comment.
//   - VERIFICATION_INCOMPLETE: the linked field visit has no submitted
//     report. Retryable once the report lands.
const (
	ErrInvalidTransition      = "INVALID_TRANSITION"
	ErrUnauthorized           = "UNAUTHORIZED"
	ErrCommentRequired        = "COMMENT_REQUIRED"
	ErrVerificationIncomplete = "VERIFICATION_INCOMPLETE"
)

// ErrorEnvelope is the standard error response envelope. It implements the
// error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewUnauthenticatedError returns an UNAUTHENTICATED error.
func NewUnauthenticatedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnauthenticated, Message: msg}
}

// NewForbiddenError returns a FORBIDDEN error.
func NewForbiddenError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrForbidden, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}

// NewInvalidTransitionError returns an INVALID_TRANSITION denial.
func NewInvalidTransitionError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidTransition, Message: msg}
}

// NewUnauthorizedError returns an UNAUTHORIZED denial.
func NewUnauthorizedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnauthorized, Message: msg}
}

// NewCommentRequiredError returns a COMMENT_REQUIRED denial.
func NewCommentRequiredError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrCommentRequired, Message: msg}
}

// NewVerificationIncompleteError returns a VERIFICATION_INCOMPLETE denial.
func NewVerificationIncompleteError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrVerificationIncomplete, Message: msg}
}

// DenialCode extracts the denial code from an error returned by the
// transition guard, or "" if err is nil or not an envelope.
func DenialCode(err error) string {
	if err == nil {
		return ""
	}
	if ee, ok := err.(*ErrorEnvelope); ok {
		return ee.Code
	}
	return ErrInternalError
}
