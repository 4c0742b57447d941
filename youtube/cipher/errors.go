package cipher

import "github.com/ytget/ytdetails/errs"

// Error codes
const (
	CodeTimestampNotFound = "SIGNATURE_TIMESTAMP_NOT_FOUND"
	CodeRoutineNotFound   = "SIGNATURE_ROUTINE_NOT_FOUND"
	CodeJSParsing         = "JS_PARSING_FAILED"
)

// newError creates a fault-severity error with the given code.
func newError(code string, message string, details ...any) *errs.Error {
	return errs.New(code, errs.SeverityFault, message, details...)
}

// IsNotFound returns true if a required part of the player script was missing.
func IsNotFound(err error) bool {
	e, ok := errs.As(err)
	return ok && (e.Code == CodeTimestampNotFound || e.Code == CodeRoutineNotFound)
}

// IsJSError returns true if extracted script code failed to parse.
func IsJSError(err error) bool {
	e, ok := errs.As(err)
	return ok && e.Code == CodeJSParsing
}
