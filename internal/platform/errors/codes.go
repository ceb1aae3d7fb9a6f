// Package errors provides coded domain errors that the chat surface can turn
// into user-facing notices.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound            Code = "NOT_FOUND"
	CodeActiveSessionExists Code = "ACTIVE_SESSION_EXISTS"

	// Session errors
	CodeNoActiveSession Code = "NO_ACTIVE_SESSION"
	CodeInvalidDuration Code = "INVALID_DURATION"

	// Check-in errors
	CodeInvalidWordCount  Code = "INVALID_WORD_COUNT"
	CodeNoPriorSubmission Code = "NO_PRIOR_SUBMISSION"
)

// UserFacing reports whether errors with this code describe a rejected user
// request rather than an infrastructure failure.
func (c Code) UserFacing() bool {
	switch c {
	case CodeActiveSessionExists,
		CodeNoActiveSession,
		CodeInvalidDuration,
		CodeInvalidWordCount,
		CodeNoPriorSubmission:
		return true
	default:
		return false
	}
}
