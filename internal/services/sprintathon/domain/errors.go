package domain

import apperrors "github.com/sprintathon/sprintathon/internal/platform/errors"

// Session kinds carried in error metadata under MetadataSession.
const (
	MetadataSession    = "session"
	SessionSprint      = "sprint"
	SessionSprintathon = "sprintathon"
)

var (
	// ErrInvalidWordCount indicates a check-in value that is neither a
	// non-negative integer nor the "same" keyword.
	ErrInvalidWordCount = apperrors.New(apperrors.CodeInvalidWordCount, "word count must be a non-negative integer or \"same\"")
	// ErrInvalidDuration indicates a non-positive or non-numeric duration argument.
	ErrInvalidDuration = apperrors.New(apperrors.CodeInvalidDuration, "duration must be a positive integer")
	// ErrNoPriorSubmission indicates "same" was used without any earlier check-in.
	ErrNoPriorSubmission = apperrors.New(apperrors.CodeNoPriorSubmission, "no previous submission to reuse")
)

// ActiveSessionExists builds the rejection for starting a second session of
// the same kind in one scope.
func ActiveSessionExists(session string) error {
	return apperrors.WithMetadata(apperrors.CodeActiveSessionExists, session+" already active for channel", map[string]string{
		MetadataSession: session,
	})
}

// NoActiveSession builds the rejection for commands that need a running session.
func NoActiveSession(session string) error {
	return apperrors.WithMetadata(apperrors.CodeNoActiveSession, "no active "+session+" for channel", map[string]string{
		MetadataSession: session,
	})
}
