package render

import (
	"strings"

	apperrors "github.com/sprintathon/sprintathon/internal/platform/errors"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	keySprintStarted       = "sprint.started"
	keySprintTimeUp        = "sprint.time_up"
	keySprintAlreadyActive = "sprint.already_active"
	keySprintNoneActive    = "sprint.none_active"
	keySprintStopped       = "sprint.stopped"
	keySprintResuming      = "sprint.resuming"
	keySprintResultsHeader = "sprint.results.header"
	keySprintResultsEmpty  = "sprint.results.empty"
	keySprintBonus         = "sprint.bonus"
	keySprintFailed        = "sprint.failed"

	keySprintathonStarted       = "sprintathon.started"
	keySprintathonAlreadyActive = "sprintathon.already_active"
	keySprintathonNoneActive    = "sprintathon.none_active"
	keySprintathonStopped       = "sprintathon.stopped"
	keySprintathonResuming      = "sprintathon.resuming"
	keySprintathonFinalHour     = "sprintathon.final_hour"
	keySprintathonFinished      = "sprintathon.finished"
	keySprintathonFailed        = "sprintathon.failed"

	keyLeaderboardHeader = "leaderboard.header"
	keyLeaderboardEmpty  = "leaderboard.empty"
	keyLeaderboardNone   = "leaderboard.none"
	keyStandingLine      = "leaderboard.line"

	keyNoticeMissingCheckpoint = "notice.missing_checkpoint"
	keyNoticeFinishBelowStart  = "notice.finish_below_start"
	keyNoticeNoProgress        = "notice.no_progress"

	keyCheckInStart    = "checkin.start"
	keyCheckInFinish   = "checkin.finish"
	keyCheckInInvalid  = "checkin.invalid"
	keyCheckInNoPrior  = "checkin.no_prior"
	keyDurationInvalid = "duration.invalid"
	keyGenericFailure  = "error.generic"

	keyVersion = "info.version"
	keyAbout   = "info.about"
	keyHelp    = "info.help"
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Renderer turns session events into chat text.
type Renderer struct {
	loc    Localizer
	prefix string
}

// New returns a renderer; a nil loc uses the English catalog.
func New(loc Localizer, prefix string) *Renderer {
	if loc == nil {
		loc = message.NewPrinter(language.English)
	}
	return &Renderer{loc: loc, prefix: prefix}
}

func (r *Renderer) text(key string, args ...any) string {
	return r.loc.Sprintf(key, args...)
}

// SprintStarted announces a new sprint.
func (r *Renderer) SprintStarted(minutes int) string {
	return r.text(keySprintStarted, minutes, r.prefix)
}

// SprintTimeUp opens the final check-in window.
func (r *Renderer) SprintTimeUp(windowMinutes int) string {
	return r.text(keySprintTimeUp, windowMinutes, r.prefix)
}

// SprintStopped confirms a cancelled sprint.
func (r *Renderer) SprintStopped() string { return r.text(keySprintStopped) }

// SprintResuming announces a sprint recovered after a restart.
func (r *Renderer) SprintResuming() string { return r.text(keySprintResuming) }

// SprintFailed reports a sprint whose finalization could not complete.
func (r *Renderer) SprintFailed() string { return r.text(keySprintFailed) }

// SprintathonStarted announces a new sprintathon.
func (r *Renderer) SprintathonStarted(hours int) string {
	return r.text(keySprintathonStarted, hours)
}

// SprintathonStopped confirms a cancelled sprintathon.
func (r *Renderer) SprintathonStopped() string { return r.text(keySprintathonStopped) }

// SprintathonResuming announces a sprintathon recovered after a restart.
func (r *Renderer) SprintathonResuming() string { return r.text(keySprintathonResuming) }

// SprintathonFinalHour warns that one hour remains.
func (r *Renderer) SprintathonFinalHour() string { return r.text(keySprintathonFinalHour) }

// SprintathonFailed reports a sprintathon whose finalization could not complete.
func (r *Renderer) SprintathonFailed() string { return r.text(keySprintathonFailed) }

// SprintResults renders the closing leaderboard of a sprint.
func (r *Renderer) SprintResults(standings []domain.Standing) string {
	if len(standings) == 0 {
		return r.text(keySprintResultsEmpty)
	}
	return r.standings(r.text(keySprintResultsHeader), standings)
}

// SprintathonResults renders the final standings of a sprintathon.
func (r *Renderer) SprintathonResults(standings []domain.Standing) string {
	if len(standings) == 0 {
		return r.text(keySprintathonFinished) + "\n" + r.text(keyLeaderboardEmpty)
	}
	return r.standings(r.text(keySprintathonFinished), standings)
}

// Leaderboard renders current sprintathon standings.
func (r *Renderer) Leaderboard(standings []domain.Standing) string {
	if len(standings) == 0 {
		return r.text(keyLeaderboardEmpty)
	}
	return r.standings(r.text(keyLeaderboardHeader), standings)
}

// NoLeaderboard reports a scope where no sprintathon ever ran.
func (r *Renderer) NoLeaderboard() string { return r.text(keyLeaderboardNone) }

func (r *Renderer) standings(header string, standings []domain.Standing) string {
	var b strings.Builder
	b.WriteString(header)
	for i, standing := range standings {
		b.WriteByte('\n')
		b.WriteString(r.text(keyStandingLine, domain.Ordinal(i+1), standing.ExternalUserID, standing.WordCount, standing.WordsPerMinute))
	}
	return b.String()
}

// Bonus announces first-place sprintathon credit.
func (r *Renderer) Bonus(externalUserID string, words int) string {
	return r.text(keySprintBonus, externalUserID, words)
}

// Anomaly renders the per-member notice for an unranked or zero result. It
// returns "" for an ordinary scored outcome.
func (r *Renderer) Anomaly(externalUserID string, eval domain.Evaluation) string {
	switch eval.Outcome {
	case domain.OutcomeMissingCheckpoint:
		return r.text(keyNoticeMissingCheckpoint, externalUserID)
	case domain.OutcomeFinishBelowStart:
		return r.text(keyNoticeFinishBelowStart, externalUserID, eval.Finish, eval.Start)
	case domain.OutcomeNoProgress:
		return r.text(keyNoticeNoProgress, externalUserID)
	default:
		return ""
	}
}

// CheckIn confirms a recorded check-in.
func (r *Renderer) CheckIn(externalUserID string, submission domain.Submission) string {
	if submission.Type == domain.SubmissionStart {
		return r.text(keyCheckInStart, externalUserID, submission.WordCount)
	}
	return r.text(keyCheckInFinish, externalUserID, submission.WordCount)
}

// Notice maps a command error to chat text. Errors without a user-facing
// code render as a generic failure.
func (r *Renderer) Notice(err error) string {
	session := apperrors.MetadataOf(err)[domain.MetadataSession]
	switch apperrors.CodeOf(err) {
	case apperrors.CodeActiveSessionExists:
		if session == domain.SessionSprintathon {
			return r.text(keySprintathonAlreadyActive)
		}
		return r.text(keySprintAlreadyActive)
	case apperrors.CodeNoActiveSession:
		if session == domain.SessionSprintathon {
			return r.text(keySprintathonNoneActive)
		}
		return r.text(keySprintNoneActive)
	case apperrors.CodeInvalidWordCount:
		return r.text(keyCheckInInvalid)
	case apperrors.CodeNoPriorSubmission:
		return r.text(keyCheckInNoPrior)
	case apperrors.CodeInvalidDuration:
		return r.text(keyDurationInvalid)
	default:
		return r.text(keyGenericFailure)
	}
}

// Version renders the version reply.
func (r *Renderer) Version(version string) string { return r.text(keyVersion, version) }

// About renders the about reply.
func (r *Renderer) About(version string) string { return r.text(keyAbout, version) }

// Help renders the command list.
func (r *Renderer) Help() string { return r.text(keyHelp, r.prefix) }
