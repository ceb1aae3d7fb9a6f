package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionType classifies one word-count record.
type SubmissionType string

const (
	// SubmissionStart is a member's first check-in for a sprint.
	SubmissionStart SubmissionType = "START"
	// SubmissionFinish is any later check-in for the same sprint.
	SubmissionFinish SubmissionType = "FINISH"
	// SubmissionDelta is the finish-minus-start value computed at sprint close.
	SubmissionDelta SubmissionType = "DELTA"
	// SubmissionBonus is extra sprintathon credit for a sprint's top scorer.
	SubmissionBonus SubmissionType = "BONUS"
)

// Valid reports whether t is one of the known submission types.
func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionStart, SubmissionFinish, SubmissionDelta, SubmissionBonus:
		return true
	default:
		return false
	}
}

// Checkpoint reports whether t is a raw member-reported count.
func (t SubmissionType) Checkpoint() bool {
	return t == SubmissionStart || t == SubmissionFinish
}

// ParseSubmissionType converts a stored value into a SubmissionType.
func ParseSubmissionType(raw string) (SubmissionType, error) {
	t := SubmissionType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown submission type %q", raw)
	}
	return t, nil
}

// Member is one chat user who has checked in at least once.
type Member struct {
	ID             int64
	DisplayName    string
	ExternalUserID string
}

// Server is one chat workspace (guild).
type Server struct {
	ID              int64
	Name            string
	ExternalGuildID string
}

// Scope bounds at most one running sprint and one running sprintathon.
type Scope struct {
	ServerID  int64
	ChannelID string
}

// Sprint is a short timed writing session.
type Sprint struct {
	ID              int64
	Start           time.Time
	DurationMinutes int
	ServerID        int64
	// SprintathonID is the sprintathon running in the same scope when the
	// sprint started, or zero.
	SprintathonID int64
	Active        bool
	ChannelID     string
}

// Scope returns the sprint's (server, channel) pair.
func (s Sprint) Scope() Scope {
	return Scope{ServerID: s.ServerID, ChannelID: s.ChannelID}
}

// Duration returns the configured sprint length.
func (s Sprint) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// End returns the instant the sprint's writing phase is over.
func (s Sprint) End() time.Time {
	return s.Start.Add(s.Duration())
}

// Sprintathon is a long timed event aggregating multiple sprints.
type Sprintathon struct {
	ID            int64
	Start         time.Time
	DurationHours int
	ServerID      int64
	Active        bool
	ChannelID     string
}

// Scope returns the sprintathon's (server, channel) pair.
func (s Sprintathon) Scope() Scope {
	return Scope{ServerID: s.ServerID, ChannelID: s.ChannelID}
}

// Duration returns the configured sprintathon length.
func (s Sprintathon) Duration() time.Duration {
	return time.Duration(s.DurationHours) * time.Hour
}

// End returns the instant the sprintathon is over.
func (s Sprintathon) End() time.Time {
	return s.Start.Add(s.Duration())
}

// Submission is one immutable word-count record owned by a member.
type Submission struct {
	ID        int64
	MemberID  int64
	WordCount int
	Type      SubmissionType
	CreatedAt time.Time
}

// Remaining returns how long is left until end, clamped to zero.
func Remaining(end, now time.Time) time.Duration {
	left := end.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
