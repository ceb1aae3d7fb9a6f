package storage

import (
	"context"

	apperrors "github.com/sprintathon/sprintathon/internal/platform/errors"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrActiveSessionExists indicates the scope already has an active
	// session of the same kind.
	ErrActiveSessionExists = apperrors.New(apperrors.CodeActiveSessionExists, "active session already exists for channel")
)

// MemberStore persists chat users.
type MemberStore interface {
	CreateMember(ctx context.Context, member domain.Member) (domain.Member, error)
	UpdateMember(ctx context.Context, member domain.Member) error
	DeleteMember(ctx context.Context, id int64) error
	GetMember(ctx context.Context, id int64) (domain.Member, error)
	GetMemberByExternalUserID(ctx context.Context, externalUserID string) (domain.Member, error)
	// FindOrCreateMember returns the member for externalUserID, refreshing
	// the stored display name when it changed.
	FindOrCreateMember(ctx context.Context, displayName, externalUserID string) (domain.Member, error)
}

// ServerStore persists chat workspaces and their rosters.
type ServerStore interface {
	CreateServer(ctx context.Context, server domain.Server) (domain.Server, error)
	UpdateServer(ctx context.Context, server domain.Server) error
	DeleteServer(ctx context.Context, id int64) error
	GetServer(ctx context.Context, id int64) (domain.Server, error)
	FindOrCreateServer(ctx context.Context, name, externalGuildID string) (domain.Server, error)
	AddServerMember(ctx context.Context, serverID, memberID int64) error
	ListServerMembers(ctx context.Context, serverID int64) ([]domain.Member, error)
}

// SprintStore persists sprints and their rosters.
type SprintStore interface {
	// CreateSprint inserts a sprint. An active sprint is rejected with
	// ErrActiveSessionExists when its scope already has one.
	CreateSprint(ctx context.Context, sprint domain.Sprint) (domain.Sprint, error)
	UpdateSprint(ctx context.Context, sprint domain.Sprint) error
	DeleteSprint(ctx context.Context, id int64) error
	GetSprint(ctx context.Context, id int64) (domain.Sprint, error)
	GetActiveSprint(ctx context.Context, scope domain.Scope) (domain.Sprint, error)
	ListActiveSprints(ctx context.Context) ([]domain.Sprint, error)
	// DeactivateSprint clears the active flag and reports whether it was set.
	DeactivateSprint(ctx context.Context, id int64) (bool, error)
	AddSprintMember(ctx context.Context, sprintID, memberID int64) error
	// ListSprintMembers returns the roster in join order.
	ListSprintMembers(ctx context.Context, sprintID int64) ([]domain.Member, error)
	// FinalizeSprint writes the outcome and clears the active flag in one
	// transaction. It reports false and writes nothing when the sprint is no
	// longer active. A member that already has a DELTA on the sprint keeps it.
	FinalizeSprint(ctx context.Context, outcome SprintOutcome) (bool, error)
}

// SprintOutcome is everything a sprint's finalization persists.
type SprintOutcome struct {
	SprintID int64
	// SprintathonID receives mirrored deltas and the bonus; zero means none.
	SprintathonID int64
	Deltas        []domain.Submission
	Bonus         *domain.Submission
}

// SprintathonStore persists sprintathons and their aggregates.
type SprintathonStore interface {
	CreateSprintathon(ctx context.Context, sprintathon domain.Sprintathon) (domain.Sprintathon, error)
	UpdateSprintathon(ctx context.Context, sprintathon domain.Sprintathon) error
	DeleteSprintathon(ctx context.Context, id int64) error
	GetSprintathon(ctx context.Context, id int64) (domain.Sprintathon, error)
	GetActiveSprintathon(ctx context.Context, scope domain.Scope) (domain.Sprintathon, error)
	// GetLatestSprintathon returns the most recently started sprintathon in
	// scope, active or not.
	GetLatestSprintathon(ctx context.Context, scope domain.Scope) (domain.Sprintathon, error)
	ListActiveSprintathons(ctx context.Context) ([]domain.Sprintathon, error)
	DeactivateSprintathon(ctx context.Context, id int64) (bool, error)
	// ListSprintathonMembers returns members with attributed submissions, in
	// order of their first attributed submission.
	ListSprintathonMembers(ctx context.Context, sprintathonID int64) ([]domain.Member, error)
	SumSprintathonWordCount(ctx context.Context, sprintathonID, memberID int64, types ...domain.SubmissionType) (int, error)
}

// SubmissionStore persists word-count records and their attributions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission domain.Submission) (domain.Submission, error)
	GetSubmission(ctx context.Context, id int64) (domain.Submission, error)
	DeleteSubmission(ctx context.Context, id int64) error
	// AddSprintSubmission inserts a submission attributed to a sprint and,
	// when mirrorSprintathonID is non-zero, to that sprintathon as well.
	AddSprintSubmission(ctx context.Context, sprintID int64, submission domain.Submission, mirrorSprintathonID int64) (domain.Submission, error)
	AddSprintathonSubmission(ctx context.Context, sprintathonID int64, submission domain.Submission) (domain.Submission, error)
	// ListSprintSubmissionsForMember returns submissions in insertion order.
	ListSprintSubmissionsForMember(ctx context.Context, sprintID, memberID int64) ([]domain.Submission, error)
	CountSprintSubmissionsForMember(ctx context.Context, sprintID, memberID int64) (int, error)
	// GetLastSubmissionForMember returns the member's most recent START or
	// FINISH checkpoint across all sprints.
	GetLastSubmissionForMember(ctx context.Context, memberID int64) (domain.Submission, error)
}

// Store is the full persistence surface used by the session engine.
type Store interface {
	MemberStore
	ServerStore
	SprintStore
	SprintathonStore
	SubmissionStore
}
