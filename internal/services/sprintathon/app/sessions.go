package app

import (
	"context"
	"errors"
	"log"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
)

// Sender identifies the chat user behind a command.
type Sender struct {
	ExternalUserID string
	DisplayName    string
}

// StartSprint opens a sprint in scope and schedules its timer. A sprintathon
// running in the same scope becomes the sprint's parent.
func (e *Engine) StartSprint(ctx context.Context, scope domain.Scope, minutes int) (domain.Sprint, error) {
	if minutes <= 0 {
		return domain.Sprint{}, domain.ErrInvalidDuration
	}
	var parentID int64
	parent, err := e.store.GetActiveSprintathon(ctx, scope)
	switch {
	case err == nil:
		parentID = parent.ID
	case !isNotFound(err):
		return domain.Sprint{}, wrapStore("lookup parent sprintathon", err)
	}

	sprint, err := e.store.CreateSprint(ctx, domain.Sprint{
		Start:           e.clock.Now(),
		DurationMinutes: minutes,
		ServerID:        scope.ServerID,
		ChannelID:       scope.ChannelID,
		SprintathonID:   parentID,
		Active:          true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrActiveSessionExists) {
			return domain.Sprint{}, domain.ActiveSessionExists(domain.SessionSprint)
		}
		return domain.Sprint{}, wrapStore("create sprint", err)
	}

	e.send(ctx, sprint.ChannelID, e.render.SprintStarted(minutes))
	e.launchSprint(sprint)
	return sprint, nil
}

// StopSprint cancels the running sprint in scope without scoring it.
func (e *Engine) StopSprint(ctx context.Context, scope domain.Scope) error {
	sprint, err := e.store.GetActiveSprint(ctx, scope)
	if err != nil {
		if isNotFound(err) {
			return domain.NoActiveSession(domain.SessionSprint)
		}
		return wrapStore("lookup active sprint", err)
	}
	changed, err := e.store.DeactivateSprint(ctx, sprint.ID)
	if err != nil {
		return wrapStore("deactivate sprint", err)
	}
	if !changed {
		return domain.NoActiveSession(domain.SessionSprint)
	}
	e.send(ctx, sprint.ChannelID, e.render.SprintStopped())
	return nil
}

// StartSprintathon opens a sprintathon in scope and schedules its timer.
func (e *Engine) StartSprintathon(ctx context.Context, scope domain.Scope, hours int) (domain.Sprintathon, error) {
	if hours <= 0 {
		return domain.Sprintathon{}, domain.ErrInvalidDuration
	}
	sprintathon, err := e.store.CreateSprintathon(ctx, domain.Sprintathon{
		Start:         e.clock.Now(),
		DurationHours: hours,
		ServerID:      scope.ServerID,
		ChannelID:     scope.ChannelID,
		Active:        true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrActiveSessionExists) {
			return domain.Sprintathon{}, domain.ActiveSessionExists(domain.SessionSprintathon)
		}
		return domain.Sprintathon{}, wrapStore("create sprintathon", err)
	}

	e.send(ctx, sprintathon.ChannelID, e.render.SprintathonStarted(hours))
	e.launchSprintathon(sprintathon)
	return sprintathon, nil
}

// StopSprintathon cancels the running sprintathon in scope without final
// standings. Attributed submissions are kept.
func (e *Engine) StopSprintathon(ctx context.Context, scope domain.Scope) error {
	sprintathon, err := e.store.GetActiveSprintathon(ctx, scope)
	if err != nil {
		if isNotFound(err) {
			return domain.NoActiveSession(domain.SessionSprintathon)
		}
		return wrapStore("lookup active sprintathon", err)
	}
	changed, err := e.store.DeactivateSprintathon(ctx, sprintathon.ID)
	if err != nil {
		return wrapStore("deactivate sprintathon", err)
	}
	if !changed {
		return domain.NoActiveSession(domain.SessionSprintathon)
	}
	e.send(ctx, sprintathon.ChannelID, e.render.SprintathonStopped())
	return nil
}

// CheckIn records a member's word count against the running sprint in scope.
// The first check-in is the START checkpoint, every later one a FINISH.
//
// Two simultaneous first check-ins from the same member can both be typed
// START; the scorer then uses the earlier one and the member has no FINISH.
func (e *Engine) CheckIn(ctx context.Context, scope domain.Scope, sender Sender, raw string) (domain.Submission, error) {
	value, err := domain.ParseCheckIn(raw)
	if err != nil {
		return domain.Submission{}, err
	}
	sprint, err := e.store.GetActiveSprint(ctx, scope)
	if err != nil {
		if isNotFound(err) {
			return domain.Submission{}, domain.NoActiveSession(domain.SessionSprint)
		}
		return domain.Submission{}, wrapStore("lookup active sprint", err)
	}

	member, err := e.store.FindOrCreateMember(ctx, sender.DisplayName, sender.ExternalUserID)
	if err != nil {
		return domain.Submission{}, wrapStore("find member", err)
	}
	if err := e.store.AddServerMember(ctx, scope.ServerID, member.ID); err != nil {
		return domain.Submission{}, wrapStore("add server member", err)
	}

	count := value.WordCount
	if value.Same {
		last, err := e.store.GetLastSubmissionForMember(ctx, member.ID)
		if err != nil {
			if isNotFound(err) {
				return domain.Submission{}, domain.ErrNoPriorSubmission
			}
			return domain.Submission{}, wrapStore("lookup last submission", err)
		}
		count = last.WordCount
	}

	prior, err := e.store.CountSprintSubmissionsForMember(ctx, sprint.ID, member.ID)
	if err != nil {
		return domain.Submission{}, wrapStore("count submissions", err)
	}
	if err := e.store.AddSprintMember(ctx, sprint.ID, member.ID); err != nil {
		return domain.Submission{}, wrapStore("add sprint member", err)
	}
	submission, err := e.store.AddSprintSubmission(ctx, sprint.ID, domain.Submission{
		MemberID:  member.ID,
		WordCount: count,
		Type:      domain.CheckInType(prior),
		CreatedAt: e.clock.Now(),
	}, sprint.SprintathonID)
	if err != nil {
		return domain.Submission{}, wrapStore("record submission", err)
	}

	e.send(ctx, sprint.ChannelID, e.render.CheckIn(member.ExternalUserID, submission))
	return submission, nil
}

// Leaderboard renders the standings of the scope's running sprintathon, or of
// its most recent one when none is running.
func (e *Engine) Leaderboard(ctx context.Context, scope domain.Scope) (string, error) {
	sprintathon, err := e.store.GetActiveSprintathon(ctx, scope)
	if isNotFound(err) {
		sprintathon, err = e.store.GetLatestSprintathon(ctx, scope)
	}
	if err != nil {
		if isNotFound(err) {
			return e.render.NoLeaderboard(), nil
		}
		return "", wrapStore("lookup sprintathon", err)
	}
	standings, err := e.sprintathonStandings(ctx, sprintathon)
	if err != nil {
		return "", err
	}
	return e.render.Leaderboard(standings), nil
}

func (e *Engine) launchSprint(sprint domain.Sprint) {
	e.spawn(func() { e.runSprint(e.lifetime, sprint) })
}

func (e *Engine) launchSprintathon(sprintathon domain.Sprintathon) {
	e.spawn(func() { e.runSprintathon(e.lifetime, sprintathon) })
}

// runSprint drives one sprint from its persisted start through finalization.
// Live and recovered sprints share this path; only the remaining time differs.
func (e *Engine) runSprint(ctx context.Context, sprint domain.Sprint) {
	wait := shorten(domain.Remaining(sprint.End(), e.clock.Now()), e.timing.SprintWait)
	if err := e.clock.Sleep(ctx, wait); err != nil {
		return
	}
	if !e.sprintActive(ctx, sprint) {
		return
	}
	e.send(ctx, sprint.ChannelID, e.render.SprintTimeUp(e.timing.checkInWindowMinutes()))

	if err := e.clock.Sleep(ctx, e.timing.CheckInWindow); err != nil {
		return
	}
	if !e.sprintActive(ctx, sprint) {
		return
	}
	if err := e.finalizeSprint(ctx, sprint); err != nil {
		log.Printf("sprint %d: finalize: %v", sprint.ID, err)
		e.send(ctx, sprint.ChannelID, e.render.SprintFailed())
	}
}

// runSprintathon drives one sprintathon, posting a warning when the final
// hour begins.
func (e *Engine) runSprintathon(ctx context.Context, sprintathon domain.Sprintathon) {
	remaining := domain.Remaining(sprintathon.End(), e.clock.Now())
	if e.timing.SprintathonWait > 0 {
		remaining = shorten(remaining, e.timing.SprintathonWait)
	} else if warn := e.timing.FinalHourWarning; warn > 0 && remaining > warn {
		if err := e.clock.Sleep(ctx, remaining-warn); err != nil {
			return
		}
		if !e.sprintathonActive(ctx, sprintathon) {
			return
		}
		e.send(ctx, sprintathon.ChannelID, e.render.SprintathonFinalHour())
		remaining = domain.Remaining(sprintathon.End(), e.clock.Now())
	}
	if err := e.clock.Sleep(ctx, remaining); err != nil {
		return
	}
	if !e.sprintathonActive(ctx, sprintathon) {
		return
	}
	if err := e.finalizeSprintathon(ctx, sprintathon); err != nil {
		log.Printf("sprintathon %d: finalize: %v", sprintathon.ID, err)
		e.send(ctx, sprintathon.ChannelID, e.render.SprintathonFailed())
	}
}

// sprintActive re-reads the persisted flag. A read failure ends the task and
// leaves the row for recovery on the next start.
func (e *Engine) sprintActive(ctx context.Context, sprint domain.Sprint) bool {
	current, err := e.store.GetSprint(ctx, sprint.ID)
	if err != nil {
		if isNotFound(err) {
			return false
		}
		log.Printf("sprint %d: reload: %v", sprint.ID, err)
		e.send(ctx, sprint.ChannelID, e.render.SprintFailed())
		return false
	}
	return current.Active
}

func (e *Engine) sprintathonActive(ctx context.Context, sprintathon domain.Sprintathon) bool {
	current, err := e.store.GetSprintathon(ctx, sprintathon.ID)
	if err != nil {
		if isNotFound(err) {
			return false
		}
		log.Printf("sprintathon %d: reload: %v", sprintathon.ID, err)
		e.send(ctx, sprintathon.ChannelID, e.render.SprintathonFailed())
		return false
	}
	return current.Active
}
