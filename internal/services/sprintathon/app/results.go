package app

import (
	"context"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// finalizeSprint scores the roster, then persists the deltas, the
// first-place bonus and the closed flag in one store call. Chat output
// follows the commit and is skipped when the sprint was stopped first.
func (e *Engine) finalizeSprint(ctx context.Context, sprint domain.Sprint) (err error) {
	ctx, span := e.tracer.Start(ctx, "sprint.finalize", trace.WithAttributes(
		attribute.Int64("sprint.id", sprint.ID),
		attribute.String("sprint.channel_id", sprint.ChannelID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	parentID, err := e.activeParent(ctx, sprint)
	if err != nil {
		return err
	}
	members, err := e.store.ListSprintMembers(ctx, sprint.ID)
	if err != nil {
		return wrapStore("list sprint members", err)
	}

	now := e.clock.Now()
	outcome := storage.SprintOutcome{SprintID: sprint.ID, SprintathonID: parentID}
	var notices []string
	standings := make([]domain.Standing, 0, len(members))
	for _, member := range members {
		submissions, err := e.store.ListSprintSubmissionsForMember(ctx, sprint.ID, member.ID)
		if err != nil {
			return wrapStore("list member submissions", err)
		}
		eval := domain.EvaluateCheckpoints(submissions)
		if notice := e.render.Anomaly(member.ExternalUserID, eval); notice != "" {
			notices = append(notices, notice)
		}
		if !eval.Outcome.Ranked() {
			continue
		}
		outcome.Deltas = append(outcome.Deltas, domain.Submission{
			MemberID:  member.ID,
			WordCount: eval.Delta,
			Type:      domain.SubmissionDelta,
			CreatedAt: now,
		})
		standings = append(standings, domain.Standing{
			MemberID:       member.ID,
			ExternalUserID: member.ExternalUserID,
			WordCount:      eval.Delta,
			WordsPerMinute: domain.WordsPerMinute(eval.Delta, sprint.DurationMinutes),
		})
	}

	ranked := domain.RankStandings(standings)
	var winner *domain.Standing
	if parentID > 0 && len(ranked) > 0 && ranked[0].WordCount > 0 {
		winner = &ranked[0]
		outcome.Bonus = &domain.Submission{
			MemberID:  winner.MemberID,
			WordCount: winner.WordCount,
			Type:      domain.SubmissionBonus,
			CreatedAt: now,
		}
	}

	changed, err := e.store.FinalizeSprint(ctx, outcome)
	if err != nil {
		return wrapStore("finalize sprint", err)
	}
	span.SetAttributes(
		attribute.Int("sprint.ranked", len(ranked)),
		attribute.Bool("sprint.stopped", !changed),
	)
	if !changed {
		return nil
	}

	for _, notice := range notices {
		e.send(ctx, sprint.ChannelID, notice)
	}
	e.send(ctx, sprint.ChannelID, e.render.SprintResults(ranked))
	if winner != nil {
		e.send(ctx, sprint.ChannelID, e.render.Bonus(winner.ExternalUserID, winner.WordCount))
	}
	return nil
}

// activeParent returns the sprint's parent sprintathon id when that
// sprintathon is still running, else zero.
func (e *Engine) activeParent(ctx context.Context, sprint domain.Sprint) (int64, error) {
	if sprint.SprintathonID <= 0 {
		return 0, nil
	}
	parent, err := e.store.GetSprintathon(ctx, sprint.SprintathonID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, wrapStore("lookup parent sprintathon", err)
	}
	if !parent.Active {
		return 0, nil
	}
	return parent.ID, nil
}

// finalizeSprintathon closes the sprintathon and posts its final standings,
// unless it was stopped first.
func (e *Engine) finalizeSprintathon(ctx context.Context, sprintathon domain.Sprintathon) (err error) {
	ctx, span := e.tracer.Start(ctx, "sprintathon.finalize", trace.WithAttributes(
		attribute.Int64("sprintathon.id", sprintathon.ID),
		attribute.String("sprintathon.channel_id", sprintathon.ChannelID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	standings, err := e.sprintathonStandings(ctx, sprintathon)
	if err != nil {
		return err
	}
	changed, err := e.store.DeactivateSprintathon(ctx, sprintathon.ID)
	if err != nil {
		return wrapStore("deactivate sprintathon", err)
	}
	if changed {
		e.send(ctx, sprintathon.ChannelID, e.render.SprintathonResults(standings))
	}
	return nil
}

// sprintathonStandings totals DELTA and BONUS rows per member. WPM counts
// DELTA words only, over the minutes elapsed so far.
func (e *Engine) sprintathonStandings(ctx context.Context, sprintathon domain.Sprintathon) ([]domain.Standing, error) {
	members, err := e.store.ListSprintathonMembers(ctx, sprintathon.ID)
	if err != nil {
		return nil, wrapStore("list sprintathon members", err)
	}
	minutes := domain.ElapsedMinutes(sprintathon.Start, e.clock.Now(), sprintathon.Duration())

	standings := make([]domain.Standing, 0, len(members))
	for _, member := range members {
		total, err := e.store.SumSprintathonWordCount(ctx, sprintathon.ID, member.ID, domain.SubmissionDelta, domain.SubmissionBonus)
		if err != nil {
			return nil, wrapStore("sum sprintathon words", err)
		}
		written, err := e.store.SumSprintathonWordCount(ctx, sprintathon.ID, member.ID, domain.SubmissionDelta)
		if err != nil {
			return nil, wrapStore("sum sprintathon deltas", err)
		}
		standings = append(standings, domain.Standing{
			MemberID:       member.ID,
			ExternalUserID: member.ExternalUserID,
			WordCount:      total,
			WordsPerMinute: domain.WordsPerMinute(written, minutes),
		})
	}
	return domain.RankStandings(standings), nil
}
