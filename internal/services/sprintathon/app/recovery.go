package app

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
)

// Recovered counts the sessions resumed by Recover.
type Recovered struct {
	Sprints      int
	Sprintathons int
}

// Recover resumes every session still marked active, typically left behind
// by a previous process. Remaining time is measured from each session's
// persisted start, so overdue sessions move straight to their next phase.
//
// Sprintathons are resumed first so their final-hour timers are scheduled
// before child sprints finalize against them.
func (e *Engine) Recover(ctx context.Context) (Recovered, error) {
	ctx, span := e.tracer.Start(ctx, "sessions.recover")
	defer span.End()

	var report Recovered
	sprintathons, err := e.store.ListActiveSprintathons(ctx)
	if err != nil {
		span.RecordError(err)
		return report, wrapStore("list active sprintathons", err)
	}
	for _, sprintathon := range sprintathons {
		log.Printf("sprintathon %d: resuming in channel %s", sprintathon.ID, sprintathon.ChannelID)
		e.send(ctx, sprintathon.ChannelID, e.render.SprintathonResuming())
		e.launchSprintathon(sprintathon)
		report.Sprintathons++
	}

	sprints, err := e.store.ListActiveSprints(ctx)
	if err != nil {
		span.RecordError(err)
		return report, wrapStore("list active sprints", err)
	}
	for _, sprint := range sprints {
		log.Printf("sprint %d: resuming in channel %s", sprint.ID, sprint.ChannelID)
		e.send(ctx, sprint.ChannelID, e.render.SprintResuming())
		e.launchSprint(sprint)
		report.Sprints++
	}

	span.SetAttributes(
		attribute.Int("recovered.sprints", report.Sprints),
		attribute.Int("recovered.sprintathons", report.Sprintathons),
	)
	return report, nil
}
