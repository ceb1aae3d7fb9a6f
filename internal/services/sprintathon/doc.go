// Package sprintathon implements timed group writing sessions for chat channels.
//
// Sprints are short sessions where members check in a starting and a finishing
// word count; sprintathons are long events that aggregate the sprints run
// under them and award a first-place bonus. The database is the source of
// truth for which sessions are running, so a restarted process resumes the
// same timers from persisted start timestamps.
package sprintathon
