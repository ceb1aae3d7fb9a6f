package domain

import (
	"sort"
	"strconv"
	"time"
)

// Outcome classifies a member's checkpoints at sprint close.
type Outcome int

const (
	// OutcomeScored means finish exceeded start.
	OutcomeScored Outcome = iota
	// OutcomeNoProgress means finish equaled start; the member scores zero.
	OutcomeNoProgress
	// OutcomeMissingCheckpoint means no START or no FINISH was recorded.
	OutcomeMissingCheckpoint
	// OutcomeFinishBelowStart means the reported finish is lower than start.
	OutcomeFinishBelowStart
)

// Ranked reports whether the member belongs on the sprint leaderboard.
func (o Outcome) Ranked() bool {
	return o == OutcomeScored || o == OutcomeNoProgress
}

// Evaluation is the scoring verdict for one member in one sprint.
type Evaluation struct {
	Outcome Outcome
	Start   int
	Finish  int
	Delta   int
}

// EvaluateCheckpoints scores one member's submissions for a sprint.
//
// Submissions are treated as an append-only log in the order given: the first
// START and the first FINISH win, later duplicates are ignored.
func EvaluateCheckpoints(submissions []Submission) Evaluation {
	var (
		start, finish       int
		hasStart, hasFinish bool
	)
	for _, sub := range submissions {
		switch sub.Type {
		case SubmissionStart:
			if !hasStart {
				start, hasStart = sub.WordCount, true
			}
		case SubmissionFinish:
			if !hasFinish {
				finish, hasFinish = sub.WordCount, true
			}
		}
	}
	eval := Evaluation{Start: start, Finish: finish}
	switch {
	case !hasStart || !hasFinish:
		eval.Outcome = OutcomeMissingCheckpoint
	case finish < start:
		eval.Outcome = OutcomeFinishBelowStart
	case finish == start:
		eval.Outcome = OutcomeNoProgress
	default:
		eval.Outcome = OutcomeScored
		eval.Delta = finish - start
	}
	return eval
}

// Standing is one leaderboard row.
type Standing struct {
	MemberID       int64
	ExternalUserID string
	WordCount      int
	WordsPerMinute int
}

// RankStandings returns a copy sorted by word count descending. Equal scores
// keep their input order.
func RankStandings(standings []Standing) []Standing {
	ranked := make([]Standing, len(standings))
	copy(ranked, standings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WordCount > ranked[j].WordCount
	})
	return ranked
}

// WordsPerMinute returns ceil(words/minutes); minutes below one count as one.
func WordsPerMinute(words, minutes int) int {
	if minutes < 1 {
		minutes = 1
	}
	if words <= 0 {
		return 0
	}
	return (words + minutes - 1) / minutes
}

// ElapsedMinutes returns whole minutes since start, bounded to [1, limit].
func ElapsedMinutes(start, now time.Time, limit time.Duration) int {
	elapsed := now.Sub(start)
	if elapsed > limit {
		elapsed = limit
	}
	minutes := int(elapsed / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Ordinal renders a 1-based rank as "1st", "2nd", "3rd", "11th", "22nd".
func Ordinal(rank int) string {
	suffix := "th"
	switch rank % 100 {
	case 11, 12, 13:
	default:
		switch rank % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(rank) + suffix
}
