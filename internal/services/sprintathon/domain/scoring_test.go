package domain

import (
	"testing"
	"time"
)

func sub(typ SubmissionType, count int) Submission {
	return Submission{Type: typ, WordCount: count}
}

func TestEvaluateCheckpoints(t *testing.T) {
	tests := []struct {
		name    string
		subs    []Submission
		outcome Outcome
		delta   int
	}{
		{name: "scored", subs: []Submission{sub(SubmissionStart, 100), sub(SubmissionFinish, 150)}, outcome: OutcomeScored, delta: 50},
		{name: "finish below start", subs: []Submission{sub(SubmissionStart, 150), sub(SubmissionFinish, 100)}, outcome: OutcomeFinishBelowStart},
		{name: "no progress", subs: []Submission{sub(SubmissionStart, 100), sub(SubmissionFinish, 100)}, outcome: OutcomeNoProgress},
		{name: "missing finish", subs: []Submission{sub(SubmissionStart, 100)}, outcome: OutcomeMissingCheckpoint},
		{name: "missing start", subs: []Submission{sub(SubmissionFinish, 100)}, outcome: OutcomeMissingCheckpoint},
		{name: "empty", outcome: OutcomeMissingCheckpoint},
		{
			name:    "first finish wins",
			subs:    []Submission{sub(SubmissionStart, 10), sub(SubmissionFinish, 30), sub(SubmissionFinish, 90)},
			outcome: OutcomeScored,
			delta:   20,
		},
		{
			name:    "derived rows ignored",
			subs:    []Submission{sub(SubmissionDelta, 500), sub(SubmissionStart, 10), sub(SubmissionBonus, 7), sub(SubmissionFinish, 15)},
			outcome: OutcomeScored,
			delta:   5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateCheckpoints(tt.subs)
			if got.Outcome != tt.outcome {
				t.Fatalf("expected outcome %d, got %d", tt.outcome, got.Outcome)
			}
			if got.Delta != tt.delta {
				t.Fatalf("expected delta %d, got %d", tt.delta, got.Delta)
			}
		})
	}
}

func TestOutcomeRanked(t *testing.T) {
	if !OutcomeScored.Ranked() || !OutcomeNoProgress.Ranked() {
		t.Fatal("expected scored and no-progress outcomes to be ranked")
	}
	if OutcomeMissingCheckpoint.Ranked() || OutcomeFinishBelowStart.Ranked() {
		t.Fatal("expected anomalies to be excluded")
	}
}

func TestRankStandingsStableDescending(t *testing.T) {
	in := []Standing{
		{ExternalUserID: "a", WordCount: 10},
		{ExternalUserID: "b", WordCount: 40},
		{ExternalUserID: "c", WordCount: 10},
		{ExternalUserID: "d", WordCount: 40},
		{ExternalUserID: "e", WordCount: 0},
	}
	got := RankStandings(in)
	want := []string{"b", "d", "a", "c", "e"}
	for i, id := range want {
		if got[i].ExternalUserID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ExternalUserID)
		}
	}
	if in[0].ExternalUserID != "a" {
		t.Fatal("expected input slice untouched")
	}
}

func TestWordsPerMinute(t *testing.T) {
	tests := []struct {
		words, minutes, want int
	}{
		{50, 15, 4},
		{45, 15, 3},
		{0, 15, 0},
		{7, 0, 7},
		{1, 60, 1},
	}
	for _, tt := range tests {
		if got := WordsPerMinute(tt.words, tt.minutes); got != tt.want {
			t.Fatalf("WordsPerMinute(%d, %d) = %d, want %d", tt.words, tt.minutes, got, tt.want)
		}
	}
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	limit := 2 * time.Hour
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "just started", now: start.Add(10 * time.Second), want: 1},
		{name: "midway", now: start.Add(45*time.Minute + 30*time.Second), want: 45},
		{name: "past end", now: start.Add(5 * time.Hour), want: 120},
		{name: "clock behind", now: start.Add(-time.Minute), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedMinutes(start, tt.now, limit); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd",
		101: "101st", 111: "111th",
	}
	for rank, want := range tests {
		if got := Ordinal(rank); got != want {
			t.Fatalf("Ordinal(%d) = %q, want %q", rank, got, want)
		}
	}
}
