package domain

import (
	"strconv"
	"strings"
)

// SameKeyword asks to reuse the member's most recent check-in count.
const SameKeyword = "same"

// Default durations for commands invoked without an argument.
const (
	DefaultSprintMinutes    = 15
	DefaultSprintathonHours = 24
)

// CheckInValue is a parsed check-in argument.
type CheckInValue struct {
	WordCount int
	// Same is set when the member asked to reuse their last count.
	Same bool
}

// ParseCheckIn parses a word count or the "same" keyword.
func ParseCheckIn(raw string) (CheckInValue, error) {
	value := strings.TrimSpace(raw)
	if strings.EqualFold(value, SameKeyword) {
		return CheckInValue{Same: true}, nil
	}
	if value == "" || strings.TrimLeft(value, "0123456789") != "" {
		return CheckInValue{}, ErrInvalidWordCount
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return CheckInValue{}, ErrInvalidWordCount
	}
	return CheckInValue{WordCount: count}, nil
}

// CheckInType types a check-in: START when the member has nothing recorded
// for the sprint yet, FINISH otherwise.
func CheckInType(priorSubmissions int) SubmissionType {
	if priorSubmissions > 0 {
		return SubmissionFinish
	}
	return SubmissionStart
}

// ParseDuration parses an optional positive whole-number duration argument,
// returning fallback when raw is empty.
func ParseDuration(raw string, fallback int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, ErrInvalidDuration
	}
	return n, nil
}
