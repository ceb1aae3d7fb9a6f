// Package domain holds sprint entities, check-in parsing, and the scoring
// rules that turn raw START/FINISH checkpoints into ranked standings.
package domain
