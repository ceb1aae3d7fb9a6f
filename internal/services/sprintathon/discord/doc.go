// Package discord connects the sprint engine to Discord: it parses prefixed
// or mention-addressed commands from guild messages and delivers replies.
package discord
