// Package timeouts defines shared timeout constants used across the bot.
package timeouts

import "time"

// HealthProbe caps how long the -healthcheck probe waits for SERVING.
const HealthProbe = 3 * time.Second

// Command caps the handling of one chat command, store calls and replies
// included.
const Command = 30 * time.Second

// MessageSend caps a single chat message delivery.
const MessageSend = 10 * time.Second

// Shutdown limits how long the process waits for session tasks and the
// health server during graceful shutdown.
const Shutdown = 5 * time.Second
