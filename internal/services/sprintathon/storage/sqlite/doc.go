// Package sqlite implements sprint persistence on an embedded SQLite database.
//
// Timestamps are stored as UTC unix milliseconds. Active-session uniqueness
// per (server, channel) is checked inside the write transaction, which takes
// the database write lock up front.
package sqlite
