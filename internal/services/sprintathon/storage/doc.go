// Package storage defines persistence contracts for members, servers,
// sessions, and submissions.
package storage
