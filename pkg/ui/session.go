package ui

import "github.com/google/uuid"

// NewSessionID returns a fresh session identifier. The server treats the
// value as opaque; a random UUID keeps sessions from colliding.
func NewSessionID() string {
	return uuid.NewString()
}
