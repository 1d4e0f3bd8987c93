package utils

import (
	"time"

	"github.com/google/uuid"
)

// NewMessageID returns an opaque unique message identifier. IDs are
// generated at write time and never reused.
func NewMessageID() string {
	return uuid.NewString()
}

// Timestamp returns the current UTC time as an ISO-8601 string.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
