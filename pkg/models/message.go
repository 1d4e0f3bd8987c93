package models

// Message is one recorded conversation turn. The timestamp is assigned by
// the server at write time (RFC 3339) and is never client-supplied.
type Message struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	IsQuery bool   `json:"isQuery"`
	// Timestamp is an ISO-8601 string, e.g. 2026-08-28T10:04:05.123Z
	Timestamp string `json:"timestamp"`
}
