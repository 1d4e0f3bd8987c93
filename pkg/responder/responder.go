// Package responder defines the answer-producing collaborator the
// exchange core calls out to. The core treats it as an opaque function:
// it receives the query plus the context summary as it stood before the
// exchange, and must not be trusted to succeed.
package responder

import (
	"context"

	"contextdb/pkg/models"
)

// Responder produces an answer for a query given the stored context
// summary. Implementations may fail; by the time they are invoked, the
// query is already durably recorded.
type Responder interface {
	Answer(ctx context.Context, key models.IdentityKey, query, contextSummary string) (string, error)
}
