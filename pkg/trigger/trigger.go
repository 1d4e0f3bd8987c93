// Package trigger decides, after each completed exchange, whether the
// context summary should be regenerated from history. The policy is
// stateless and purely count-driven, so it is safe to recompute the
// decision from scratch on every invocation.
package trigger

import (
	"contextdb/pkg/logger"
	"contextdb/pkg/models"
	"contextdb/pkg/telemetry"
)

// DefaultBatchSize is the message-count interval at which regeneration is
// attempted when no batch size is configured.
const DefaultBatchSize = 5

// Counter reports the current history transcript length for a key.
type Counter interface {
	MessageCount(key models.IdentityKey) (int, error)
}

// Regenerator recomputes a context summary from history.
type Regenerator interface {
	Regenerate(key models.IdentityKey) (string, error)
}

type Trigger struct {
	counter Counter
	regen   Regenerator
	batch   int
}

func New(counter Counter, regen Regenerator, batchSize int) *Trigger {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Trigger{counter: counter, regen: regen, batch: batchSize}
}

// BatchSize returns the configured message-count interval.
func (t *Trigger) BatchSize() int {
	return t.batch
}

// AfterMessageRecorded is invoked once per completed query+answer
// exchange. It regenerates the context iff the history message count is a
// positive multiple of the batch size. Regeneration is fire-and-forget:
// failures are logged and counted, never surfaced to the exchange.
func (t *Trigger) AfterMessageRecorded(key models.IdentityKey) {
	n, err := t.counter.MessageCount(key)
	if err != nil {
		logger.Error("trigger_count_failed", "ident", key.Ident(), "error", err)
		return
	}
	if n == 0 || n%t.batch != 0 {
		return
	}
	if _, err := t.regen.Regenerate(key); err != nil {
		logger.Error("trigger_regenerate_failed", "ident", key.Ident(), "count", n, "error", err)
		return
	}
	telemetry.Regenerations.WithLabelValues("trigger").Inc()
	logger.Info("context_regeneration_triggered", "ident", key.Ident(), "count", n)
}
