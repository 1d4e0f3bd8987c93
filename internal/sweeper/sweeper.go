// Package sweeper runs the scheduled counterpart of the count-based
// summarization trigger: a cron-driven walk over every identity with
// recorded history, regenerating each context summary from the full
// transcript.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"contextdb/pkg/contexts"
	"contextdb/pkg/history"
	"contextdb/pkg/logger"
	"contextdb/pkg/telemetry"
)

// Start launches the sweep scheduler for the given cron expression and
// returns a cancel func. An empty expression disables the sweep.
func Start(ctx context.Context, cronExpr string, hist *history.Ledger, ctxStore *contexts.Store) (context.CancelFunc, error) {
	if cronExpr == "" {
		logger.Info("sweep_disabled")
		return func() {}, nil
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweep_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}

	logger.Info("sweep_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, hist, ctxStore)
	return cancel, nil
}

// runScheduler computes the next tick for the configured cron expression,
// sleeps until then, and runs one sweep per tick.
func runScheduler(ctx context.Context, cronExpr string, hist *history.Ledger, ctxStore *contexts.Store) {
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_next_tick_failed", "cron", cronExpr, "error", err)
			return
		}
		select {
		case <-ctx.Done():
			logger.Info("sweep_scheduler_stopping")
			return
		case <-time.After(next.Sub(now)):
		}
		runOnce(hist, ctxStore)
	}
}

func runOnce(hist *history.Ledger, ctxStore *contexts.Store) {
	keys, err := hist.Identities()
	if err != nil {
		logger.Error("sweep_list_identities_failed", "error", err)
		return
	}
	swept := 0
	for _, key := range keys {
		if _, err := ctxStore.Regenerate(key); err != nil {
			logger.Error("sweep_regenerate_failed", "ident", key.Ident(), "error", err)
			continue
		}
		telemetry.Regenerations.WithLabelValues("sweep").Inc()
		swept++
	}
	logger.Info("sweep_completed", "identities", len(keys), "regenerated", swept)
}
