// Package exchange orchestrates one query/answer exchange across the
// history ledger, context store, responder and summarization trigger.
// It is the boundary where responder failures are degraded to a fallback
// answer; storage failures always propagate unchanged.
package exchange

import (
	"context"
	"errors"

	"contextdb/pkg/contexts"
	"contextdb/pkg/history"
	"contextdb/pkg/logger"
	"contextdb/pkg/models"
	"contextdb/pkg/responder"
	"contextdb/pkg/store"
	"contextdb/pkg/telemetry"
	"contextdb/pkg/trigger"
)

// FallbackAnswer is returned when the responder fails after the query was
// already durably recorded.
const FallbackAnswer = "I'm sorry, but I encountered an error while processing your request. Please try again."

// Result is what an exchange hands back to the transport layer.
type Result struct {
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

type Service struct {
	history  *history.Ledger
	contexts *contexts.Store
	resp     responder.Responder
	trig     *trigger.Trigger
}

func New(hist *history.Ledger, ctxStore *contexts.Store, resp responder.Responder, trig *trigger.Trigger) *Service {
	return &Service{history: hist, contexts: ctxStore, resp: resp, trig: trig}
}

// SubmitExchange records the query, produces an answer and records it,
// then lets the trigger decide whether to regenerate the context summary.
// The responder sees the summary as it stood before this exchange's
// writes; its failure never loses the recorded query and never crashes
// the process.
func (s *Service) SubmitExchange(ctx context.Context, key models.IdentityKey, query, displayName string) (Result, error) {
	if _, err := s.history.RecordQuery(key, query, displayName); err != nil {
		return Result{}, s.storageErr(err)
	}

	snap, err := s.contexts.Fetch(key)
	if err != nil {
		return Result{}, s.storageErr(err)
	}
	if _, err := s.contexts.RecordQuery(key, query); err != nil {
		return Result{}, s.storageErr(err)
	}

	answer, rerr := s.resp.Answer(ctx, key, query, snap.Summary)
	if rerr != nil {
		telemetry.ResponderFailures.Inc()
		logger.Error("responder_failed", "ident", key.Ident(), "error", rerr)
		answer = FallbackAnswer
	}

	if _, err := s.contexts.RecordAnswer(key, answer); err != nil {
		return Result{}, s.storageErr(err)
	}
	msg, err := s.history.RecordAnswer(key, answer)
	if err != nil {
		return Result{}, s.storageErr(err)
	}

	// once per completed exchange, after the final history append
	s.trig.AfterMessageRecorded(key)

	telemetry.Exchanges.Inc()
	return Result{Answer: answer, Timestamp: msg.Timestamp}, nil
}

// GetHistory returns the history snapshot for key; absence resolves to an
// empty snapshot.
func (s *Service) GetHistory(key models.IdentityKey) (models.HistorySnapshot, error) {
	snap, err := s.history.Fetch(key)
	if err != nil {
		return models.HistorySnapshot{}, s.storageErr(err)
	}
	return snap, nil
}

// GetContext returns the context snapshot for key; absence resolves to an
// empty snapshot.
func (s *Service) GetContext(key models.IdentityKey) (models.ContextSnapshot, error) {
	snap, err := s.contexts.Fetch(key)
	if err != nil {
		return models.ContextSnapshot{}, s.storageErr(err)
	}
	return snap, nil
}

// ForceRegenerateContext regenerates the summary on demand, independent of
// the count trigger.
func (s *Service) ForceRegenerateContext(key models.IdentityKey) (string, error) {
	summary, err := s.contexts.Regenerate(key)
	if err != nil {
		return "", s.storageErr(err)
	}
	telemetry.Regenerations.WithLabelValues("manual").Inc()
	return summary, nil
}

func (s *Service) storageErr(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		telemetry.StorageErrors.Inc()
	}
	return err
}
