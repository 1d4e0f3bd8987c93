// Package contexts owns the derived context record per identity key: a
// periodically-regenerated summary string plus a secondary append-only
// message log. The summary is only ever recomputed from the history
// ledger; the secondary log exists so a future regeneration strategy can
// work from the responder's own view of the conversation instead.
package contexts

import (
	"encoding/json"
	"fmt"
	"strings"

	"contextdb/pkg/logger"
	"contextdb/pkg/models"
	"contextdb/pkg/store"
	"contextdb/pkg/utils"
)

// summaryHeader matches the transcript rendering the downstream responder
// was tuned against. Changing it changes every regenerated summary.
const summaryHeader = "User conversation summary:\n"

// HistorySource provides the transcript a summary is derived from.
type HistorySource interface {
	Fetch(key models.IdentityKey) (models.HistorySnapshot, error)
}

// Store reads and writes context records through an injected store handle.
type Store struct {
	st      *store.Store
	history HistorySource
}

func New(st *store.Store, history HistorySource) *Store {
	return &Store{st: st, history: history}
}

// RecordQuery appends the query to the context record's own message log,
// lazily creating the record (with an empty summary) on first use.
func (c *Store) RecordQuery(key models.IdentityKey, content string) (models.Message, error) {
	return c.append(key, content, true)
}

// RecordAnswer appends a responder answer to the context record's log.
func (c *Store) RecordAnswer(key models.IdentityKey, content string) (models.Message, error) {
	return c.append(key, content, false)
}

func (c *Store) append(key models.IdentityKey, content string, isQuery bool) (models.Message, error) {
	ident := key.Ident()
	unlock := c.st.Lock(ident)
	defer unlock()

	if _, err := c.ensureMeta(key); err != nil {
		return models.Message{}, err
	}
	msg := models.Message{
		ID:        utils.NewMessageID(),
		Content:   content,
		IsQuery:   isQuery,
		Timestamp: utils.Timestamp(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal message: %w", err)
	}
	if err := c.st.AppendMessage(store.NamespaceContext, ident, data); err != nil {
		return models.Message{}, err
	}
	logger.Debug("context_message_recorded", "ident", ident, "id", msg.ID, "is_query", isQuery)
	return msg, nil
}

// ensureMeta upserts the metadata document and returns its current state.
// Caller holds the identity lock.
func (c *Store) ensureMeta(key models.IdentityKey) (models.ContextMeta, error) {
	raw, ok, err := c.st.GetMeta(store.NamespaceContext, key.Ident())
	if err != nil {
		return models.ContextMeta{}, err
	}
	if ok {
		var meta models.ContextMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return models.ContextMeta{}, fmt.Errorf("invalid context meta: %w", err)
		}
		return meta, nil
	}
	meta := models.ContextMeta{TenantID: key.TenantID, UserID: key.UserID, Summary: "", LastUpdated: utils.Timestamp()}
	data, err := json.Marshal(meta)
	if err != nil {
		return models.ContextMeta{}, fmt.Errorf("marshal context meta: %w", err)
	}
	if err := c.st.SetMeta(store.NamespaceContext, key.Ident(), data); err != nil {
		return models.ContextMeta{}, err
	}
	logger.Info("context_record_created", "ident", key.Ident())
	return meta, nil
}

// Fetch returns a snapshot of the context record, or a default empty
// snapshot when the record does not exist. Absence is not an error.
func (c *Store) Fetch(key models.IdentityKey) (models.ContextSnapshot, error) {
	snap := models.ContextSnapshot{
		TenantID: key.TenantID,
		UserID:   key.UserID,
		Messages: []models.Message{},
	}
	raw, ok, err := c.st.GetMeta(store.NamespaceContext, key.Ident())
	if err != nil {
		return models.ContextSnapshot{}, err
	}
	if ok {
		var meta models.ContextMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return models.ContextSnapshot{}, fmt.Errorf("invalid context meta: %w", err)
		}
		snap.Summary = meta.Summary
		snap.LastUpdated = meta.LastUpdated
	}
	vals, err := c.st.ListMessages(store.NamespaceContext, key.Ident())
	if err != nil {
		return models.ContextSnapshot{}, err
	}
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return models.ContextSnapshot{}, fmt.Errorf("invalid stored message: %w", err)
		}
		snap.Messages = append(snap.Messages, m)
	}
	return snap, nil
}

// Regenerate recomputes the summary from the current history ledger
// transcript and writes it, with a fresh lastUpdated, into the context
// record (upserting if absent). When the transcript is empty it is a
// no-op that returns the existing summary; it never overwrites a
// non-empty summary with nothing.
func (c *Store) Regenerate(key models.IdentityKey) (string, error) {
	hist, err := c.history.Fetch(key)
	if err != nil {
		return "", err
	}

	ident := key.Ident()
	unlock := c.st.Lock(ident)
	defer unlock()

	meta, err := c.ensureMeta(key)
	if err != nil {
		return "", err
	}
	if len(hist.Messages) == 0 {
		logger.Debug("context_regenerate_noop", "ident", ident)
		return meta.Summary, nil
	}

	meta.Summary = RenderSummary(hist.Messages)
	meta.LastUpdated = utils.Timestamp()
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal context meta: %w", err)
	}
	if err := c.st.SetMeta(store.NamespaceContext, ident, data); err != nil {
		return "", err
	}
	logger.Info("context_regenerated", "ident", ident, "messages", len(hist.Messages))
	return meta.Summary, nil
}

// RenderSummary concatenates messages in chronological order with a role
// prefix. It is a pure function of the transcript, so regenerating twice
// with no intervening writes yields the same string.
func RenderSummary(msgs []models.Message) string {
	var b strings.Builder
	b.WriteString(summaryHeader)
	for _, m := range msgs {
		if m.IsQuery {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
