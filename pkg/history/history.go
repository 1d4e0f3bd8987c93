// Package history owns the append-only transcript of query/answer
// messages per identity key. Records are created lazily on first write;
// appended messages are never mutated or removed.
package history

import (
	"encoding/json"
	"fmt"

	"contextdb/pkg/logger"
	"contextdb/pkg/models"
	"contextdb/pkg/store"
	"contextdb/pkg/utils"
)

// Ledger reads and appends history records through an injected store
// handle.
type Ledger struct {
	st *store.Store
}

func New(st *store.Store) *Ledger {
	return &Ledger{st: st}
}

// DefaultDisplayName synthesizes the label used when a record is created
// without an explicit display name.
func DefaultDisplayName(userID string) string {
	return "User " + userID
}

// RecordQuery ensures a history record exists for key (creating it with
// displayName, or a generated default, on first use) and appends the
// query as a single logical operation. It returns the appended message.
func (l *Ledger) RecordQuery(key models.IdentityKey, content, displayName string) (models.Message, error) {
	return l.append(key, content, true, displayName)
}

// RecordAnswer appends a responder answer to an existing or lazily-created
// history record for key.
func (l *Ledger) RecordAnswer(key models.IdentityKey, content string) (models.Message, error) {
	return l.append(key, content, false, "")
}

func (l *Ledger) append(key models.IdentityKey, content string, isQuery bool, displayName string) (models.Message, error) {
	ident := key.Ident()
	unlock := l.st.Lock(ident)
	defer unlock()

	if err := l.ensureMeta(key, displayName); err != nil {
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
	if err := l.st.AppendMessage(store.NamespaceHistory, ident, data); err != nil {
		return models.Message{}, err
	}
	logger.Debug("history_message_recorded", "ident", ident, "id", msg.ID, "is_query", isQuery)
	return msg, nil
}

// ensureMeta upserts the metadata document. Caller holds the identity lock.
func (l *Ledger) ensureMeta(key models.IdentityKey, displayName string) error {
	_, ok, err := l.st.GetMeta(store.NamespaceHistory, key.Ident())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if displayName == "" {
		displayName = DefaultDisplayName(key.UserID)
	}
	meta := models.HistoryMeta{TenantID: key.TenantID, UserID: key.UserID, DisplayName: displayName}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal history meta: %w", err)
	}
	if err := l.st.SetMeta(store.NamespaceHistory, key.Ident(), data); err != nil {
		return err
	}
	logger.Info("history_record_created", "ident", key.Ident(), "display_name", displayName)
	return nil
}

// MessageCount returns the current transcript length for key, 0 when no
// record exists.
func (l *Ledger) MessageCount(key models.IdentityKey) (int, error) {
	return l.st.CountMessages(store.NamespaceHistory, key.Ident())
}

// Fetch returns a snapshot of the history record. A never-written key
// resolves to an empty snapshot with a synthesized display name; absence
// of history is not an error.
func (l *Ledger) Fetch(key models.IdentityKey) (models.HistorySnapshot, error) {
	snap := models.HistorySnapshot{
		TenantID:    key.TenantID,
		UserID:      key.UserID,
		DisplayName: DefaultDisplayName(key.UserID),
		Messages:    []models.Message{},
	}
	raw, ok, err := l.st.GetMeta(store.NamespaceHistory, key.Ident())
	if err != nil {
		return models.HistorySnapshot{}, err
	}
	if ok {
		var meta models.HistoryMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return models.HistorySnapshot{}, fmt.Errorf("invalid history meta: %w", err)
		}
		snap.DisplayName = meta.DisplayName
	}
	vals, err := l.st.ListMessages(store.NamespaceHistory, key.Ident())
	if err != nil {
		return models.HistorySnapshot{}, err
	}
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return models.HistorySnapshot{}, fmt.Errorf("invalid stored message: %w", err)
		}
		snap.Messages = append(snap.Messages, m)
	}
	return snap, nil
}

// Identities lists every identity key with a history record. Used by the
// scheduled regeneration sweep.
func (l *Ledger) Identities() ([]models.IdentityKey, error) {
	idents, err := l.st.ListIdents(store.NamespaceHistory)
	if err != nil {
		return nil, err
	}
	out := make([]models.IdentityKey, 0, len(idents))
	for _, s := range idents {
		if k, ok := models.ParseIdent(s); ok {
			out = append(out, k)
		}
	}
	return out, nil
}
