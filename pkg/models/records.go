package models

// HistoryMeta is the per-identity metadata document of the history ledger.
// Message entries live under separate ordered keys, not inside this doc.
type HistoryMeta struct {
	TenantID    string `json:"tenantId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// ContextMeta is the per-identity metadata document of the context store.
// Summary and LastUpdated are mutated in place on regeneration; the
// context message log grows separately.
type ContextMeta struct {
	TenantID    string `json:"tenantId"`
	UserID      string `json:"userId"`
	Summary     string `json:"summary"`
	LastUpdated string `json:"lastUpdated"`
}

// HistorySnapshot is a point-in-time read of one identity's history.
// Absent records read as an empty snapshot with a synthesized display
// name; absence is not an error.
type HistorySnapshot struct {
	TenantID    string    `json:"tenantId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Messages    []Message `json:"messages"`
}

// ContextSnapshot is a point-in-time read of one identity's context record.
type ContextSnapshot struct {
	TenantID    string    `json:"tenantId"`
	UserID      string    `json:"userId"`
	Summary     string    `json:"summary"`
	LastUpdated string    `json:"lastUpdated"`
	Messages    []Message `json:"messages"`
}
