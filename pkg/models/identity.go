package models

import "strings"

// IdentityKey scopes every stored record to one user under one tenant.
// All reads and writes are partitioned by it; records for different keys
// are invisible to each other.
type IdentityKey struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

// Ident renders the key as the storage partition token "<tenant>/<user>".
// Tenant and user IDs are validated upstream to exclude '/' and ':' so the
// rendering is unambiguous and cannot collide across keys.
func (k IdentityKey) Ident() string {
	return k.TenantID + "/" + k.UserID
}

// ParseIdent is the inverse of Ident. ok is false when the token does not
// contain a separator.
func ParseIdent(s string) (IdentityKey, bool) {
	t, u, ok := strings.Cut(s, "/")
	if !ok || t == "" || u == "" {
		return IdentityKey{}, false
	}
	return IdentityKey{TenantID: t, UserID: u}, true
}
