package validation

import (
	"fmt"
	"strings"

	"contextdb/pkg/models"
)

// ValidateIdentity rejects identity keys that are empty or would be
// ambiguous inside storage key paths. '/' and ':' are reserved by the key
// scheme.
func ValidateIdentity(key models.IdentityKey) error {
	if err := validateID("tenantId", key.TenantID); err != nil {
		return err
	}
	return validateID("userId", key.UserID)
}

func validateID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if strings.ContainsAny(v, "/:") {
		return fmt.Errorf("%s must not contain '/' or ':'", field)
	}
	return nil
}
