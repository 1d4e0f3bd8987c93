package responder

import (
	"context"
	"fmt"
	"strings"

	"contextdb/pkg/models"
)

// Keyword is the built-in stub backend: a fixed set of keyword-matched
// canned replies. It stands in for a real completion service and is the
// default when no backend is configured.
type Keyword struct{}

func NewKeyword() Keyword {
	return Keyword{}
}

func (Keyword) Answer(_ context.Context, _ models.IdentityKey, query, _ string) (string, error) {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "password"):
		return "You can reset your password by clicking on the 'Forgot Password' link on the login page.", nil
	case strings.Contains(q, "business hours"):
		return "Our business hours are 9 AM to 5 PM, Monday through Friday.", nil
	case strings.Contains(q, "account"):
		return "I can help with your account. Could you please provide your account number for verification?", nil
	default:
		return fmt.Sprintf("Thank you for your question about '%s'. Let me help you with that. Based on our previous conversations, I can provide you with the information you need.", query), nil
	}
}
