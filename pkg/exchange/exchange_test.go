package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"contextdb/pkg/contexts"
	"contextdb/pkg/history"
	"contextdb/pkg/models"
	"contextdb/pkg/store"
	"contextdb/pkg/trigger"
)

// scriptedResponder answers from a queue and records the summary it was
// handed on each call.
type scriptedResponder struct {
	answers   []string
	summaries []string
	err       error
}

func (r *scriptedResponder) Answer(_ context.Context, _ models.IdentityKey, _ string, contextSummary string) (string, error) {
	r.summaries = append(r.summaries, contextSummary)
	if r.err != nil {
		return "", r.err
	}
	if len(r.answers) == 0 {
		return "ok", nil
	}
	a := r.answers[0]
	r.answers = r.answers[1:]
	return a, nil
}

func newTestService(t *testing.T, resp *scriptedResponder, batchSize int) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	hist := history.New(st)
	ctxStore := contexts.New(st, hist)
	trig := trigger.New(hist, ctxStore, batchSize)
	return New(hist, ctxStore, resp, trig)
}

func TestFiveExchangesTriggerOneRegeneration(t *testing.T) {
	resp := &scriptedResponder{answers: []string{"a1", "a2", "a3", "a4", "a5"}}
	svc := newTestService(t, resp, 5)
	key := models.IdentityKey{TenantID: "acme", UserID: "u1"}

	for i := 1; i <= 4; i++ {
		res, err := svc.SubmitExchange(context.Background(), key, fmt.Sprintf("q%d", i), "")
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("a%d", i), res.Answer)
		require.NotEmpty(t, res.Timestamp)
	}

	// counts 2,4,6,8: no regeneration yet
	ctxSnap, err := svc.GetContext(key)
	require.NoError(t, err)
	require.Empty(t, ctxSnap.Summary)

	res, err := svc.SubmitExchange(context.Background(), key, "q5", "")
	require.NoError(t, err)
	require.Equal(t, "a5", res.Answer)

	histSnap, err := svc.GetHistory(key)
	require.NoError(t, err)
	require.Len(t, histSnap.Messages, 10)

	ctxSnap, err = svc.GetContext(key)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ctxSnap.Summary, "User conversation summary:\n"))
	for i := 1; i <= 5; i++ {
		require.Contains(t, ctxSnap.Summary, fmt.Sprintf("User: q%d\n", i))
		require.Contains(t, ctxSnap.Summary, fmt.Sprintf("Assistant: a%d\n", i))
	}
	// context keeps its own copy of the conversation
	require.Len(t, ctxSnap.Messages, 10)
}

func TestResponderSeesPreExchangeSummary(t *testing.T) {
	resp := &scriptedResponder{}
	svc := newTestService(t, resp, 2)
	key := models.IdentityKey{TenantID: "acme", UserID: "u1"}

	_, err := svc.SubmitExchange(context.Background(), key, "q1", "")
	require.NoError(t, err)
	// count hit 2: summary regenerated after the first exchange
	_, err = svc.SubmitExchange(context.Background(), key, "q2", "")
	require.NoError(t, err)

	require.Len(t, resp.summaries, 2)
	require.Empty(t, resp.summaries[0])
	require.Contains(t, resp.summaries[1], "User: q1")
}

func TestResponderFailureDegradesToFallback(t *testing.T) {
	resp := &scriptedResponder{err: errors.New("upstream timeout")}
	svc := newTestService(t, resp, 5)
	key := models.IdentityKey{TenantID: "acme", UserID: "u1"}

	res, err := svc.SubmitExchange(context.Background(), key, "hello?", "")
	require.NoError(t, err)
	require.Equal(t, FallbackAnswer, res.Answer)

	// the query was durably recorded before the responder ran
	histSnap, err := svc.GetHistory(key)
	require.NoError(t, err)
	require.Len(t, histSnap.Messages, 2)
	require.Equal(t, "hello?", histSnap.Messages[0].Content)
	require.True(t, histSnap.Messages[0].IsQuery)
	require.Equal(t, FallbackAnswer, histSnap.Messages[1].Content)
}

func TestForceRegenerateContext(t *testing.T) {
	resp := &scriptedResponder{answers: []string{"a1"}}
	svc := newTestService(t, resp, 100)
	key := models.IdentityKey{TenantID: "acme", UserID: "u1"}

	_, err := svc.SubmitExchange(context.Background(), key, "q1", "")
	require.NoError(t, err)

	ctxSnap, err := svc.GetContext(key)
	require.NoError(t, err)
	require.Empty(t, ctxSnap.Summary)

	summary, err := svc.ForceRegenerateContext(key)
	require.NoError(t, err)
	require.Contains(t, summary, "User: q1")
	require.Contains(t, summary, "Assistant: a1")
}

func TestIdentitiesAreIsolated(t *testing.T) {
	resp := &scriptedResponder{}
	svc := newTestService(t, resp, 5)

	k1 := models.IdentityKey{TenantID: "acme", UserID: "u1"}
	k2 := models.IdentityKey{TenantID: "acme", UserID: "u2"}
	k3 := models.IdentityKey{TenantID: "globex", UserID: "u1"}

	_, err := svc.SubmitExchange(context.Background(), k1, "only for u1", "")
	require.NoError(t, err)

	for _, other := range []models.IdentityKey{k2, k3} {
		snap, err := svc.GetHistory(other)
		require.NoError(t, err)
		require.Empty(t, snap.Messages)
	}
}
