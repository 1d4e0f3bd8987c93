package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	st := openTestStore(t)

	for i := 0; i < 20; i++ {
		require.NoError(t, st.AppendMessage(NamespaceHistory, "acme/u1", []byte(fmt.Sprintf("m%02d", i))))
	}
	vals, err := st.ListMessages(NamespaceHistory, "acme/u1")
	require.NoError(t, err)
	require.Len(t, vals, 20)
	for i, v := range vals {
		require.Equal(t, fmt.Sprintf("m%02d", i), string(v))
	}

	n, err := st.CountMessages(NamespaceHistory, "acme/u1")
	require.NoError(t, err)
	require.Equal(t, 20, n)
}

func TestNamespacesAndIdentsAreIsolated(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.AppendMessage(NamespaceHistory, "acme/u1", []byte("h")))
	require.NoError(t, st.AppendMessage(NamespaceContext, "acme/u1", []byte("c")))
	require.NoError(t, st.AppendMessage(NamespaceHistory, "acme/u2", []byte("other")))

	vals, err := st.ListMessages(NamespaceHistory, "acme/u1")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	require.Equal(t, "h", string(vals[0]))

	vals, err = st.ListMessages(NamespaceContext, "acme/u1")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	require.Equal(t, "c", string(vals[0]))

	n, err := st.CountMessages(NamespaceHistory, "globex/u1")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestMetaAbsenceIsNotAnError(t *testing.T) {
	st := openTestStore(t)

	_, ok, err := st.GetMeta(NamespaceHistory, "acme/u1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SetMeta(NamespaceHistory, "acme/u1", []byte(`{"x":1}`)))
	v, ok, err := st.GetMeta(NamespaceHistory, "acme/u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"x":1}`, string(v))
}

func TestListIdentsScansMetaKeysOnly(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SetMeta(NamespaceHistory, "acme/u1", []byte("{}")))
	require.NoError(t, st.SetMeta(NamespaceHistory, "globex/u2", []byte("{}")))
	// message keys must not show up as identities
	require.NoError(t, st.AppendMessage(NamespaceHistory, "acme/u1", []byte("m")))
	require.NoError(t, st.SetMeta(NamespaceContext, "initech/u3", []byte("{}")))

	idents, err := st.ListIdents(NamespaceHistory)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"acme/u1", "globex/u2"}, idents)
}

func TestClosedStoreSurfacesUnavailable(t *testing.T) {
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, _, err = st.GetMeta(NamespaceHistory, "acme/u1")
	require.ErrorIs(t, err, ErrUnavailable)
	err = st.AppendMessage(NamespaceHistory, "acme/u1", []byte("m"))
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = st.ListMessages(NamespaceHistory, "acme/u1")
	require.ErrorIs(t, err, ErrUnavailable)
}
