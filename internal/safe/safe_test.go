package safe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

func TestProtectAndPeek(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ref := StringRef{EntryUUID: kdbxtypes.MustNewUUID(), HistoryIndex: -1, Field: "Password"}
	ct, err := s.Protect(ref, []byte("s3cr3t"))
	require.NoError(t, err)
	require.NotEqual(t, []byte("s3cr3t"), ct)

	plain, err := s.Peek(ref, ct)
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", string(plain))
}

func TestUnlockRestoresAllInOrder(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	store := map[kdbxtypes.UUID][]byte{}
	refA := StringRef{EntryUUID: kdbxtypes.MustNewUUID(), HistoryIndex: -1, Field: "Password"}
	refB := StringRef{EntryUUID: kdbxtypes.MustNewUUID(), HistoryIndex: -1, Field: "Notes"}

	ctA, err := s.Protect(refA, []byte("first value"))
	require.NoError(t, err)
	store[refA.EntryUUID] = ctA
	ctB, err := s.Protect(refB, []byte("second value, longer"))
	require.NoError(t, err)
	store[refB.EntryUUID] = ctB

	restored := map[kdbxtypes.UUID]string{}
	err = s.Unlock(
		func(ref StringRef) []byte { return store[ref.EntryUUID] },
		func(ref StringRef, plain []byte) { restored[ref.EntryUUID] = string(plain) },
	)
	require.NoError(t, err)
	require.Equal(t, "first value", restored[refA.EntryUUID])
	require.Equal(t, "second value, longer", restored[refB.EntryUUID])
}

func TestPeekOutOfOrderDoesNotDisturbOthers(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ref1 := StringRef{EntryUUID: kdbxtypes.MustNewUUID(), HistoryIndex: -1, Field: "A"}
	ref2 := StringRef{EntryUUID: kdbxtypes.MustNewUUID(), HistoryIndex: -1, Field: "B"}

	ct1, err := s.Protect(ref1, []byte("alpha"))
	require.NoError(t, err)
	ct2, err := s.Protect(ref2, []byte("beta"))
	require.NoError(t, err)

	// Peek the second record first.
	p2, err := s.Peek(ref2, ct2)
	require.NoError(t, err)
	require.Equal(t, "beta", string(p2))

	p1, err := s.Peek(ref1, ct1)
	require.NoError(t, err)
	require.Equal(t, "alpha", string(p1))
}
