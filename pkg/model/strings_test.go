package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringsSetGetPreservesOrder(t *testing.T) {
	s := NewStrings()
	s.Set("Title", ProtectedString{Value: "a", HasValue: true})
	s.Set("Password", ProtectedString{Value: "b", HasValue: true, Protect: true})
	s.Set("Notes", ProtectedString{Value: "c", HasValue: true})

	require.Equal(t, []string{"Title", "Password", "Notes"}, s.Keys())

	v, ok := s.Get("Password")
	require.True(t, ok)
	require.Equal(t, "b", v.Value)
	require.True(t, v.Protect)
}

func TestStringsSetExistingKeepsPosition(t *testing.T) {
	s := NewStrings()
	s.Set("A", ProtectedString{Value: "1", HasValue: true})
	s.Set("B", ProtectedString{Value: "2", HasValue: true})
	s.Set("A", ProtectedString{Value: "3", HasValue: true})

	require.Equal(t, []string{"A", "B"}, s.Keys())
	v, _ := s.Get("A")
	require.Equal(t, "3", v.Value)
}

func TestStringsDeleteReindexes(t *testing.T) {
	s := NewStrings()
	s.Set("A", ProtectedString{Value: "1", HasValue: true})
	s.Set("B", ProtectedString{Value: "2", HasValue: true})
	s.Set("C", ProtectedString{Value: "3", HasValue: true})

	s.Delete("A")
	require.Equal(t, []string{"B", "C"}, s.Keys())

	v, ok := s.Get("C")
	require.True(t, ok)
	require.Equal(t, "3", v.Value)
}

func TestStringsCloneIsDeep(t *testing.T) {
	s := NewStrings()
	s.Set("Password", ProtectedString{Protect: true, CipherText: []byte{1, 2, 3}})

	clone := s.Clone()
	v, _ := clone.Get("Password")
	v.CipherText[0] = 99
	clone.Set("Password", v)

	orig, _ := s.Get("Password")
	require.Equal(t, byte(1), orig.CipherText[0])
}

func TestStringsLen(t *testing.T) {
	s := NewStrings()
	require.Equal(t, 0, s.Len())
	s.Set("A", ProtectedString{Value: "x", HasValue: true})
	require.Equal(t, 1, s.Len())
}
