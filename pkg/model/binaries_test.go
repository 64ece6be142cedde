package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinariesSetGetAndClone(t *testing.T) {
	b := NewBinaries()
	b.Set("attachment.txt", BinaryRef{Value: []byte("hello"), Protect: false})

	v, ok := b.Get("attachment.txt")
	require.True(t, ok)
	require.Equal(t, "hello", string(v.Value))

	clone := b.Clone()
	v2, _ := clone.Get("attachment.txt")
	v2.Value[0] = 'H'
	clone.Set("attachment.txt", v2)

	orig, _ := b.Get("attachment.txt")
	require.Equal(t, byte('h'), orig.Value[0])
}

func TestBinariesDelete(t *testing.T) {
	b := NewBinaries()
	b.Set("a", BinaryRef{Value: []byte{1}})
	b.Set("b", BinaryRef{Value: []byte{2}})
	b.Delete("a")
	require.Equal(t, []string{"b"}, b.Keys())
	require.Equal(t, 1, b.Len())
}
