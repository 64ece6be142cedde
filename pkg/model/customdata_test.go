package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

func TestCustomDataSetGetDelete(t *testing.T) {
	cd := NewCustomData()
	cd.Set("plugin.key", CustomDataItem{Value: "v1", LastModificationTime: kdbxtypes.Now(), HasModificationTime: true})

	item, ok := cd.Get("plugin.key")
	require.True(t, ok)
	require.Equal(t, "v1", item.Value)
	require.True(t, item.HasModificationTime)

	cd.Delete("plugin.key")
	_, ok = cd.Get("plugin.key")
	require.False(t, ok)
	require.Equal(t, 0, cd.Len())
}

func TestCustomDataCloneIndependent(t *testing.T) {
	cd := NewCustomData()
	cd.Set("k", CustomDataItem{Value: "orig"})
	clone := cd.Clone()
	clone.Set("k", CustomDataItem{Value: "changed"})

	orig, _ := cd.Get("k")
	require.Equal(t, "orig", orig.Value)
}

func TestCustomDataNilReceiverIsSafe(t *testing.T) {
	var cd *CustomData
	require.Equal(t, 0, cd.Len())
	_, ok := cd.Get("x")
	require.False(t, ok)
	require.Nil(t, cd.Keys())
}
