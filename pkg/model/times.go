package model

import "github.com/kdbxkit/kdbx/pkg/kdbxtypes"

// Times is the creation/modification/access/expiry substructure shared by
// groups and entries.
type Times struct {
	CreationTime         kdbxtypes.Timestamp
	LastModificationTime kdbxtypes.Timestamp
	LastAccessTime       kdbxtypes.Timestamp
	ExpiryTime           kdbxtypes.Timestamp
	Expires              bool
	UsageCount           int64
	LocationChanged      kdbxtypes.Timestamp
}

// NewTimes returns a Times with every timestamp set to now.
func NewTimes() Times {
	now := kdbxtypes.Now()
	return Times{
		CreationTime:         now,
		LastModificationTime: now,
		LastAccessTime:       now,
		LocationChanged:      now,
	}
}

// Touch sets LastModificationTime and LastAccessTime to now, the update a
// commit performs.
func (t *Times) Touch() {
	now := kdbxtypes.Now()
	t.LastModificationTime = now
	t.LastAccessTime = now
}
