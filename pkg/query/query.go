package query

import "github.com/kdbxkit/kdbx/pkg/model"

// Entries returns an iterator over every current entry in db (history
// excluded), in document order.
func Entries(db *model.Database) *Iterator[*model.Entry] {
	return FromSlice(db.AllEntries())
}

// Groups returns an iterator over every group in db, root first,
// pre-order.
func Groups(db *model.Database) *Iterator[*model.Group] {
	return FromSlice(db.AllGroups())
}

// Objects returns a deep iterator over root's subtree per order/opts.
func Objects(root *model.Group, order DeepOrder, opts DeepOptions) *Iterator[model.Object] {
	return DeepObjects(root, order, opts)
}

// Find advances it past values pred rejects and returns the first one
// it accepts.
func Find(it *Iterator[model.Object], pred Predicate) (model.Object, bool) {
	return it.NextMatching(pred)
}

// FindEntry is Find specialized to entries: it filters a deep object
// walk down to *model.Entry values before applying pred.
func FindEntry(it *Iterator[model.Object], pred Predicate) (*model.Entry, bool) {
	o, ok := it.NextMatching(func(o model.Object) bool {
		_, isEntry := o.(*model.Entry)
		return isEntry && pred(o)
	})
	if !ok {
		return nil, false
	}
	return o.(*model.Entry), true
}
