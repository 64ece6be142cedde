package query

import "github.com/kdbxkit/kdbx/pkg/model"

// DeepOrder selects one of the three deep-traversal orders a group tree
// can be walked in.
type DeepOrder int

const (
	// OrderIDS is the default: an iterative, explicit-stack traversal
	// that visits each group before its children (document order).
	OrderIDS DeepOrder = iota
	// OrderDFS is depth-first post-order: children are visited before
	// their parent, with a visited-set so a cycle introduced by an
	// external tool (a group nested inside its own descendant) can't
	// loop forever.
	OrderDFS
	// OrderBFS visits the tree level by level.
	OrderBFS
)

// DeepOptions configures a deep walk.
type DeepOptions struct {
	// History includes each entry's historical versions immediately
	// after it when set.
	History bool
	// RequireSearching skips groups (and their entries) whose effective
	// EnableSearching flag resolves to false.
	RequireSearching bool
	// RequireAutoType is RequireSearching's EnableAutoType counterpart.
	RequireAutoType bool
}

// DeepObjects walks root's subtree in the given order, yielding each
// group followed by its entries (and, if requested, each entry's
// history), subject to opts' searching/auto_type filters. OrderIDS and
// OrderBFS yield a group before its subgroups; OrderDFS yields it after.
func DeepObjects(root *model.Group, order DeepOrder, opts DeepOptions) *Iterator[model.Object] {
	if root == nil {
		return Empty[model.Object]()
	}
	var items []model.Object
	switch order {
	case OrderDFS:
		items = dfsPostWalk(root, opts, map[string]bool{})
	case OrderBFS:
		items = bfsWalk(root, opts)
	default:
		items = idsWalk(root, opts)
	}
	return FromSlice(items)
}

func groupPasses(g *model.Group, opts DeepOptions) bool {
	if opts.RequireSearching && !g.EffectiveEnableSearching() {
		return false
	}
	if opts.RequireAutoType && !g.EffectiveEnableAutoType() {
		return false
	}
	return true
}

func appendEntries(out []model.Object, g *model.Group, opts DeepOptions) []model.Object {
	for _, e := range g.Entries {
		out = append(out, e)
		if opts.History {
			for _, h := range e.History {
				out = append(out, h)
			}
		}
	}
	return out
}

// idsWalk is an iterative, explicit-stack pre-order traversal: push a
// group, pop it, emit it and its entries, then push its children in
// reverse so they pop (and so get visited) in their original left-to-
// right order. The explicit stack avoids recursion depth tracking a
// Go call stack would otherwise impose on deeply nested trees.
func idsWalk(root *model.Group, opts DeepOptions) []model.Object {
	var out []model.Object
	stack := []*model.Group{root}
	for len(stack) > 0 {
		g := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !groupPasses(g, opts) {
			continue
		}
		out = append(out, g)
		out = appendEntries(out, g, opts)
		for i := len(g.Groups) - 1; i >= 0; i-- {
			stack = append(stack, g.Groups[i])
		}
	}
	return out
}

// dfsPostWalk visits children before their parent. visited is keyed by
// group UUID so a cycle (a group that, through external corruption,
// ends up reachable from one of its own descendants) terminates instead
// of recursing forever.
func dfsPostWalk(g *model.Group, opts DeepOptions, visited map[string]bool) []model.Object {
	id := g.ID()
	if visited[id] {
		return nil
	}
	visited[id] = true

	var out []model.Object
	for _, c := range g.Groups {
		out = append(out, dfsPostWalk(c, opts, visited)...)
	}
	if groupPasses(g, opts) {
		out = append(out, g)
		out = appendEntries(out, g, opts)
	}
	return out
}

// bfsWalk visits the tree level by level via a FIFO queue.
func bfsWalk(root *model.Group, opts DeepOptions) []model.Object {
	var out []model.Object
	queue := []*model.Group{root}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		if !groupPasses(g, opts) {
			continue
		}
		out = append(out, g)
		out = appendEntries(out, g, opts)
		queue = append(queue, g.Groups...)
	}
	return out
}
