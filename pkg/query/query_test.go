package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/pkg/model"
)

func buildTestDatabase() *model.Database {
	db := model.New()

	work := model.NewGroup(db, "Work")
	db.Root.AddGroup(work)
	personal := model.NewGroup(db, "Personal")
	db.Root.AddGroup(personal)

	e1 := model.NewEntry(db)
	e1.SetString(model.FieldTitle, "GitHub", false)
	e1.SetString(model.FieldUserName, "alice", false)
	work.AddEntry(e1)

	e2 := model.NewEntry(db)
	e2.SetString(model.FieldTitle, "Gitea", false)
	e2.SetString(model.FieldUserName, "bob", false)
	work.AddEntry(e2)

	e3 := model.NewEntry(db)
	e3.SetString(model.FieldTitle, "Bank", false)
	e3.SetString(model.FieldUserName, "alice", false)
	personal.AddEntry(e3)

	return db
}

func TestIteratorNextPeekUnget(t *testing.T) {
	it := FromSlice([]int{1, 2, 3})

	v, ok := it.Peek()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, 1, v)

	it.Unget(0)
	v, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, 0, v)

	require.Equal(t, []int{2, 3}, it.ToArray())

	_, ok = it.Next()
	require.False(t, ok)
}

func TestLimitGrepMap(t *testing.T) {
	it := FromSlice([]int{1, 2, 3, 4, 5})
	limited := it.Limit(3).ToArray()
	require.Equal(t, []int{1, 2, 3}, limited)

	it2 := FromSlice([]int{1, 2, 3, 4, 5, 6})
	even := it2.Grep(func(v int) bool { return v%2 == 0 }).ToArray()
	require.Equal(t, []int{2, 4, 6}, even)

	it3 := FromSlice([]int{1, 2, 3})
	doubled := Map(it3, func(v int) int { return v * 2 }).ToArray()
	require.Equal(t, []int{2, 4, 6}, doubled)
}

func TestCountRestoresItems(t *testing.T) {
	it := FromSlice([]int{1, 2, 3})
	n, err := it.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []int{1, 2, 3}, it.ToArray())
}

func TestOrderByAscendingDescending(t *testing.T) {
	it := FromSlice([]string{"banana", "apple", "cherry"})
	sorted, err := OrderBy(it, func(s string) string { return s }, OrderOptions{Ascending: true})
	require.NoError(t, err)
	require.Equal(t, []string{"apple", "banana", "cherry"}, sorted.ToArray())

	it2 := FromSlice([]string{"banana", "apple", "cherry"})
	desc, err := OrderBy(it2, func(s string) string { return s }, OrderOptions{Ascending: false})
	require.NoError(t, err)
	require.Equal(t, []string{"cherry", "banana", "apple"}, desc.ToArray())
}

func TestNOrderBy(t *testing.T) {
	it := FromSlice([]int{3, 1, 2})
	sorted, err := NOrderBy(it, func(v int) float64 { return float64(v) }, true)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, sorted.ToArray())
}

func TestDeepObjectsIDSOrder(t *testing.T) {
	db := buildTestDatabase()
	it := Objects(db.Root, OrderIDS, DeepOptions{})
	var names []string
	it.Each(func(o model.Object) {
		switch v := o.(type) {
		case *model.Group:
			names = append(names, v.Name)
		case *model.Entry:
			names = append(names, v.Title())
		}
	})
	require.Equal(t, []string{"Root", "Work", "GitHub", "Gitea", "Personal", "Bank"}, names)
}

func TestDeepObjectsBFSOrder(t *testing.T) {
	db := buildTestDatabase()
	it := Objects(db.Root, OrderBFS, DeepOptions{})
	var groupNames []string
	it.Each(func(o model.Object) {
		if g, ok := o.(*model.Group); ok {
			groupNames = append(groupNames, g.Name)
		}
	})
	require.Equal(t, []string{"Root", "Work", "Personal"}, groupNames)
}

func TestDeepObjectsDFSPostOrderToleratesCycle(t *testing.T) {
	db := buildTestDatabase()
	work := db.Root.Groups[0]
	// Simulate external-tool corruption: work's child list loops back to
	// the root, which already lists work as a child.
	work.Groups = append(work.Groups, db.Root)

	it := Objects(work, OrderDFS, DeepOptions{})
	require.NotPanics(t, func() { it.ToArray() })
}

func TestCompileSimpleExpression(t *testing.T) {
	db := buildTestDatabase()
	pred := CompileSimple("git")
	var titles []string
	Objects(db.Root, OrderIDS, DeepOptions{}).Grep(func(o model.Object) bool {
		return pred(o)
	}).Each(func(o model.Object) {
		titles = append(titles, o.(*model.Entry).Title())
	})
	require.ElementsMatch(t, []string{"GitHub", "Gitea"}, titles)
}

func TestCompileSimpleExpressionNegation(t *testing.T) {
	db := buildTestDatabase()
	pred := CompileSimple("git -gitea")
	var titles []string
	Objects(db.Root, OrderIDS, DeepOptions{}).Grep(func(o model.Object) bool {
		_, ok := o.(*model.Entry)
		return ok && pred(o)
	}).Each(func(o model.Object) {
		titles = append(titles, o.(*model.Entry).Title())
	})
	require.Equal(t, []string{"GitHub"}, titles)
}

func TestCompileDeclarativeAndOr(t *testing.T) {
	node := map[string]any{
		"username": "alice",
	}
	pred, err := CompileDeclarative(node)
	require.NoError(t, err)

	db := buildTestDatabase()
	var matches int
	Objects(db.Root, OrderIDS, DeepOptions{}).Each(func(o model.Object) {
		if _, ok := o.(*model.Entry); ok && pred(o) {
			matches++
		}
	})
	require.Equal(t, 2, matches)
}

func TestCompileDeclarativeNot(t *testing.T) {
	node := map[string]any{
		"-not": map[string]any{"username": "alice"},
	}
	pred, err := CompileDeclarative(node)
	require.NoError(t, err)

	db := buildTestDatabase()
	e := db.Root.Groups[0].Entries[1] // Gitea / bob
	require.True(t, pred(e))
	require.False(t, pred(db.Root.Groups[0].Entries[0])) // GitHub / alice
}

func TestCompileDeclarativeOperator(t *testing.T) {
	node := map[string]any{
		"title": map[string]any{"=~": "^Git"},
	}
	pred, err := CompileDeclarative(node)
	require.NoError(t, err)

	db := buildTestDatabase()
	require.True(t, pred(db.Root.Groups[0].Entries[0]))
	require.False(t, pred(db.Root.Groups[1].Entries[0]))
}

func TestFindEntry(t *testing.T) {
	db := buildTestDatabase()
	pred := CompileSimple("bank")
	it := Objects(db.Root, OrderIDS, DeepOptions{})
	e, ok := FindEntry(it, pred)
	require.True(t, ok)
	require.Equal(t, "Bank", e.Title())
}
