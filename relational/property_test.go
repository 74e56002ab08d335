package relational_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/kinship/relational"
)

// randomTree grows a tree of n nodes, attaching each new node under a random
// existing one. Returns the nodes in creation order, root first.
func randomTree(t *rapid.T, n int) []*Person {
	nodes := []*Person{newPerson("n0", nil)}
	for i := 1; i < n; i++ {
		parent := nodes[rapid.IntRange(0, len(nodes)-1).Draw(t, fmt.Sprintf("parent%d", i))]
		child := newPerson(fmt.Sprintf("n%d", i), nil)
		require.NoError(t, parent.SetChild(fmt.Sprintf("k%d", i), child))
		nodes = append(nodes, child)
	}
	return nodes
}

// walk resolves a path of keys from root through the registry.
func walk(root relational.Node, path []string) relational.Node {
	n := root
	for _, key := range path {
		n = n.Relations().Child(key)
		if n == nil {
			return nil
		}
	}
	return n
}

func TestProperty_SingleParent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(1, 40).Draw(t, "size"))

		owners := make(map[*Person]int)
		for _, p := range nodes {
			for c := range relational.EachChild(p) {
				owners[c.(*Person)]++
				require.Same(t, p, relational.GetParent(c))
			}
		}
		for _, p := range nodes[1:] {
			require.Equal(t, 1, owners[p], "%s listed by %d parents", p, owners[p])
		}
		require.Zero(t, owners[nodes[0]])
	})
}

func TestProperty_PathResolves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(1, 40).Draw(t, "size"))
		root := nodes[0]

		for _, p := range nodes {
			require.Same(t, root, relational.GetRoot(p))
			require.Same(t, p, walk(root, relational.Path(p)))
			require.Len(t, relational.Path(p), len(relational.Collect(relational.EachParent(p))))
		}
	})
}

func TestProperty_HierarchyVisitsEveryNodeOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(1, 40).Draw(t, "size"))
		from := rapid.SampledFrom(nodes).Draw(t, "from")

		seen := make(map[relational.Node]int)
		for n := range relational.EachInHierarchy(from) {
			seen[n]++
		}
		require.Len(t, seen, len(nodes))
		for _, count := range seen {
			require.Equal(t, 1, count)
		}

		require.Len(t, relational.Collect(relational.EachDescendant(nodes[0])), len(nodes)-1)
	})
}

func TestProperty_DescendantsExcludeSelfAndAncestors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(1, 40).Draw(t, "size"))
		p := rapid.SampledFrom(nodes).Draw(t, "node")

		parents := make(map[relational.Node]bool)
		for a := range relational.EachParent(p) {
			parents[a] = true
		}
		for d := range relational.EachDescendant(p) {
			require.NotSame(t, p, d)
			require.False(t, parents[d])
			require.True(t, relational.Has(d).Parents().Match(relational.Value(p)))
		}
	})
}

func TestProperty_ReparentRequiresRemoval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(2, 30).Draw(t, "size"))
		child := rapid.SampledFrom(nodes[1:]).Draw(t, "child")
		target := rapid.SampledFrom(nodes).Draw(t, "target")

		oldParent := relational.GetParent(child)
		key, ok := relational.KeyOf(child)
		require.True(t, ok)

		err := relational.SetChild(target, "moved", child)
		require.ErrorIs(t, err, relational.ErrStructure)
		require.Same(t, oldParent, relational.GetParent(child))

		require.Same(t, child, relational.RemoveChild(oldParent, key))
		require.Nil(t, relational.GetParent(child))

		err = relational.SetChild(target, "moved", child)
		if relational.GetRoot(target) == relational.Node(child) {
			// target sits inside child's detached subtree
			require.ErrorIs(t, err, relational.ErrStructure)
			return
		}
		require.NoError(t, err)
		require.Same(t, target, relational.GetParent(child))
	})
}

func TestProperty_FindAllMatchesFilter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := randomTree(t, rapid.IntRange(1, 40).Draw(t, "size"))
		mod := rapid.IntRange(1, 4).Draw(t, "mod")

		byMod := relational.Named("byMod", func(n relational.Node) bool {
			return len(n.(*Person).Name())%mod == 0
		})

		var want []relational.Node
		for n := range relational.EachDescendant(nodes[0]) {
			if byMod.Match(n) {
				want = append(want, n)
			}
		}
		got := relational.Find(nodes[0]).In().Descendants().All(byMod)
		require.Equal(t, want, got)
		require.Equal(t, len(want) > 0, relational.Has(nodes[0]).In().Descendants().Match(byMod))
	})
}
