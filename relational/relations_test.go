package relational_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/relational"
)

func TestEachChild(t *testing.T) {
	f := makeFamily()
	require.Equal(t, []string{"Mom", "Uncle"}, names(relational.Collect(relational.EachChild(f.grandPa))))
	require.Empty(t, relational.Collect(relational.EachChild(f.uncle)))
}

func TestEachParent(t *testing.T) {
	f := makeFamily()
	require.Equal(t, []string{"Son", "You", "Mom", "GrandPa"},
		names(relational.Collect(relational.EachParent(f.grandDaughter))))
	require.Empty(t, relational.Collect(relational.EachParent(f.grandPa)))
}

func TestEachSibling(t *testing.T) {
	f := makeFamily()
	require.Equal(t, []string{"Sister"}, names(relational.Collect(relational.EachSibling(f.you))))
	require.Empty(t, relational.Collect(relational.EachSibling(f.grandPa)))
	require.Empty(t, relational.Collect(relational.EachSibling(f.son)))
}

func TestEachAncestor(t *testing.T) {
	f := makeFamily()
	require.Equal(t, []string{"Mom", "Uncle", "GrandPa"},
		names(relational.Collect(relational.EachAncestor(f.you))))
	require.Equal(t, []string{"Cousin", "Sister", "You", "Mom", "Uncle", "GrandPa"},
		names(relational.Collect(relational.EachAncestor(f.grandNiece))))
}

func TestEachDescendant(t *testing.T) {
	f := makeFamily()

	require.Equal(t, []string{"Son", "GrandDaughter", "GreatGrandSon"},
		names(relational.Collect(relational.EachDescendant(f.you))))

	// Breadth first: each generation before the next.
	require.Equal(t,
		[]string{"Mom", "Uncle", "You", "Sister", "Son", "Cousin", "GrandDaughter", "Niece", "GreatGrandSon"},
		names(relational.Collect(relational.EachDescendant(f.grandPa))))
}

func TestEachDescendant_Filter(t *testing.T) {
	f := makeFamily()

	notMom := func(n relational.Node) bool { return n != relational.Node(f.mom) }
	require.Equal(t, []string{"Mom", "Uncle"},
		names(relational.Collect(relational.EachDescendant(f.grandPa, notMom))))

	// Multiple filters AND together.
	notSister := func(n relational.Node) bool { return n != relational.Node(f.sister) }
	require.Equal(t, []string{"Mom", "Uncle", "You", "Sister", "Son", "GrandDaughter", "GreatGrandSon"},
		names(relational.Collect(relational.EachDescendant(f.grandPa, notSister, func(relational.Node) bool { return true }))))
}

func TestEachDescendant_StopsEarly(t *testing.T) {
	f := makeFamily()

	var seen []string
	for n := range relational.EachDescendant(f.grandPa) {
		seen = append(seen, n.(*Person).Name())
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []string{"Mom", "Uncle"}, seen)
}

func TestEachDescendant_RiggedCycle(t *testing.T) {
	a := newPerson("A", nil)
	b := newPerson("B", nil)
	require.NoError(t, a.SetChild("b", b))

	// Detach b without telling a, then register a under b.
	relational.SetParent(b, nil)
	require.NoError(t, b.SetChild("a", a))

	require.Equal(t, []string{"B"}, names(relational.Collect(relational.EachDescendant(a))))
}

// looper is a leaf whose provider hands back a node from higher up.
type looper struct {
	relational.Relational
	back relational.Node
}

func (l *looper) ProvideChildren() relational.Children {
	if l.back == nil {
		return nil
	}
	return relational.Children{{Key: "back", Node: l.back}}
}

func TestEachDescendant_ProviderCycle(t *testing.T) {
	root := newPerson("Root", nil)
	mid := newPerson("Mid", nil)
	leaf := relational.MustApply(&looper{})
	require.NoError(t, root.SetChild("mid", mid))
	require.NoError(t, mid.SetChild("leaf", leaf))

	// The root is unparented, so the provider output passes validation.
	leaf.back = root
	children, err := relational.GetChildren(leaf)
	require.NoError(t, err)
	require.Equal(t, []string{"back"}, children.Keys())

	got := relational.Collect(relational.EachDescendant(root))
	require.Equal(t, []relational.Node{mid, leaf}, got)

	got = relational.Collect(relational.EachDescendant(mid))
	require.Equal(t, []relational.Node{leaf, root}, got)

	seen := map[relational.Node]int{}
	for n := range relational.EachDescendant(leaf) {
		seen[n]++
	}
	require.Equal(t, map[relational.Node]int{root: 1, mid: 1}, seen)
}

func TestEachInHierarchy(t *testing.T) {
	f := makeFamily()

	all := names(relational.Collect(relational.EachInHierarchy(f.greatGrandSon)))
	require.Len(t, all, 10)
	require.Equal(t, "GrandPa", all[0])
	require.Contains(t, all, "GreatGrandSon")
	require.Contains(t, all, "Niece")

	require.Equal(t, []string{"Solo"}, names(relational.Collect(relational.EachInHierarchy(newPerson("Solo", nil)))))
}

func TestEach_Restartable(t *testing.T) {
	f := makeFamily()

	seq := relational.EachDescendant(f.mom)
	first := relational.Collect(seq)
	second := relational.Collect(seq)
	require.Equal(t, first, second)

	// Iterators resolve children lazily, so mutations show up on the next range.
	require.NotNil(t, f.mom.RemoveChild("sister"))
	require.Equal(t, []string{"You", "Son", "GrandDaughter", "GreatGrandSon"}, names(relational.Collect(seq)))
}
