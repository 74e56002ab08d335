package relational_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/relational"
)

func TestValue_Identity(t *testing.T) {
	f := makeFamily()

	in := relational.Value(f.mom)
	require.Equal(t, relational.InputIdentity, in.Kind())
	require.Equal(t, "Mom", in.Name())
	require.True(t, in.Match(f.mom))

	// A structurally identical twin is a different node.
	twin := newPerson("Mom", nil)
	require.False(t, in.Match(twin))
}

func TestValue_Nil(t *testing.T) {
	f := makeFamily()
	require.False(t, relational.Value(nil).Match(f.mom))
	require.False(t, relational.Value((*Person)(nil)).Match(f.mom))
}

func TestValue_Predicate(t *testing.T) {
	f := makeFamily()

	in := relational.Value(isMom)
	require.Equal(t, relational.InputPredicate, in.Kind())
	require.Equal(t, "isMom", in.Name())
	require.True(t, in.Match(f.mom))
	require.False(t, in.Match(f.you))

	in = relational.Value(relational.Predicate(isGrand))
	require.Equal(t, relational.InputPredicate, in.Kind())
	require.True(t, in.Match(f.grandDaughter))
}

// point compares by coordinates.
type point struct {
	relational.Relational
	X, Y int
}

func (p *point) Equal(other relational.Node) bool {
	o, ok := other.(*point)
	return ok && o.X == p.X && o.Y == p.Y
}

func TestValue_Comparable(t *testing.T) {
	a := relational.MustApply(&point{X: 1, Y: 2})
	b := relational.MustApply(&point{X: 1, Y: 2})
	c := relational.MustApply(&point{X: 2, Y: 2})

	in := relational.Value(a)
	require.Equal(t, relational.InputEqual, in.Kind())
	require.True(t, in.Match(b))
	require.False(t, in.Match(c))
}

// kinds is a type guard over Person names.
type kinds map[string]bool

func (k kinds) Is(n relational.Node) bool {
	p, ok := n.(*Person)
	return ok && k[p.name]
}

func (k kinds) Name() string { return "Elder" }

func TestValue_TypeGuard(t *testing.T) {
	f := makeFamily()

	in := relational.Value(kinds{"GrandPa": true, "Uncle": true})
	require.Equal(t, relational.InputGuard, in.Kind())
	require.Equal(t, "Elder", in.Name())
	require.True(t, in.Match(f.uncle))
	require.False(t, in.Match(f.mom))
}

// guardPerson is a node that also acts as a type guard.
type guardPerson struct {
	relational.Relational
	accept string
}

func (g *guardPerson) Is(n relational.Node) bool {
	p, ok := n.(*Person)
	return ok && p.name == g.accept
}

func TestValue_GuardBeforeIdentity(t *testing.T) {
	f := makeFamily()

	in := relational.Value(relational.MustApply(&guardPerson{accept: "Mom"}))
	require.Equal(t, relational.InputGuard, in.Kind())
	require.True(t, in.Match(f.mom))
	require.False(t, in.Match(f.uncle))

	require.False(t, relational.Value((*guardPerson)(nil)).Match(f.mom))
}

func TestValue_InputPassThrough(t *testing.T) {
	in := relational.Named("custom", isMom)
	require.Equal(t, in.Name(), relational.Value(in).Name())
}

func TestLike(t *testing.T) {
	a := relational.MustApply(&Number{Value: 5})
	b := relational.MustApply(&Number{Value: 5})
	c := relational.MustApply(&Number{Value: 6})

	// Tree linkage is ignored: b has a parent, a does not.
	relational.MustApply(&Numbers{One: b})

	in := relational.Like(a)
	require.Equal(t, relational.InputEqual, in.Kind())
	require.True(t, in.Match(b))
	require.False(t, in.Match(c))
	require.False(t, in.Match(newPerson("Five", nil)))
}

type Describer interface {
	Describe() string
}

type Alerter interface {
	Alert() string
}

type describedEntity struct {
	relational.Relational
}

func (d *describedEntity) Describe() string {
	return "The path to this entity is " + relational.PathString(d)
}

type alertingEntity struct {
	describedEntity
}

func (a *alertingEntity) Alert() string { return "!" }

func TestType(t *testing.T) {
	in := relational.Type[Describer]()
	require.Equal(t, relational.InputType, in.Kind())
	require.Equal(t, "Describer", in.Name())
	require.True(t, in.Match(relational.MustApply(&describedEntity{})))
	require.False(t, in.Match(newPerson("Plain", nil)))

	in = relational.Type[*Person]()
	require.Equal(t, "Person", in.Name())
	require.True(t, in.Match(newPerson("Plain", nil)))
}

func TestWhere(t *testing.T) {
	require.Equal(t, "isGrand", relational.Where(isGrand).Name())
	require.Empty(t, relational.Where(func(relational.Node) bool { return true }).Name())
}

func TestNot(t *testing.T) {
	f := makeFamily()
	in := relational.Not(relational.Where(isMom))
	require.False(t, in.Match(f.mom))
	require.True(t, in.Match(f.you))
}

func TestToPredicate(t *testing.T) {
	f := makeFamily()

	require.True(t, relational.ToPredicate()(f.mom))

	both := relational.ToPredicate(relational.Type[*Person](), relational.Where(isGrand))
	require.True(t, both(f.grandDaughter))
	require.False(t, both(f.mom))

	require.True(t, relational.Input{}.Match(f.mom))
}

func TestPredicateName(t *testing.T) {
	f := makeFamily()

	require.Equal(t, "Mom", relational.PredicateName(relational.Where(isMom)))
	require.Equal(t, "Person&Grand",
		relational.PredicateName(relational.Type[*Person](), relational.Where(isGrand)))
	require.Equal(t, "GrandPa", relational.PredicateName(relational.Value(f.grandPa), relational.Where(func(relational.Node) bool { return true })))
	require.Empty(t, relational.PredicateName())
}
