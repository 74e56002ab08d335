package relational

import (
	"iter"
	"slices"
	"strings"

	"github.com/zjrosen/kinship/internal/log"
)

// action is what a query does with its matches.
type action int

const (
	actionFind action = iota
	actionHas
	actionAssert
)

func (a action) String() string {
	switch a {
	case actionHas:
		return "has"
	case actionAssert:
		return "assert"
	default:
		return "find"
	}
}

// Term names, as they appear in descriptions and assert errors.
const (
	termIn          = "in"
	termOr          = "or"
	termAll         = "all"
	termEach        = "each"
	termChildren    = "children"
	termSiblings    = "siblings"
	termDescendants = "descendants"
	termParents     = "parents"
	termAncestors   = "ancestors"
	termHierarchy   = "hierarchy"
	termFiltered    = "filtered"
	termExcept      = "except"
	termParent      = "parent"
	termRoot        = "root"
)

// query is the state shared by FindQuery, HasQuery and AssertQuery.
type query struct {
	source    Node
	action    action
	iterables []iter.Seq[Node]
	terms     []string
	union     bool // previous term was "or"
	message   string
}

func newQuery(source Node, a action) *query {
	return &query{
		source:    source,
		action:    a,
		iterables: []iter.Seq[Node]{EachChild(source)},
	}
}

// term appends to the trail. Only "or" leaves the union flag raised.
func (q *query) term(terms ...string) {
	q.terms = append(q.terms, terms...)
	q.union = len(terms) > 0 && terms[len(terms)-1] == termOr
}

// use replaces the candidate set, or adds to it right after "or".
func (q *query) use(seq iter.Seq[Node]) {
	if q.union {
		q.iterables = append(q.iterables, seq)
		return
	}
	q.iterables = []iter.Seq[Node]{seq}
}

func (q *query) selectFiltered(name string, each func(Node, ...Predicate) iter.Seq[Node], mode string, inputs []Input) {
	filter := ToPredicate(inputs...)
	if mode == termExcept {
		include := filter
		filter = func(n Node) bool { return !include(n) }
	}
	q.use(each(q.source, filter))
	q.term(name, mode, PredicateName(inputs...))
}

func (q *query) selectParent() {
	var candidates []Node
	if parent := GetParent(q.source); parent != nil {
		candidates = append(candidates, parent)
	}
	q.use(slices.Values(candidates))
	q.term(termParent)
}

func (q *query) selectRoot() {
	source := q.source
	q.use(func(yield func(Node) bool) { yield(GetRoot(source)) })
	q.term(termRoot)
}

// matches yields accepted candidates across every candidate set, skipping
// nodes already yielded. first stops after one match.
func (q *query) matches(predicate Predicate, first bool) iter.Seq[Node] {
	iterables := slices.Clone(q.iterables)
	return func(yield func(Node) bool) {
		yielded := make(map[*Relational]struct{})
		for _, seq := range iterables {
			for n := range seq {
				r := n.Relations()
				if _, ok := yielded[r]; ok || !predicate(n) {
					continue
				}
				yielded[r] = struct{}{}
				if !yield(n) || first {
					return
				}
			}
		}
	}
}

func (q *query) first(inputs []Input) Node {
	for n := range q.matches(ToPredicate(inputs...), true) {
		q.trace(inputs, 1)
		return n
	}
	q.trace(inputs, 0)
	return nil
}

func (q *query) all(inputs []Input) []Node {
	q.term(termAll)
	found := Collect(q.matches(ToPredicate(inputs...), false))
	q.trace(inputs, len(found))
	return found
}

func (q *query) notFound(inputs []Input) error {
	return &NotFoundError{
		Path:        PathString(q.source),
		Description: q.describe(actionFind, inputs),
		Message:     q.message,
	}
}

func (q *query) trace(inputs []Input, results int) {
	log.Debug(log.CatQuery, "Query complete", "query", q.describe(q.action, inputs), "results", results)
}

// describe renders "<action> <predicate> <terms...>", skipping empty parts.
func (q *query) describe(a action, inputs []Input) string {
	parts := []string{a.String()}
	if name := PredicateName(inputs...); name != "" {
		parts = append(parts, name)
	}
	for _, t := range q.terms {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Terms are the chainable selectors shared by every query type. Self is the
// query type returned for further chaining.
type Terms[Self any] struct {
	q    *query
	self Self
}

// In is a readability term; it changes nothing.
func (t Terms[S]) In() S {
	t.q.term(termIn)
	return t.self
}

// Or makes the next selector add its candidates to the current ones
// instead of replacing them.
func (t Terms[S]) Or() S {
	t.q.term(termOr)
	return t.self
}

// Children selects the immediate children of the source. This is also the
// candidate set of a query without selectors.
func (t Terms[S]) Children() S {
	t.q.use(EachChild(t.q.source))
	t.q.term(termChildren)
	return t.self
}

// Siblings selects the other children of the source's parent.
func (t Terms[S]) Siblings() S {
	t.q.use(EachSibling(t.q.source))
	t.q.term(termSiblings)
	return t.self
}

// Descendants selects every descendant of the source, breadth first.
func (t Terms[S]) Descendants() S {
	t.q.use(EachDescendant(t.q.source))
	t.q.term(termDescendants)
	return t.self
}

// DescendantsFiltered selects descendants, only expanding nodes that match
// inputs.
func (t Terms[S]) DescendantsFiltered(inputs ...Input) S {
	t.q.selectFiltered(termDescendants, EachDescendant, termFiltered, inputs)
	return t.self
}

// DescendantsExcept selects descendants, not expanding nodes that match
// inputs.
func (t Terms[S]) DescendantsExcept(inputs ...Input) S {
	t.q.selectFiltered(termDescendants, EachDescendant, termExcept, inputs)
	return t.self
}

// Parents selects the parent chain, nearest first.
func (t Terms[S]) Parents() S {
	t.q.use(EachParent(t.q.source))
	t.q.term(termParents)
	return t.self
}

// Ancestors selects every parent followed by that parent's siblings.
func (t Terms[S]) Ancestors() S {
	t.q.use(EachAncestor(t.q.source))
	t.q.term(termAncestors)
	return t.self
}

// Hierarchy selects every node of the source's tree, root first.
func (t Terms[S]) Hierarchy() S {
	t.q.use(EachInHierarchy(t.q.source))
	t.q.term(termHierarchy)
	return t.self
}

// HierarchyFiltered selects the whole tree, only expanding nodes that match
// inputs.
func (t Terms[S]) HierarchyFiltered(inputs ...Input) S {
	t.q.selectFiltered(termHierarchy, EachInHierarchy, termFiltered, inputs)
	return t.self
}

// HierarchyExcept selects the whole tree, not expanding nodes that match
// inputs.
func (t Terms[S]) HierarchyExcept(inputs ...Input) S {
	t.q.selectFiltered(termHierarchy, EachInHierarchy, termExcept, inputs)
	return t.self
}

// Source returns the node the query starts from.
func (t Terms[S]) Source() Node {
	return t.q.source
}

// String describes the query, e.g. "find in children or siblings".
func (t Terms[S]) String() string {
	return t.q.describe(t.q.action, nil)
}

// FindQuery returns the first match, or nil when nothing matches.
type FindQuery struct {
	Terms[*FindQuery]
}

// Find starts a query returning a match or nil.
func Find(source Node) *FindQuery {
	f := &FindQuery{}
	f.Terms = Terms[*FindQuery]{q: newQuery(source, actionFind), self: f}
	return f
}

// Match returns the first candidate matching every input, or nil.
func (f *FindQuery) Match(inputs ...Input) Node {
	return f.q.first(inputs)
}

// All returns every matching candidate in iteration order.
func (f *FindQuery) All(inputs ...Input) []Node {
	return f.q.all(inputs)
}

// Each returns the matches as a lazy sequence.
func (f *FindQuery) Each(inputs ...Input) iter.Seq[Node] {
	f.q.term(termEach)
	return f.q.matches(ToPredicate(inputs...), false)
}

// Parent returns the source's parent if it matches inputs.
func (f *FindQuery) Parent(inputs ...Input) Node {
	f.q.selectParent()
	return f.q.first(inputs)
}

// Root returns the root of the source's tree if it matches inputs.
func (f *FindQuery) Root(inputs ...Input) Node {
	f.q.selectRoot()
	return f.q.first(inputs)
}

// HasQuery reports whether a match exists.
type HasQuery struct {
	Terms[*HasQuery]
}

// Has starts a query reporting presence.
func Has(source Node) *HasQuery {
	h := &HasQuery{}
	h.Terms = Terms[*HasQuery]{q: newQuery(source, actionHas), self: h}
	return h
}

// Match reports whether any candidate matches every input.
func (h *HasQuery) Match(inputs ...Input) bool {
	return h.q.first(inputs) != nil
}

// Parent reports whether the source has a parent matching inputs.
func (h *HasQuery) Parent(inputs ...Input) bool {
	h.q.selectParent()
	return h.q.first(inputs) != nil
}

// Root reports whether the source's root matches inputs.
func (h *HasQuery) Root(inputs ...Input) bool {
	h.q.selectRoot()
	return h.q.first(inputs) != nil
}

// AssertQuery returns the match or a *NotFoundError.
type AssertQuery struct {
	Terms[*AssertQuery]
}

// Assert starts a query that fails when nothing matches. An optional
// message replaces the generated error text.
func Assert(source Node, message ...string) *AssertQuery {
	a := &AssertQuery{}
	a.Terms = Terms[*AssertQuery]{q: newQuery(source, actionAssert), self: a}
	if len(message) > 0 {
		a.q.message = message[0]
	}
	return a
}

// Message replaces the generated error text.
func (a *AssertQuery) Message(msg string) *AssertQuery {
	a.q.message = msg
	return a
}

// Match returns the first candidate matching every input.
func (a *AssertQuery) Match(inputs ...Input) (Node, error) {
	if n := a.q.first(inputs); n != nil {
		return n, nil
	}
	return nil, a.q.notFound(inputs)
}

// All returns every match, failing when there is none.
func (a *AssertQuery) All(inputs ...Input) ([]Node, error) {
	found := a.q.all(inputs)
	if len(found) == 0 {
		return nil, a.q.notFound(inputs)
	}
	return found, nil
}

// Parent returns the source's parent if it matches inputs.
func (a *AssertQuery) Parent(inputs ...Input) (Node, error) {
	a.q.selectParent()
	return a.Match(inputs...)
}

// Root returns the root of the source's tree if it matches inputs.
func (a *AssertQuery) Root(inputs ...Input) (Node, error) {
	a.q.selectRoot()
	return a.Match(inputs...)
}
