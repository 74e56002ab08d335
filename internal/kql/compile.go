package kql

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/kinship/internal/cachemanager"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/tracing"
	"github.com/zjrosen/kinship/relational"
)

// Fielder is implemented by nodes that filters can inspect. Field returns
// every value of the named field; a node matches a comparison when any of
// them does.
type Fielder interface {
	Field(name string) []string
}

// Plan is a compiled query. Plans hold no tree state and can be reused
// against any source node.
type Plan struct {
	query  *Query
	steps  []step
	filter []relational.Input
}

type step struct {
	typ    TokenType
	mode   TokenType
	filter relational.Input
}

// Compile parses, validates and compiles input.
func Compile(input string) (*Plan, error) {
	log.Debug(log.CatQuery, "Compiling query", "query", input)

	query, err := Parse(input)
	if err != nil {
		return nil, err
	}

	plan := &Plan{query: query}
	for _, s := range query.Selectors {
		st := step{typ: s.Type, mode: s.Mode}
		if s.Filter != nil {
			st.filter = toInput(s.Filter)
		}
		plan.steps = append(plan.steps, st)
	}
	if query.Filter != nil {
		plan.filter = []relational.Input{toInput(query.Filter)}
	}
	return plan, nil
}

// Query returns the parsed query.
func (p *Plan) Query() *Query { return p.query }

// String returns the canonical query text.
func (p *Plan) String() string { return p.query.String() }

// Result is the outcome of running a Plan.
type Result struct {
	Nodes []relational.Node // matches, in traversal order; empty for has queries
	Found bool
}

// RunContext runs the plan inside a kql.run span.
func (p *Plan) RunContext(ctx context.Context, source relational.Node) (Result, error) {
	attrs := []attribute.KeyValue{
		attribute.String(tracing.AttrQueryText, p.String()),
		attribute.String(tracing.AttrQueryAction, strings.ToLower(p.query.Action.String())),
	}
	if pather, ok := source.(interface{ Path() string }); ok {
		attrs = append(attrs, attribute.String(tracing.AttrSourcePath, pather.Path()))
	}
	_, span := tracing.Start(ctx, tracing.SpanQueryRun, attrs...)

	result, err := p.Run(source)
	span.SetAttributes(
		attribute.Int(tracing.AttrQueryMatches, len(result.Nodes)),
		attribute.Bool(tracing.AttrQueryFound, result.Found),
	)
	tracing.End(span, err)
	return result, err
}

// Run executes the plan from source. Only assert queries return errors, a
// *relational.NotFoundError when nothing matched.
func (p *Plan) Run(source relational.Node) (Result, error) {
	terminal := p.query.Terminal()

	switch p.query.Action {
	case TokenHas:
		q := applySteps(relational.Has(source), p.steps)
		var found bool
		switch terminal {
		case TokenParent:
			found = q.Parent(p.filter...)
		case TokenRoot:
			found = q.Root(p.filter...)
		default:
			found = q.Match(p.filter...)
		}
		return Result{Found: found}, nil

	case TokenAssert:
		q := applySteps(relational.Assert(source), p.steps)
		var (
			n   relational.Node
			err error
		)
		switch terminal {
		case TokenParent:
			n, err = q.Parent(p.filter...)
		case TokenRoot:
			n, err = q.Root(p.filter...)
		default:
			nodes, err := q.All(p.filter...)
			if err != nil {
				return Result{}, err
			}
			return Result{Nodes: nodes, Found: true}, nil
		}
		if err != nil {
			return Result{}, err
		}
		return Result{Nodes: []relational.Node{n}, Found: true}, nil
	}

	q := applySteps(relational.Find(source), p.steps)
	var nodes []relational.Node
	switch terminal {
	case TokenParent:
		if n := q.Parent(p.filter...); n != nil {
			nodes = append(nodes, n)
		}
	case TokenRoot:
		if n := q.Root(p.filter...); n != nil {
			nodes = append(nodes, n)
		}
	default:
		nodes = q.All(p.filter...)
	}
	return Result{Nodes: nodes, Found: len(nodes) > 0}, nil
}

// Matches reports whether n passes the where clause. Queries without one
// match every node.
func (p *Plan) Matches(n relational.Node) bool {
	return relational.ToPredicate(p.filter...)(n)
}

// scoped is the selector surface shared by the relational query types.
type scoped[S any] interface {
	In() S
	Or() S
	Children() S
	Siblings() S
	Descendants() S
	DescendantsFiltered(...relational.Input) S
	DescendantsExcept(...relational.Input) S
	Parents() S
	Ancestors() S
	Hierarchy() S
	HierarchyFiltered(...relational.Input) S
	HierarchyExcept(...relational.Input) S
}

// applySteps replays compiled selectors onto a builder. Terminal selectors
// are left to the caller.
func applySteps[S scoped[S]](q S, steps []step) S {
	for _, st := range steps {
		switch st.typ {
		case TokenIn:
			q = q.In()
		case TokenOr:
			q = q.Or()
		case TokenChildren:
			q = q.Children()
		case TokenSiblings:
			q = q.Siblings()
		case TokenParents:
			q = q.Parents()
		case TokenAncestors:
			q = q.Ancestors()
		case TokenDescendants:
			switch st.mode {
			case TokenFiltered:
				q = q.DescendantsFiltered(st.filter)
			case TokenExcept:
				q = q.DescendantsExcept(st.filter)
			default:
				q = q.Descendants()
			}
		case TokenHierarchy:
			switch st.mode {
			case TokenFiltered:
				q = q.HierarchyFiltered(st.filter)
			case TokenExcept:
				q = q.HierarchyExcept(st.filter)
			default:
				q = q.Hierarchy()
			}
		}
	}
	return q
}

// toInput turns a filter expression into a relational input labelled with
// its canonical text.
func toInput(expr Expr) relational.Input {
	match := predicate(expr)
	return relational.Named(expr.String(), func(n relational.Node) bool {
		f, ok := n.(Fielder)
		return ok && match(f)
	})
}

func predicate(expr Expr) func(Fielder) bool {
	switch e := expr.(type) {
	case *BinaryExpr:
		left, right := predicate(e.Left), predicate(e.Right)
		if e.Op == TokenOr {
			return func(f Fielder) bool { return left(f) || right(f) }
		}
		return func(f Fielder) bool { return left(f) && right(f) }

	case *NotExpr:
		inner := predicate(e.Expr)
		return func(f Fielder) bool { return !inner(f) }

	case *CompareExpr:
		return compare(e)

	case *InExpr:
		set := make(map[string]bool, len(e.Values))
		for _, v := range e.Values {
			set[v] = true
		}
		return func(f Fielder) bool {
			for _, v := range f.Field(e.Field) {
				if set[v] {
					return !e.Not
				}
			}
			return e.Not
		}
	}
	return func(Fielder) bool { return false }
}

func compare(e *CompareExpr) func(Fielder) bool {
	want := e.Value
	lower := strings.ToLower(want)

	var test func(string) bool
	negate := false
	switch e.Op {
	case TokenEq:
		test = func(v string) bool { return v == want }
	case TokenNeq:
		test = func(v string) bool { return v == want }
		negate = true
	case TokenContains:
		test = func(v string) bool { return strings.Contains(strings.ToLower(v), lower) }
	case TokenNotContains:
		test = func(v string) bool { return strings.Contains(strings.ToLower(v), lower) }
		negate = true
	default:
		return func(Fielder) bool { return false }
	}

	return func(f Fielder) bool {
		for _, v := range f.Field(e.Field) {
			if test(v) {
				return !negate
			}
		}
		return negate
	}
}

// Compiler compiles queries through a cache, so interactive callers that
// re-run the same text skip parsing.
type Compiler struct {
	cache *cachemanager.ReadThrough[*Plan, string]
}

// NewCompiler creates a compiler whose plans expire after ttl. A zero ttl
// disables caching.
func NewCompiler(ttl time.Duration) *Compiler {
	store := cachemanager.NewInMemory[*Plan]("kql-plans", ttl, cachemanager.DefaultCleanupInterval)
	return &Compiler{cache: cachemanager.NewReadThrough[*Plan, string](store, Compile, ttl, ttl <= 0)}
}

// Compile returns the plan for input.
func (c *Compiler) Compile(input string) (*Plan, error) {
	key := strings.TrimSpace(input)
	return c.cache.Get(key, key)
}
