package kql

import (
	"fmt"
	"strings"
)

// Node is the interface for all AST nodes.
type Node interface {
	node()
	String() string
}

// Expr is the interface for filter expression nodes.
type Expr interface {
	Node
	expr()
}

// Query represents a complete query.
type Query struct {
	Action    TokenType  // TokenFind, TokenHas or TokenAssert
	Selectors []Selector // in order, including "in" and "or"
	Filter    Expr       // may be nil
}

func (q *Query) node() {}

func (q *Query) String() string {
	parts := []string{strings.ToLower(q.Action.String())}
	for _, s := range q.Selectors {
		parts = append(parts, s.String())
	}
	if q.Filter != nil {
		parts = append(parts, "where", q.Filter.String())
	}
	return strings.Join(parts, " ")
}

// Terminal returns the final parent/root selector, or TokenEOF if the query
// returns a candidate set.
func (q *Query) Terminal() TokenType {
	if n := len(q.Selectors); n > 0 && q.Selectors[n-1].Type.IsTerminal() {
		return q.Selectors[n-1].Type
	}
	return TokenEOF
}

// Selector is one scope term: a candidate set, or the "in" and "or" words.
type Selector struct {
	Type   TokenType
	Mode   TokenType // TokenFiltered or TokenExcept, zero otherwise
	Filter Expr      // expansion filter for Mode
}

func (s *Selector) node() {}

func (s Selector) String() string {
	name := strings.ToLower(s.Type.String())
	if s.Mode == 0 {
		return name
	}
	return fmt.Sprintf("%s %s (%s)", name, strings.ToLower(s.Mode.String()), s.Filter)
}

// BinaryExpr represents "expr AND/OR expr".
type BinaryExpr struct {
	Left  Expr
	Op    TokenType // TokenAnd or TokenOr
	Right Expr
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

func (b *BinaryExpr) String() string {
	if b.Op == TokenOr {
		return fmt.Sprintf("(%s or %s)", b.Left, b.Right)
	}
	return fmt.Sprintf("%s and %s", b.Left, b.Right)
}

// NotExpr represents "NOT expr".
type NotExpr struct {
	Expr Expr
}

func (n *NotExpr) node() {}
func (n *NotExpr) expr() {}

func (n *NotExpr) String() string {
	return "not " + n.Expr.String()
}

// CompareExpr represents "field op value".
type CompareExpr struct {
	Field string
	Op    TokenType
	Value string
}

func (c *CompareExpr) node() {}
func (c *CompareExpr) expr() {}

func (c *CompareExpr) String() string {
	return c.Field + c.Op.String() + quote(c.Value)
}

// InExpr represents "field IN (values)" or "field NOT IN (values)".
type InExpr struct {
	Field  string
	Values []string
	Not    bool // true for "NOT IN"
}

func (i *InExpr) node() {}
func (i *InExpr) expr() {}

func (i *InExpr) String() string {
	values := make([]string, len(i.Values))
	for j, v := range i.Values {
		values[j] = quote(v)
	}
	op := " in "
	if i.Not {
		op = " not in "
	}
	return i.Field + op + "(" + strings.Join(values, ", ") + ")"
}

// quote wraps values that would not lex back as a single word.
func quote(v string) string {
	if v == "" || LookupKeyword(v) != TokenIdent {
		return fmt.Sprintf("%q", v)
	}
	for i := 0; i < len(v); i++ {
		if !isWordChar(v[i]) {
			return fmt.Sprintf("%q", v)
		}
	}
	return v
}
