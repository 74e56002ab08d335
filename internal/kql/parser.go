package kql

import "fmt"

// Parser parses tokens into a Query.
type Parser struct {
	lexer   *Lexer
	current Token
	peek    Token
}

// NewParser creates a parser for the input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Prime the parser with two tokens
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input and returns the Query AST.
func (p *Parser) Parse() (*Query, error) {
	query := &Query{Action: TokenFind}

	switch p.current.Type {
	case TokenFind, TokenHas, TokenAssert:
		query.Action = p.current.Type
		p.nextToken()
	}

	for p.current.Type != TokenWhere && p.current.Type != TokenEOF {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		query.Selectors = append(query.Selectors, sel)
	}

	if p.current.Type == TokenWhere {
		p.nextToken() // consume WHERE
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		query.Filter = expr
	}

	// Should be at EOF now
	if p.current.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.current.Literal, p.current.Pos)
	}

	return query, nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

// parseSelector parses one scope term.
// selector = "in" | "or" | name | ("descendants"|"hierarchy") [("filtered"|"except") "(" expression ")"]
func (p *Parser) parseSelector() (Selector, error) {
	tok := p.current
	switch {
	case tok.Type == TokenIn, tok.Type == TokenOr, tok.Type.IsSelector():
	default:
		return Selector{}, fmt.Errorf("expected selector at position %d, got %q (valid: children, siblings, descendants, parents, ancestors, hierarchy, parent, root)",
			tok.Pos, tok.Literal)
	}
	p.nextToken()

	sel := Selector{Type: tok.Type}
	if p.current.Type != TokenFiltered && p.current.Type != TokenExcept {
		return sel, nil
	}
	if tok.Type != TokenDescendants && tok.Type != TokenHierarchy {
		return Selector{}, fmt.Errorf("%q at position %d only applies to descendants or hierarchy", p.current.Literal, p.current.Pos)
	}
	sel.Mode = p.current.Type
	p.nextToken()

	if p.current.Type != TokenLParen {
		return Selector{}, fmt.Errorf("expected '(' at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	p.nextToken()

	expr, err := p.parseExpression()
	if err != nil {
		return Selector{}, err
	}
	if p.current.Type != TokenRParen {
		return Selector{}, fmt.Errorf("expected ')' at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	p.nextToken()

	sel.Filter = expr
	return sel, nil
}

// parseExpression parses OR-separated terms.
// expression = term { "or" term }
func (p *Parser) parseExpression() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenOr {
		p.nextToken() // consume OR
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TokenOr, Right: right}
	}

	return left, nil
}

// parseTerm parses AND-separated factors.
// term = factor { "and" factor }
func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenAnd {
		p.nextToken() // consume AND
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TokenAnd, Right: right}
	}

	return left, nil
}

// parseFactor parses NOT, parenthesized expressions, or comparisons.
// factor = "not" factor | "(" expression ")" | comparison
func (p *Parser) parseFactor() (Expr, error) {
	switch p.current.Type {
	case TokenNot:
		p.nextToken() // consume NOT
		expr, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: expr}, nil

	case TokenLParen:
		p.nextToken() // consume (
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, fmt.Errorf("expected ')' at position %d, got %q", p.current.Pos, p.current.Literal)
		}
		p.nextToken() // consume )
		return expr, nil

	default:
		return p.parseComparison()
	}
}

// parseComparison parses field comparisons.
// comparison = field op value | field "in" "(" values ")" | field "not" "in" "(" values ")"
func (p *Parser) parseComparison() (Expr, error) {
	if p.current.Type != TokenIdent {
		return nil, fmt.Errorf("expected field name at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	field := p.current.Literal
	p.nextToken()

	if p.current.Type == TokenNot && p.peek.Type == TokenIn {
		p.nextToken() // consume NOT
		p.nextToken() // consume IN
		return p.parseInExpr(field, true)
	}

	if p.current.Type == TokenIn {
		p.nextToken() // consume IN
		return p.parseInExpr(field, false)
	}

	if !p.current.Type.IsComparisonOp() {
		return nil, fmt.Errorf("expected operator at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	op := p.current.Type
	p.nextToken()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &CompareExpr{Field: field, Op: op, Value: value}, nil
}

// parseInExpr parses the IN expression values list.
func (p *Parser) parseInExpr(field string, not bool) (Expr, error) {
	if p.current.Type != TokenLParen {
		return nil, fmt.Errorf("expected '(' at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	p.nextToken()

	var values []string
	for {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		if p.current.Type == TokenComma {
			p.nextToken() // consume comma
			continue
		}
		break
	}

	if p.current.Type != TokenRParen {
		return nil, fmt.Errorf("expected ')' at position %d, got %q", p.current.Pos, p.current.Literal)
	}
	p.nextToken()

	return &InExpr{Field: field, Values: values, Not: not}, nil
}

// parseValue parses a literal value. Bare keywords are accepted as values,
// so "kind = root" works without quotes.
func (p *Parser) parseValue() (string, error) {
	switch {
	case p.current.Type == TokenString, p.current.Type == TokenIdent, p.current.Type.IsKeyword():
		v := p.current.Literal
		p.nextToken()
		return v, nil
	}
	return "", fmt.Errorf("expected value at position %d, got %q", p.current.Pos, p.current.Literal)
}

// Parse is shorthand for NewParser(input).Parse followed by Validate.
func Parse(input string) (*Query, error) {
	query, err := NewParser(input).Parse()
	if err != nil {
		return nil, err
	}
	if err := Validate(query); err != nil {
		return nil, err
	}
	return query, nil
}
