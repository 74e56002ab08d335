// Package kql implements the kinship query language, a textual front end for
// relational queries:
//
//	[find|has|assert] {selector} [where filter]
//
// for example "descendants except (kind = group) where label ~ elder".
package kql

import "strings"

// TokenType represents the type of lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent  // field names, unquoted values
	TokenString // "quoted" or 'quoted'

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,

	// Comparison operators
	TokenEq          // =
	TokenNeq         // !=
	TokenContains    // ~
	TokenNotContains // !~

	// Logical operators
	TokenAnd // and
	TokenOr  // or (also unions selectors)
	TokenNot // not

	TokenIn    // in (readability selector, or set membership)
	TokenWhere // where

	// Actions
	TokenFind
	TokenHas
	TokenAssert

	// Selectors
	TokenChildren
	TokenSiblings
	TokenDescendants
	TokenParents
	TokenAncestors
	TokenHierarchy
	TokenParent
	TokenRoot

	// Selector modes
	TokenFiltered
	TokenExcept
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenIllegal:     "ILLEGAL",
	TokenIdent:       "IDENT",
	TokenString:      "STRING",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenComma:       ",",
	TokenEq:          "=",
	TokenNeq:         "!=",
	TokenContains:    "~",
	TokenNotContains: "!~",
	TokenAnd:         "AND",
	TokenOr:          "OR",
	TokenNot:         "NOT",
	TokenIn:          "IN",
	TokenWhere:       "WHERE",
	TokenFind:        "FIND",
	TokenHas:         "HAS",
	TokenAssert:      "ASSERT",
	TokenChildren:    "CHILDREN",
	TokenSiblings:    "SIBLINGS",
	TokenDescendants: "DESCENDANTS",
	TokenParents:     "PARENTS",
	TokenAncestors:   "ANCESTORS",
	TokenHierarchy:   "HIERARCHY",
	TokenParent:      "PARENT",
	TokenRoot:        "ROOT",
	TokenFiltered:    "FILTERED",
	TokenExcept:      "EXCEPT",
}

// String returns the string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // Position in input for error reporting
}

var keywords = map[string]TokenType{
	"and":         TokenAnd,
	"or":          TokenOr,
	"not":         TokenNot,
	"in":          TokenIn,
	"where":       TokenWhere,
	"find":        TokenFind,
	"has":         TokenHas,
	"assert":      TokenAssert,
	"children":    TokenChildren,
	"siblings":    TokenSiblings,
	"descendants": TokenDescendants,
	"parents":     TokenParents,
	"ancestors":   TokenAncestors,
	"hierarchy":   TokenHierarchy,
	"parent":      TokenParent,
	"root":        TokenRoot,
	"filtered":    TokenFiltered,
	"except":      TokenExcept,
}

// LookupKeyword returns the token type for the given identifier.
// If the identifier is a keyword, returns the keyword token type.
// Otherwise, returns TokenIdent.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return TokenIdent
}

// IsComparisonOp returns true if the token type is a comparison operator.
func (t TokenType) IsComparisonOp() bool {
	switch t {
	case TokenEq, TokenNeq, TokenContains, TokenNotContains:
		return true
	}
	return false
}

// IsKeyword returns true for every reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokenAnd && t <= TokenExcept
}

// IsSelector returns true for tokens naming a candidate set.
func (t TokenType) IsSelector() bool {
	return t >= TokenChildren && t <= TokenRoot
}

// IsTerminal returns true for selectors that end a query with a single node.
func (t TokenType) IsTerminal() bool {
	return t == TokenParent || t == TokenRoot
}
