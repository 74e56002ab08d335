package kql

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/kinship/internal/ui/styles"
)

// Token highlight styles.
var (
	KeywordStyle  = lipgloss.NewStyle().Foreground(styles.KQLKeywordColor).Bold(true)
	SelectorStyle = lipgloss.NewStyle().Foreground(styles.KQLSelectorColor)
	OperatorStyle = lipgloss.NewStyle().Foreground(styles.KQLOperatorColor)
	FieldStyle    = lipgloss.NewStyle().Foreground(styles.KQLFieldColor)
	StringStyle   = lipgloss.NewStyle().Foreground(styles.KQLStringColor)
	ParenStyle    = lipgloss.NewStyle().Foreground(styles.KQLParenColor).Bold(true)
	CommaStyle    = lipgloss.NewStyle().Foreground(styles.KQLCommaColor)
	IllegalStyle  = lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Underline(true)
)

// Highlight applies syntax highlighting to a query string. Whitespace is
// preserved, so stripping the escape codes returns the input unchanged.
// Partial queries are highlighted as far as they lex.
func Highlight(query string) string {
	if query == "" {
		return ""
	}

	lexer := NewLexer(query)
	var out strings.Builder
	last := 0
	afterOperator := false
	inValueList := false
	prev := TokenEOF

	for {
		tok := lexer.NextToken()
		if tok.Type == TokenEOF {
			break
		}

		if tok.Pos > last {
			out.WriteString(query[last:tok.Pos])
		}

		// Strings lose their quotes in the literal, so render the source span.
		text := tok.Literal
		if tok.Type == TokenString {
			end := min(tok.Pos+len(tok.Literal)+2, len(query))
			text = query[tok.Pos:end]
		}

		switch {
		case tok.Type == TokenLParen && prev == TokenIn:
			inValueList = true
		case tok.Type == TokenRParen:
			inValueList = false
		}

		var style lipgloss.Style
		switch {
		case (afterOperator || inValueList) && tok.Type != TokenString && tok.Type != TokenComma && tok.Type != TokenLParen:
			// Values render plain, even when they spell a keyword.
			style = lipgloss.NewStyle()
			afterOperator = false
		default:
			style = tokenStyle(tok.Type)
		}
		if tok.Type.IsComparisonOp() {
			afterOperator = true
		} else if tok.Type == TokenString {
			afterOperator = false
		}

		out.WriteString(style.Render(text))
		last = tok.Pos + len(text)
		prev = tok.Type
	}

	if last < len(query) {
		out.WriteString(query[last:])
	}
	return out.String()
}

func tokenStyle(t TokenType) lipgloss.Style {
	switch {
	case t.IsSelector(), t == TokenFiltered, t == TokenExcept:
		return SelectorStyle
	case t.IsKeyword():
		return KeywordStyle
	case t.IsComparisonOp():
		return OperatorStyle
	}

	switch t {
	case TokenLParen, TokenRParen:
		return ParenStyle
	case TokenComma:
		return CommaStyle
	case TokenString:
		return StringStyle
	case TokenIdent:
		return FieldStyle
	case TokenIllegal:
		return IllegalStyle
	}
	return lipgloss.NewStyle()
}
