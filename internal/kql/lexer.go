package kql

// Lexer tokenizes query input.
type Lexer struct {
	input string
	pos   int  // current position in input
	ch    byte // current character under examination
}

// NewLexer creates a new lexer for the input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos - 1}

	switch l.ch {
	case '(':
		tok.Type = TokenLParen
		tok.Literal = "("
	case ')':
		tok.Type = TokenRParen
		tok.Literal = ")"
	case ',':
		tok.Type = TokenComma
		tok.Literal = ","
	case '=':
		tok.Type = TokenEq
		tok.Literal = "="
	case '~':
		tok.Type = TokenContains
		tok.Literal = "~"
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type = TokenNeq
			tok.Literal = "!="
		case '~':
			l.readChar()
			tok.Type = TokenNotContains
			tok.Literal = "!~"
		default:
			tok.Type = TokenIllegal
			tok.Literal = string(l.ch)
		}
	case '"', '\'':
		tok.Type = TokenString
		tok.Literal = l.readString(l.ch)
		return tok
	case 0:
		tok.Type = TokenEOF
		tok.Literal = ""
		return tok
	default:
		if isWordChar(l.ch) {
			tok.Literal = l.readWord()
			tok.Type = LookupKeyword(tok.Literal)
			return tok
		}
		tok.Type = TokenIllegal
		tok.Literal = string(l.ch)
	}

	l.readChar()
	return tok
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
	l.pos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readWord reads an identifier or bare value: letters, digits and _ - . / :
func (l *Lexer) readWord() string {
	start := l.pos - 1
	for isWordChar(l.ch) {
		l.readChar()
	}
	return l.input[start : l.pos-1]
}

// readString reads a quoted string (supports both " and ').
func (l *Lexer) readString(quote byte) string {
	l.readChar() // skip opening quote
	start := l.pos - 1
	for l.ch != quote && l.ch != 0 {
		l.readChar()
	}
	str := l.input[start : l.pos-1]
	if l.ch == quote {
		l.readChar() // skip closing quote
	}
	return str
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '-' || c == '.' || c == '/' || c == ':' || c >= 0x80
}
