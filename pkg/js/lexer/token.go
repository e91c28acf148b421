package lexer

import "fmt"

// TokenType classifies a token
type TokenType int

const (
	// TokenEOF marks the end of the input
	TokenEOF TokenType = iota
	// TokenIdent is an identifier or keyword. Keywords are told apart by
	// the parser from the lexeme.
	TokenIdent
	TokenNumber
	TokenString
	// TokenTemplate is a whole template literal, substitutions included
	TokenTemplate
	TokenRegex
	// TokenPunct is an operator or punctuator
	TokenPunct
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenIdent:    "IDENT",
	TokenNumber:   "NUMBER",
	TokenString:   "STRING",
	TokenTemplate: "TEMPLATE",
	TokenRegex:    "REGEX",
	TokenPunct:    "PUNCT",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexeme with its byte offsets in the source
type Token struct {
	Type   TokenType
	Lexeme string
	Start  int
	End    int
	// NewlineBefore is set when a line break separates the token from the
	// previous one
	NewlineBefore bool
}

// Is reports whether the token is the punctuator or identifier lexeme
func (t Token) Is(lexeme string) bool {
	return (t.Type == TokenPunct || t.Type == TokenIdent) && t.Lexeme == lexeme
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Lexeme, t.Start)
}
