// Package lexer tokenizes the JavaScript expression subset found in
// compiled decorator applications.
//
// The lexer is pull-based: Next returns one token at a time starting at a
// given offset, so callers can lex a single expression out of a large file
// without tokenizing the rest of it.
package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnterminated is returned for a string, template, regex or comment that
// runs into the end of the input
var ErrUnterminated = errors.New("unterminated literal")

// ErrUnexpectedChar is returned for a character no token can start with
var ErrUnexpectedChar = errors.New("unexpected character")

// punctuators, longest first so that the first prefix match wins
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@", "#",
}

// keywords after which a slash starts a regular expression
var regexAfterKeyword = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// Lexer produces tokens from source text.
//
// Thread Safety: a Lexer is not safe for concurrent use.
type Lexer struct {
	source     string
	current    int
	prev       *Token
	sawComment bool
	sawNewline bool
}

// New creates a lexer that starts reading source at offset
func New(source string, offset int) *Lexer {
	return &Lexer{source: source, current: offset}
}

// Offset returns the position of the next unread byte
func (l *Lexer) Offset() int {
	return l.current
}

// SawComment reports whether any comment was skipped so far
func (l *Lexer) SawComment() bool {
	return l.sawComment
}

// Tokenize lexes the whole of source
func Tokenize(source string) ([]Token, error) {
	l := New(source, 0)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. At the end of the input it returns a
// TokenEOF token, repeatedly.
func (l *Lexer) Next() (Token, error) {
	l.sawNewline = false
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}

	start := l.current
	if l.isAtEnd() {
		return l.emit(TokenEOF, start), nil
	}

	c := l.source[l.current]
	switch {
	case c == '"' || c == '\'':
		if err := l.scanString(c); err != nil {
			return Token{}, err
		}
		return l.emit(TokenString, start), nil
	case c == '`':
		if err := l.scanTemplate(); err != nil {
			return Token{}, err
		}
		return l.emit(TokenTemplate, start), nil
	case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
		l.scanNumber()
		return l.emit(TokenNumber, start), nil
	case c == '/' && l.regexAllowed():
		if err := l.scanRegex(); err != nil {
			return Token{}, err
		}
		return l.emit(TokenRegex, start), nil
	}

	if r, size := utf8.DecodeRuneInString(l.source[l.current:]); isIdentStart(r) {
		l.current += size
		l.scanIdentRest()
		return l.emit(TokenIdent, start), nil
	}

	for _, p := range punctuators {
		if !strings.HasPrefix(l.source[l.current:], p) {
			continue
		}
		// `a?.5:b` is a conditional, not optional chaining
		if p == "?." && isDigit(l.peekAt(2)) {
			continue
		}
		l.current += len(p)
		return l.emit(TokenPunct, start), nil
	}

	return Token{}, fmt.Errorf("%w %q at offset %d", ErrUnexpectedChar, c, start)
}

func (l *Lexer) emit(typ TokenType, start int) Token {
	tok := Token{
		Type:          typ,
		Lexeme:        l.source[start:l.current],
		Start:         start,
		End:           l.current,
		NewlineBefore: l.sawNewline,
	}
	l.prev = &tok
	return tok
}

// skipTrivia skips whitespace and comments
func (l *Lexer) skipTrivia() error {
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch {
		case c == '\n':
			l.sawNewline = true
			l.current++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			l.current++
		case c == '/' && l.peekAt(1) == '/':
			l.sawComment = true
			for !l.isAtEnd() && l.source[l.current] != '\n' {
				l.current++
			}
		case c == '/' && l.peekAt(1) == '*':
			l.sawComment = true
			end := strings.Index(l.source[l.current+2:], "*/")
			if end < 0 {
				return fmt.Errorf("%w comment at offset %d", ErrUnterminated, l.current)
			}
			if strings.Contains(l.source[l.current:l.current+2+end], "\n") {
				l.sawNewline = true
			}
			l.current += 2 + end + 2
		default:
			r, size := utf8.DecodeRuneInString(l.source[l.current:])
			if r == '\u00a0' || r == '\ufeff' || r == '\u2028' || r == '\u2029' {
				l.current += size
				continue
			}
			return nil
		}
	}
	return nil
}

// regexAllowed decides whether a slash at the current position starts a
// regular expression, from the token before it
func (l *Lexer) regexAllowed() bool {
	if l.prev == nil {
		return true
	}
	switch l.prev.Type {
	case TokenNumber, TokenString, TokenTemplate, TokenRegex:
		return false
	case TokenIdent:
		return regexAfterKeyword[l.prev.Lexeme]
	case TokenPunct:
		switch l.prev.Lexeme {
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	}
	return true
}

func (l *Lexer) scanString(quote byte) error {
	start := l.current
	l.current++
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch c {
		case '\\':
			l.current += 2
			continue
		case quote:
			l.current++
			return nil
		case '\n':
			return fmt.Errorf("%w string at offset %d", ErrUnterminated, start)
		}
		l.current++
	}
	return fmt.Errorf("%w string at offset %d", ErrUnterminated, start)
}

// scanTemplate consumes a template literal, substitutions included
func (l *Lexer) scanTemplate() error {
	start := l.current
	l.current++
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch {
		case c == '\\':
			l.current += 2
			continue
		case c == '`':
			l.current++
			return nil
		case c == '$' && l.peekAt(1) == '{':
			l.current += 2
			if err := l.skipSubstitution(); err != nil {
				return err
			}
			continue
		}
		l.current++
	}
	return fmt.Errorf("%w template at offset %d", ErrUnterminated, start)
}

// skipSubstitution consumes the code of a `${...}` up to its closing brace
func (l *Lexer) skipSubstitution() error {
	start := l.current
	depth := 1
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch {
		case c == '"' || c == '\'':
			if err := l.scanString(c); err != nil {
				return err
			}
			continue
		case c == '`':
			if err := l.scanTemplate(); err != nil {
				return err
			}
			continue
		case c == '/' && (l.peekAt(1) == '/' || l.peekAt(1) == '*'):
			if err := l.skipTrivia(); err != nil {
				return err
			}
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				l.current++
				return nil
			}
		}
		l.current++
	}
	return fmt.Errorf("%w template substitution at offset %d", ErrUnterminated, start)
}

func (l *Lexer) scanNumber() {
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch {
		case isDigit(c) || isLetter(c) || c == '_' || c == '.':
			l.current++
		case (c == '+' || c == '-') && l.current > 0 && (l.source[l.current-1] == 'e' || l.source[l.current-1] == 'E') && !l.isHexPrefixed():
			l.current++
		default:
			return
		}
	}
}

func (l *Lexer) isHexPrefixed() bool {
	// walk back to the start of the current number
	i := l.current - 1
	for i > 0 && (isDigit(l.source[i-1]) || isLetter(l.source[i-1]) || l.source[i-1] == '_' || l.source[i-1] == '.') {
		i--
	}
	return strings.HasPrefix(l.source[i:], "0x") || strings.HasPrefix(l.source[i:], "0X")
}

func (l *Lexer) scanRegex() error {
	start := l.current
	l.current++
	inClass := false
	for !l.isAtEnd() {
		c := l.source[l.current]
		switch {
		case c == '\\':
			l.current += 2
			continue
		case c == '\n':
			return fmt.Errorf("%w regex at offset %d", ErrUnterminated, start)
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			l.current++
			for !l.isAtEnd() && isLetter(l.source[l.current]) {
				l.current++
			}
			return nil
		}
		l.current++
	}
	return fmt.Errorf("%w regex at offset %d", ErrUnterminated, start)
}

func (l *Lexer) scanIdentRest() {
	for !l.isAtEnd() {
		r, size := utf8.DecodeRuneInString(l.source[l.current:])
		if !isIdentPart(r) {
			return
		}
		l.current += size
	}
}

func (l *Lexer) peekAt(n int) byte {
	if l.current+n >= len(l.source) {
		return 0
	}
	return l.source[l.current+n]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '\u200c' || r == '\u200d'
}
