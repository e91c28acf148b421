package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wouteroostervld/decoshrink/pkg/js/lexer"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true,
	"^=": true, "&&=": true, "||=": true, "??=": true,
}

var unaryPuncts = map[string]bool{"!": true, "-": true, "+": true, "~": true}

var unaryKeywords = map[string]bool{"typeof": true, "void": true, "delete": true, "await": true}

// reserved words that can never be an identifier reference
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true,
	"export": true, "extends": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true,
	"return": true, "switch": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "class": true,
	"enum": true,
}

var closerOf = map[string]string{"(": ")", "[": "]", "{": "}"}

var punctPrecedence = map[string]int{
	"||": 1, "??": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "===": 6, "!==": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

// binaryPrecedence returns 0 for tokens that are not binary operators
func binaryPrecedence(tok lexer.Token) int {
	switch tok.Type {
	case lexer.TokenPunct:
		return punctPrecedence[tok.Lexeme]
	case lexer.TokenIdent:
		if tok.Lexeme == "instanceof" || tok.Lexeme == "in" {
			return 7
		}
	}
	return 0
}

// unquote decodes the content of a quoted string literal
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}

		i++
		switch esc := body[i]; esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if r, ok := hexRune(body, i+1, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(esc)
			}
		case 'u':
			if i+1 < len(body) && body[i+1] == '{' {
				if end := strings.IndexByte(body[i:], '}'); end > 0 {
					if r, ok := hexRune(body, i+2, end-2); ok {
						b.WriteRune(r)
						i += end
						continue
					}
				}
				b.WriteByte(esc)
			} else if r, ok := hexRune(body, i+1, 4); ok {
				b.WriteRune(r)
				i += 4
			} else {
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(esc)
		}
	}
	return b.String()
}

func hexRune(s string, start, n int) (rune, bool) {
	if n <= 0 || start+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+n], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}
