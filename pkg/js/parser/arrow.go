package parser

import (
	"strings"

	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
	"github.com/wouteroostervld/decoshrink/pkg/js/lexer"
)

// atArrow looks ahead for `x =>`, `(...) =>`, `async x =>` or
// `async (...) =>` without consuming anything
func (p *Parser) atArrow() (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}

	i := 0
	if tok.Type == lexer.TokenIdent && tok.Lexeme == "async" {
		next, err := p.peekAt(1)
		if err != nil {
			return false, err
		}
		if !next.NewlineBefore && ((next.Type == lexer.TokenIdent && !reserved[next.Lexeme] && next.Lexeme != "function") || next.Is("(")) {
			i = 1
		}
	}

	tok, err = p.peekAt(i)
	if err != nil {
		return false, err
	}

	switch {
	case tok.Type == lexer.TokenIdent && !reserved[tok.Lexeme]:
		next, err := p.peekAt(i + 1)
		if err != nil {
			return false, err
		}
		return next.Is("=>"), nil

	case tok.Is("("):
		closeAt, err := p.lookaheadClose(i)
		if err != nil || closeAt < 0 {
			return false, err
		}
		next, err := p.peekAt(closeAt + 1)
		if err != nil {
			return false, err
		}
		return next.Is("=>"), nil
	}

	return false, nil
}

// lookaheadClose returns the lookahead index of the punctuator closing the
// one at index i, or -1 when the input ends first
func (p *Parser) lookaheadClose(i int) (int, error) {
	depth := 0
	for j := i; ; j++ {
		tok, err := p.peekAt(j)
		if err != nil {
			return -1, err
		}
		switch {
		case tok.Type == lexer.TokenEOF:
			return -1, nil
		case tok.Is("(") || tok.Is("[") || tok.Is("{"):
			depth++
		case tok.Is(")") || tok.Is("]") || tok.Is("}"):
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
}

func (p *Parser) parseArrow() (ast.Node, error) {
	first, err := p.advance()
	if err != nil {
		return nil, err
	}
	start := first.Start

	async := false
	if first.Type == lexer.TokenIdent && first.Lexeme == "async" {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !next.Is("=>") {
			async = true
			if first, err = p.advance(); err != nil {
				return nil, err
			}
		}
	}

	arrow := &ast.Arrow{Async: async}
	if first.Is("(") {
		closeTok, count, err := p.skipParams(first)
		if err != nil {
			return nil, err
		}
		arrow.Params = strings.TrimSpace(p.source[first.End:closeTok.Start])
		arrow.ParamCount = count
	} else {
		arrow.Params = first.Lexeme
		arrow.ParamCount = 1
	}

	if _, err := p.expectPunct("=>"); err != nil {
		return nil, err
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}

	end := 0
	if next.Is("{") {
		p.advance() //nolint:errcheck // peeked
		closeTok, err := p.skipBalanced(next)
		if err != nil {
			return nil, err
		}
		arrow.Block = p.source[next.Start:closeTok.End]
		end = closeTok.End
	} else {
		body, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		arrow.Body = body
		end = body.Position().Src.End
	}

	arrow.Pos = ast.At(ast.Span{Start: start, End: end})
	return arrow, nil
}

// skipParams consumes a parenthesized parameter list and counts its
// top-level entries
func (p *Parser) skipParams(open lexer.Token) (lexer.Token, int, error) {
	depth := 1
	count := 0
	pending := false
	for {
		tok, err := p.advance()
		if err != nil {
			return lexer.Token{}, 0, err
		}
		switch {
		case tok.Type == lexer.TokenEOF:
			return lexer.Token{}, 0, p.unexpected(tok)
		case tok.Is("(") || tok.Is("[") || tok.Is("{"):
			depth++
		case tok.Is(")") || tok.Is("]") || tok.Is("}"):
			depth--
			if depth == 0 {
				if tok.Lexeme != closerOf[open.Lexeme] {
					return lexer.Token{}, 0, p.unexpected(tok)
				}
				if pending {
					count++
				}
				return tok, count, nil
			}
		case depth == 1 && tok.Is(","):
			if pending {
				count++
			}
			pending = false
			continue
		}
		pending = true
	}
}
