// Package parser builds ast trees for JavaScript expressions.
//
// Expression grammar (lowest to highest precedence):
//
//	assignment  → arrow | conditional ( assignOp assignment )?
//	conditional → binary ( "?" assignment ":" assignment )?
//	binary      → unary ( binaryOp unary )*        [precedence climbing]
//	unary       → ( "!" | "-" | "+" | "~" | "typeof" | "void" | "delete" | "await" ) unary | callMember
//	callMember  → ( primary | newExpr ) ( "." name | "?." name | "[" expr "]" | "(" args ")" )*
//	primary     → ident | literal | "(" sequence ")" | array | object | function | class
//
// Statements are out of scope: function and class expressions and arrow
// block bodies are kept as raw text. Anything else outside the subset is
// reported with ErrUnexpectedToken.
package parser

import (
	"errors"
	"fmt"

	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
	"github.com/wouteroostervld/decoshrink/pkg/js/lexer"
)

// ErrUnexpectedToken is returned when the input leaves the supported subset
var ErrUnexpectedToken = errors.New("unexpected token")

// Parser reads expressions from source text through a pull-based lexer
type Parser struct {
	source string
	lex    *lexer.Lexer
	buf    []lexer.Token // lookahead, buf[0] is the current token
	last   lexer.Token   // most recently consumed token
}

// New creates a parser that starts at offset in source
func New(source string, offset int) *Parser {
	return &Parser{
		source: source,
		lex:    lexer.New(source, offset),
	}
}

// SawComment reports whether the tokens consumed so far skipped a comment
func (p *Parser) SawComment() bool {
	return p.lex.SawComment()
}

// ParseExpression parses source as a single expression. Trailing input other
// than a semicolon is an error.
func ParseExpression(source string) (ast.Node, error) {
	p := New(source, 0)

	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.matchPunct(";"); err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != lexer.TokenEOF {
		return nil, p.unexpected(tok)
	}

	return expr, nil
}

// ParseCallAt parses the call `name(args...)` that starts at offset. The
// callee must be a plain identifier; parsing stops at the closing
// parenthesis of the argument list.
func ParseCallAt(source string, offset int) (*ast.Call, bool, error) {
	p := New(source, offset)

	tok, err := p.advance()
	if err != nil {
		return nil, false, err
	}
	if tok.Type != lexer.TokenIdent {
		return nil, false, p.unexpected(tok)
	}
	callee := &ast.Ident{Pos: ast.At(span(tok)), Name: tok.Lexeme}

	open, err := p.expectPunct("(")
	if err != nil {
		return nil, false, err
	}
	args, closeTok, err := p.parseArguments()
	if err != nil {
		return nil, false, err
	}

	call := &ast.Call{
		Pos:    ast.At(ast.Span{Start: tok.Start, End: closeTok.End}),
		Callee: callee,
		Args:   args,
		Parens: ast.Span{Start: open.Start, End: closeTok.End},
	}
	return call, p.SawComment(), nil
}

// ParseExpression parses one assignment expression at the current position
func (p *Parser) ParseExpression() (ast.Node, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Node, error) {
	isArrow, err := p.atArrow()
	if err != nil {
		return nil, err
	}
	if isArrow {
		return p.parseArrow()
	}

	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != lexer.TokenPunct || !assignOps[tok.Lexeme] {
		return left, nil
	}
	p.advance() //nolint:errcheck // peeked

	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return binary(tok.Lexeme, left, right), nil
}

func (p *Parser) parseConditional() (ast.Node, error) {
	test, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}

	ok, err := p.acceptPunct("?")
	if err != nil || !ok {
		return test, err
	}

	cons, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	return &ast.Cond{
		Pos:  ast.At(ast.Span{Start: test.Position().Src.Start, End: alt.Position().Src.End}),
		Test: test,
		Cons: cons,
		Alt:  alt,
	}, nil
}

// parseBinary is precedence climbing over binaryPrecedence
func (p *Parser) parseBinary(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		prec := binaryPrecedence(tok)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.advance() //nolint:errcheck // peeked

		next := prec + 1
		if tok.Lexeme == "**" {
			next = prec
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		left = binary(tok.Lexeme, left, right)
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	isUnary := (tok.Type == lexer.TokenPunct && unaryPuncts[tok.Lexeme]) ||
		(tok.Type == lexer.TokenIdent && unaryKeywords[tok.Lexeme])
	if !isUnary {
		if tok.Is("++") || tok.Is("--") {
			return nil, p.unexpected(tok)
		}
		return p.parseCallMember()
	}
	p.advance() //nolint:errcheck // peeked

	arg, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{
		Pos: ast.At(ast.Span{Start: tok.Start, End: arg.Position().Src.End}),
		Op:  tok.Lexeme,
		Arg: arg,
	}, nil
}

func (p *Parser) parseCallMember() (ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	var expr ast.Node
	if tok.Is("new") && tok.Type == lexer.TokenIdent {
		expr, err = p.parseNew()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}

	return p.parseSuffixes(expr, true)
}

// parseSuffixes applies member accesses and, when calls is set, calls to expr
func (p *Parser) parseSuffixes(expr ast.Node, calls bool) (ast.Node, error) {
	start := expr.Position().Src.Start

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		switch {
		case tok.Is("."):
			p.advance() //nolint:errcheck // peeked
			name, err := p.advance()
			if err != nil {
				return nil, err
			}
			if name.Type != lexer.TokenIdent {
				return nil, p.unexpected(name)
			}
			expr = &ast.Member{
				Pos:    ast.At(ast.Span{Start: start, End: name.End}),
				Object: expr,
				Name:   name.Lexeme,
			}

		case tok.Is("?."):
			p.advance() //nolint:errcheck // peeked
			name, err := p.advance()
			if err != nil {
				return nil, err
			}
			// optional calls and optional computed access are not needed
			if name.Type != lexer.TokenIdent {
				return nil, p.unexpected(name)
			}
			expr = &ast.Member{
				Pos:      ast.At(ast.Span{Start: start, End: name.End}),
				Object:   expr,
				Name:     name.Lexeme,
				Optional: true,
			}

		case tok.Is("["):
			p.advance() //nolint:errcheck // peeked
			prop, err := p.parseSequence()
			if err != nil {
				return nil, err
			}
			closeTok, err := p.expectPunct("]")
			if err != nil {
				return nil, err
			}
			expr = &ast.Member{
				Pos:      ast.At(ast.Span{Start: start, End: closeTok.End}),
				Object:   expr,
				Property: prop,
				Computed: true,
			}

		case tok.Is("(") && calls:
			open, _ := p.advance()
			args, closeTok, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{
				Pos:    ast.At(ast.Span{Start: start, End: closeTok.End}),
				Callee: expr,
				Args:   args,
				Parens: ast.Span{Start: open.Start, End: closeTok.End},
			}

		case tok.Type == lexer.TokenTemplate && !tok.NewlineBefore:
			// tagged templates
			return nil, p.unexpected(tok)

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseNew() (ast.Node, error) {
	newTok, _ := p.advance()

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Is(".") {
		// new.target
		return nil, p.unexpected(tok)
	}

	var callee ast.Node
	if tok.Is("new") && tok.Type == lexer.TokenIdent {
		callee, err = p.parseNew()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	if callee, err = p.parseSuffixes(callee, false); err != nil {
		return nil, err
	}

	expr := &ast.New{
		Pos:    ast.At(ast.Span{Start: newTok.Start, End: callee.Position().Src.End}),
		Callee: callee,
		Parens: ast.NoSpan,
	}

	ok, err := p.acceptPunct("(")
	if err != nil {
		return nil, err
	}
	if ok {
		open := p.last
		args, closeTok, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		expr.Args = args
		expr.HasArgs = true
		expr.Parens = ast.Span{Start: open.Start, End: closeTok.End}
		expr.Src.End = closeTok.End
		expr.Slot = expr.Src
	}

	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	pos := ast.At(span(tok))

	switch tok.Type {
	case lexer.TokenNumber:
		return &ast.Literal{Pos: pos, Kind: ast.LiteralNumber, Raw: tok.Lexeme}, nil
	case lexer.TokenString:
		return &ast.String{Pos: pos, Value: unquote(tok.Lexeme), Raw: tok.Lexeme}, nil
	case lexer.TokenTemplate:
		return &ast.Literal{Pos: pos, Kind: ast.LiteralTemplate, Raw: tok.Lexeme}, nil
	case lexer.TokenRegex:
		return &ast.Literal{Pos: pos, Kind: ast.LiteralRegex, Raw: tok.Lexeme}, nil
	case lexer.TokenIdent:
		return p.parseWord(tok)
	case lexer.TokenPunct:
		switch tok.Lexeme {
		case "(":
			return p.parseParen(tok)
		case "[":
			return p.parseArray(tok)
		case "{":
			return p.parseObject(tok)
		}
	}

	return nil, p.unexpected(tok)
}

func (p *Parser) parseWord(tok lexer.Token) (ast.Node, error) {
	pos := ast.At(span(tok))

	switch tok.Lexeme {
	case "true", "false":
		return &ast.Literal{Pos: pos, Kind: ast.LiteralBool, Raw: tok.Lexeme}, nil
	case "null":
		return &ast.Literal{Pos: pos, Kind: ast.LiteralNull, Raw: tok.Lexeme}, nil
	case "this", "super":
		return &ast.Literal{Pos: pos, Kind: ast.LiteralThis, Raw: tok.Lexeme}, nil
	case "function", "class":
		return p.parseRawFunction(tok)
	case "async":
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Is("function") && !next.NewlineBefore {
			p.advance() //nolint:errcheck // peeked
			fn, err := p.parseRawFunction(next)
			if err != nil {
				return nil, err
			}
			fn.Position().Src.Start = tok.Start
			fn.Position().Slot = fn.Position().Src
			fn.(*ast.Func).Raw = p.source[tok.Start:fn.Position().Src.End]
			return fn, nil
		}
	}

	if reserved[tok.Lexeme] {
		return nil, p.unexpected(tok)
	}
	return &ast.Ident{Pos: pos, Name: tok.Lexeme}, nil
}

func (p *Parser) parseParen(open lexer.Token) (ast.Node, error) {
	inner, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	closeTok, err := p.expectPunct(")")
	if err != nil {
		return nil, err
	}
	return &ast.Paren{
		Pos:   ast.At(ast.Span{Start: open.Start, End: closeTok.End}),
		Inner: inner,
	}, nil
}

// parseSequence parses a comma expression, returning the single expression
// when there is no comma
func (p *Parser) parseSequence() (ast.Node, error) {
	first, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	exprs := []ast.Node{first}
	for {
		ok, err := p.acceptPunct(",")
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
	}

	if len(exprs) == 1 {
		return first, nil
	}
	return &ast.Seq{
		Pos:   ast.At(ast.Span{Start: first.Position().Src.Start, End: exprs[len(exprs)-1].Position().Src.End}),
		Exprs: exprs,
	}, nil
}

// parseArguments parses the list after an opening parenthesis up to and
// including the closing one
func (p *Parser) parseArguments() ([]ast.Node, lexer.Token, error) {
	return p.parseList(")")
}

func (p *Parser) parseArray(open lexer.Token) (ast.Node, error) {
	elems, closeTok, err := p.parseList("]")
	if err != nil {
		return nil, err
	}
	return &ast.Array{
		Pos:   ast.At(ast.Span{Start: open.Start, End: closeTok.End}),
		Elems: elems,
	}, nil
}

// parseList parses comma-separated elements, spreads allowed and a trailing
// comma tolerated, up to the closing punctuator. Holes are not supported.
func (p *Parser) parseList(closer string) ([]ast.Node, lexer.Token, error) {
	items := []ast.Node{}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, lexer.Token{}, err
		}
		if tok.Is(closer) {
			p.advance() //nolint:errcheck // peeked
			return items, tok, nil
		}
		if tok.Is(",") {
			return nil, lexer.Token{}, p.unexpected(tok)
		}

		item, err := p.parseListItem()
		if err != nil {
			return nil, lexer.Token{}, err
		}
		items = append(items, item)

		next, err := p.advance()
		if err != nil {
			return nil, lexer.Token{}, err
		}
		switch {
		case next.Is(closer):
			return items, next, nil
		case next.Is(","):
		default:
			return nil, lexer.Token{}, p.unexpected(next)
		}
	}
}

func (p *Parser) parseListItem() (ast.Node, error) {
	ok, err := p.acceptPunct("...")
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.parseAssignment()
	}

	start := p.last.Start
	arg, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Spread{
		Pos: ast.At(ast.Span{Start: start, End: arg.Position().Src.End}),
		Arg: arg,
	}, nil
}

func (p *Parser) parseObject(open lexer.Token) (ast.Node, error) {
	obj := &ast.Object{Props: []ast.Node{}}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Is("}") {
			p.advance() //nolint:errcheck // peeked
			obj.Pos = ast.At(ast.Span{Start: open.Start, End: tok.End})
			return obj, nil
		}

		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, prop)

		next, err := p.advance()
		if err != nil {
			return nil, err
		}
		switch {
		case next.Is("}"):
			obj.Pos = ast.At(ast.Span{Start: open.Start, End: next.End})
			return obj, nil
		case next.Is(","):
		default:
			return nil, p.unexpected(next)
		}
	}
}

func (p *Parser) parseProperty() (ast.Node, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}

	if tok.Is("...") {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.Spread{
			Pos: ast.At(ast.Span{Start: tok.Start, End: arg.Position().Src.End}),
			Arg: arg,
		}, nil
	}

	var key ast.Node
	computed := false
	switch tok.Type {
	case lexer.TokenIdent:
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		// get/set/async accessors and methods
		if (tok.Lexeme == "get" || tok.Lexeme == "set" || tok.Lexeme == "async") &&
			!next.Is(":") && !next.Is(",") && !next.Is("}") && !next.Is("(") {
			return nil, p.unexpected(next)
		}
		key = &ast.Ident{Pos: ast.At(span(tok)), Name: tok.Lexeme}
	case lexer.TokenString:
		key = &ast.String{Pos: ast.At(span(tok)), Value: unquote(tok.Lexeme), Raw: tok.Lexeme}
	case lexer.TokenNumber:
		key = &ast.Literal{Pos: ast.At(span(tok)), Kind: ast.LiteralNumber, Raw: tok.Lexeme}
	case lexer.TokenPunct:
		if !tok.Is("[") {
			return nil, p.unexpected(tok)
		}
		if key, err = p.parseAssignment(); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		computed = true
	default:
		return nil, p.unexpected(tok)
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case next.Is(":"):
		p.advance() //nolint:errcheck // peeked
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.Property{
			Pos:      ast.At(ast.Span{Start: tok.Start, End: value.Position().Src.End}),
			Key:      key,
			Value:    value,
			Computed: computed,
		}, nil

	case (next.Is(",") || next.Is("}")) && tok.Type == lexer.TokenIdent:
		return &ast.Property{Pos: ast.At(span(tok)), Key: key}, nil
	}

	// methods and `key = default` patterns
	return nil, p.unexpected(next)
}

// parseRawFunction consumes a function or class expression starting at kw
// without interpreting its body
func (p *Parser) parseRawFunction(kw lexer.Token) (ast.Node, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == lexer.TokenEOF {
			return nil, p.unexpected(tok)
		}
		if tok.Is("{") {
			break
		}
		if tok.Is("(") {
			p.advance() //nolint:errcheck // peeked
			if _, err := p.skipBalanced(tok); err != nil {
				return nil, err
			}
			continue
		}
		p.advance() //nolint:errcheck // peeked
	}

	open, _ := p.advance()
	closeTok, err := p.skipBalanced(open)
	if err != nil {
		return nil, err
	}

	s := ast.Span{Start: kw.Start, End: closeTok.End}
	return &ast.Func{Pos: ast.At(s), Raw: p.source[s.Start:s.End]}, nil
}

// skipBalanced consumes tokens up to the punctuator that closes open
func (p *Parser) skipBalanced(open lexer.Token) (lexer.Token, error) {
	depth := 1
	for {
		tok, err := p.advance()
		if err != nil {
			return lexer.Token{}, err
		}
		switch {
		case tok.Type == lexer.TokenEOF:
			return lexer.Token{}, p.unexpected(tok)
		case tok.Is("(") || tok.Is("[") || tok.Is("{"):
			depth++
		case tok.Is(")") || tok.Is("]") || tok.Is("}"):
			depth--
			if depth == 0 {
				if tok.Lexeme != closerOf[open.Lexeme] {
					return lexer.Token{}, p.unexpected(tok)
				}
				return tok, nil
			}
		}
	}
}

func binary(op string, left, right ast.Node) ast.Node {
	return &ast.Binary{
		Pos:   ast.At(ast.Span{Start: left.Position().Src.Start, End: right.Position().Src.End}),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func span(tok lexer.Token) ast.Span {
	return ast.Span{Start: tok.Start, End: tok.End}
}

// token plumbing

func (p *Parser) fill(n int) error {
	for len(p.buf) <= n {
		tok, err := p.lex.Next()
		if err != nil {
			return fmt.Errorf("lex: %w", err)
		}
		p.buf = append(p.buf, tok)
	}
	return nil
}

func (p *Parser) peekAt(n int) (lexer.Token, error) {
	if err := p.fill(n); err != nil {
		return lexer.Token{}, err
	}
	return p.buf[n], nil
}

func (p *Parser) peek() (lexer.Token, error) {
	return p.peekAt(0)
}

func (p *Parser) advance() (lexer.Token, error) {
	tok, err := p.peek()
	if err != nil {
		return lexer.Token{}, err
	}
	if tok.Type != lexer.TokenEOF {
		p.buf = p.buf[1:]
	}
	p.last = tok
	return tok, nil
}

// acceptPunct consumes the punctuator if it is next
func (p *Parser) acceptPunct(lexeme string) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.Type != lexer.TokenPunct || tok.Lexeme != lexeme {
		return false, nil
	}
	p.advance() //nolint:errcheck // peeked
	return true, nil
}

// matchPunct is acceptPunct when the caller does not care whether it matched
func (p *Parser) matchPunct(lexeme string) error {
	_, err := p.acceptPunct(lexeme)
	return err
}

func (p *Parser) expectPunct(lexeme string) (lexer.Token, error) {
	tok, err := p.advance()
	if err != nil {
		return lexer.Token{}, err
	}
	if tok.Type != lexer.TokenPunct || tok.Lexeme != lexeme {
		return lexer.Token{}, fmt.Errorf("%w: expected %q, got %s", ErrUnexpectedToken, lexeme, tok)
	}
	return tok, nil
}

func (p *Parser) unexpected(tok lexer.Token) error {
	return fmt.Errorf("%w: %s", ErrUnexpectedToken, tok)
}
