// Package ast defines the expression tree used by the decorator rewriter.
//
// The tree covers the JavaScript expression subset that appears inside
// compiler-emitted decorator applications. Nodes that came from source keep
// two spans: Src, the text of the node itself, and Slot, the place it occupies
// in its parent. The two are equal right after parsing; replacing a node keeps
// the old Slot so the printer can splice the new text in place.
package ast

// Span is a half-open byte range [Start, End) into the parsed source
type Span struct {
	Start int
	End   int
}

// NoSpan marks a node that was built in memory rather than parsed
var NoSpan = Span{Start: -1, End: -1}

// Valid reports whether the span points into source text
func (s Span) Valid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	if !s.Valid() {
		return 0
	}
	return s.End - s.Start
}

// Pos carries the spans of a node
type Pos struct {
	Src  Span
	Slot Span
}

// Position returns the node's spans. Every node embeds Pos, which makes
// Position the one method of the Node interface.
func (p *Pos) Position() *Pos {
	return p
}

// Node is any element of the tree
type Node interface {
	Position() *Pos
}

func synthetic() Pos {
	return Pos{Src: NoSpan, Slot: NoSpan}
}

// At returns a Pos whose Src and Slot both cover span
func At(span Span) Pos {
	return Pos{Src: span, Slot: span}
}

// Replace puts repl in the slot old occupied and returns repl
func Replace(old, repl Node) Node {
	repl.Position().Slot = old.Position().Slot
	return repl
}

// Ident is an identifier reference
type Ident struct {
	Pos
	Name string
}

// NewIdent builds an identifier that has no source text
func NewIdent(name string) *Ident {
	return &Ident{Pos: synthetic(), Name: name}
}

// LiteralKind distinguishes the opaque literal forms
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralBool
	LiteralNull
	LiteralThis
	LiteralRegex
	LiteralTemplate
)

// Literal is a literal the rewriter never looks inside. Raw is its source text.
type Literal struct {
	Pos
	Kind LiteralKind
	Raw  string
}

// String is a quoted string literal. Value is the decoded content.
type String struct {
	Pos
	Value string
	Raw   string
}

// NewString builds a double-quoted string literal that has no source text
func NewString(value string) *String {
	return &String{Pos: synthetic(), Value: value, Raw: quote(value)}
}

// Member is `Object.Name`, `Object?.Name` or, when Computed, `Object[Property]`
type Member struct {
	Pos
	Object   Node
	Name     string
	Property Node
	Computed bool
	Optional bool
}

// NewMember builds a non-computed member access that has no source text
func NewMember(object Node, name string) *Member {
	return &Member{Pos: synthetic(), Object: object, Name: name}
}

// Call is `Callee(Args...)`. Parens covers the argument list including both
// parentheses.
type Call struct {
	Pos
	Callee Node
	Args   []Node
	Parens Span
}

// NewCall builds a call that has no source text
func NewCall(callee Node, args ...Node) *Call {
	return &Call{Pos: synthetic(), Callee: callee, Args: args, Parens: NoSpan}
}

// New is `new Callee(Args...)`. HasArgs is false for `new Callee`.
type New struct {
	Pos
	Callee  Node
	Args    []Node
	HasArgs bool
	Parens  Span
}

// Array is an array literal
type Array struct {
	Pos
	Elems []Node
}

// NewArray builds an array literal that has no source text
func NewArray(elems ...Node) *Array {
	return &Array{Pos: synthetic(), Elems: elems}
}

// Object is an object literal. Props holds *Property and *Spread nodes.
type Object struct {
	Pos
	Props []Node
}

// NewObject builds an object literal that has no source text
func NewObject(props ...Node) *Object {
	return &Object{Pos: synthetic(), Props: props}
}

// Property is one `key: value` entry of an object literal. Key is an *Ident,
// *String or *Literal, or any expression when Computed. A shorthand `{ key }`
// has a nil Value.
type Property struct {
	Pos
	Key      Node
	Value    Node
	Computed bool
}

// NewProperty builds a key-value property that has no source text
func NewProperty(key, value Node) *Property {
	return &Property{Pos: synthetic(), Key: key, Value: value}
}

// Shorthand reports whether the property is written `{ key }`
func (p *Property) Shorthand() bool {
	return p.Value == nil
}

// Arrow is an arrow function. Params is the raw parameter text without the
// surrounding parentheses and ParamCount the number of parameters. An
// expression body is parsed into Body; a block body is kept verbatim in Block.
type Arrow struct {
	Pos
	Async      bool
	Params     string
	ParamCount int
	Body       Node
	Block      string
}

// NewArrow builds a parameterless expression-bodied arrow that has no source text
func NewArrow(body Node) *Arrow {
	return &Arrow{Pos: synthetic(), Body: body}
}

// Func is a function or class expression kept verbatim
type Func struct {
	Pos
	Raw string
}

// Cond is `Test ? Cons : Alt`
type Cond struct {
	Pos
	Test Node
	Cons Node
	Alt  Node
}

// NewCond builds a conditional that has no source text
func NewCond(test, cons, alt Node) *Cond {
	return &Cond{Pos: synthetic(), Test: test, Cons: cons, Alt: alt}
}

// Unary is a prefix operator application: `!`, `-`, `+`, `~`, `typeof`,
// `void`, `delete` or `await`
type Unary struct {
	Pos
	Op  string
	Arg Node
}

// NewUnary builds a unary expression that has no source text
func NewUnary(op string, arg Node) *Unary {
	return &Unary{Pos: synthetic(), Op: op, Arg: arg}
}

// Binary covers arithmetic, comparison, logical and assignment operators
type Binary struct {
	Pos
	Op    string
	Left  Node
	Right Node
}

// NewBinary builds a binary expression that has no source text
func NewBinary(op string, left, right Node) *Binary {
	return &Binary{Pos: synthetic(), Op: op, Left: left, Right: right}
}

// Seq is a comma expression. It only appears inside a Paren.
type Seq struct {
	Pos
	Exprs []Node
}

// NewSeq builds a comma expression that has no source text
func NewSeq(exprs ...Node) *Seq {
	return &Seq{Pos: synthetic(), Exprs: exprs}
}

// Paren is a parenthesized expression
type Paren struct {
	Pos
	Inner Node
}

// NewParen builds a parenthesized expression that has no source text
func NewParen(inner Node) *Paren {
	return &Paren{Pos: synthetic(), Inner: inner}
}

// Spread is `...Arg` in an array, argument list or object literal
type Spread struct {
	Pos
	Arg Node
}

// Program groups the expressions of one file that are handed to the
// rewriter. It has no source text of its own.
type Program struct {
	Pos
	Body []Node
}

// NewProgram builds a program over body
func NewProgram(body ...Node) *Program {
	return &Program{Pos: synthetic(), Body: body}
}

func quote(s string) string {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b = append(b, '\\', c)
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		default:
			b = append(b, c)
		}
	}
	return string(append(b, '"'))
}
