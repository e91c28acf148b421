// Package printer turns ast trees back into JavaScript text.
//
// Nodes that carry source spans are printed from the original text: the text
// between a node's children is copied verbatim and only the children are
// printed recursively, so an untouched tree reproduces its source byte for
// byte. Nodes built in memory are printed in a canonical compact form.
package printer

import (
	"strings"

	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
)

// Printer prints trees parsed from Source
type Printer struct {
	Source string
}

// New creates a printer for trees parsed from source
func New(source string) *Printer {
	return &Printer{Source: source}
}

// Print renders n, reusing the source text wherever the tree allows
func (p *Printer) Print(n ast.Node) string {
	var b strings.Builder
	p.print(&b, n)
	return b.String()
}

// Canonical renders n without looking at any source text
func Canonical(n ast.Node) string {
	return New("").Print(n)
}

func (p *Printer) print(b *strings.Builder, n ast.Node) {
	if n == nil {
		return
	}
	if !p.fromSource(n) {
		p.canonical(b, n)
		return
	}

	src := n.Position().Src
	switch n := n.(type) {
	case *ast.Array:
		p.list(b, src.Start, src.End, n.Elems)
	case *ast.Object:
		p.list(b, src.Start, src.End, n.Props)
	case *ast.Call:
		if !n.Parens.Valid() {
			p.canonical(b, n)
			return
		}
		p.gaps(b, src.Start, n.Parens.Start, []ast.Node{n.Callee})
		p.list(b, n.Parens.Start, n.Parens.End, n.Args)
		b.WriteString(p.Source[n.Parens.End:src.End])
	case *ast.New:
		if !n.HasArgs {
			p.gaps(b, src.Start, src.End, []ast.Node{n.Callee})
			return
		}
		p.gaps(b, src.Start, n.Parens.Start, []ast.Node{n.Callee})
		p.list(b, n.Parens.Start, n.Parens.End, n.Args)
		b.WriteString(p.Source[n.Parens.End:src.End])
	default:
		p.gaps(b, src.Start, src.End, ast.Children(n))
	}
}

// fromSource reports whether n can be printed from the source text: it must
// have a span inside the source and every child must sit in a known slot
// within it
func (p *Printer) fromSource(n ast.Node) bool {
	src := n.Position().Src
	if !src.Valid() || src.End > len(p.Source) {
		return false
	}
	for _, c := range ast.Children(n) {
		slot := c.Position().Slot
		if !slot.Valid() || slot.Start < src.Start || slot.End > src.End {
			return false
		}
	}
	return true
}

// gaps copies source[start:end] with each child's slot replaced by the
// child's own rendering
func (p *Printer) gaps(b *strings.Builder, start, end int, children []ast.Node) {
	at := start
	for _, c := range children {
		slot := c.Position().Slot
		b.WriteString(p.Source[at:slot.Start])
		p.print(b, c)
		at = slot.End
	}
	b.WriteString(p.Source[at:end])
}

// list prints a bracketed list whose source spans open..end, where the
// opening punctuator is at open and the closing one ends at end. Items may
// have been removed, so separators are rebuilt from the text that followed
// each surviving item in the source.
func (p *Printer) list(b *strings.Builder, open, end int, items []ast.Node) {
	if len(items) == 0 {
		b.WriteByte(p.Source[open])
		b.WriteByte(p.Source[end-1])
		return
	}

	// opening punctuator and the whitespace after it
	head := open + 1
	for head < end && isSpace(p.Source[head]) {
		head++
	}
	b.WriteString(p.Source[open:head])

	for i, item := range items {
		p.print(b, item)
		if i < len(items)-1 {
			b.WriteString(p.separatorAfter(item, end))
		}
	}

	// whitespace and trailing comma before the closing punctuator
	tail := end - 1
	for tail > open && (isSpace(p.Source[tail-1]) || p.Source[tail-1] == ',') {
		tail--
	}
	b.WriteString(p.Source[tail:end])
}

// separatorAfter returns the text from the end of item through the next
// comma and the whitespace after it
func (p *Printer) separatorAfter(item ast.Node, limit int) string {
	start := item.Position().Slot.End
	i := start
	for i < limit && p.Source[i] != ',' {
		i++
	}
	if i == limit {
		return ", "
	}
	i++
	for i < limit && isSpace(p.Source[i]) {
		i++
	}
	return p.Source[start:i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
