package printer

import (
	"strings"

	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
)

// canonical prints n in compact form. Children still go through print, so a
// parsed subtree below a synthesized node keeps its source text.
// Parentheses are never inserted; trees that need them carry ast.Paren.
func (p *Printer) canonical(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Ident:
		b.WriteString(n.Name)
	case *ast.Literal:
		b.WriteString(n.Raw)
	case *ast.String:
		b.WriteString(n.Raw)
	case *ast.Func:
		b.WriteString(n.Raw)

	case *ast.Member:
		p.print(b, n.Object)
		switch {
		case n.Computed:
			b.WriteByte('[')
			p.print(b, n.Property)
			b.WriteByte(']')
		case n.Optional:
			b.WriteString("?.")
			b.WriteString(n.Name)
		default:
			b.WriteByte('.')
			b.WriteString(n.Name)
		}

	case *ast.Call:
		p.print(b, n.Callee)
		b.WriteByte('(')
		p.join(b, n.Args, ", ")
		b.WriteByte(')')

	case *ast.New:
		b.WriteString("new ")
		p.print(b, n.Callee)
		if n.HasArgs || len(n.Args) > 0 {
			b.WriteByte('(')
			p.join(b, n.Args, ", ")
			b.WriteByte(')')
		}

	case *ast.Array:
		b.WriteByte('[')
		p.join(b, n.Elems, ", ")
		b.WriteByte(']')

	case *ast.Object:
		if len(n.Props) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		p.join(b, n.Props, ", ")
		b.WriteString(" }")

	case *ast.Property:
		if n.Computed {
			b.WriteByte('[')
			p.print(b, n.Key)
			b.WriteByte(']')
		} else {
			p.print(b, n.Key)
		}
		if n.Shorthand() {
			return
		}
		b.WriteString(": ")
		p.print(b, n.Value)

	case *ast.Arrow:
		if n.Async {
			b.WriteString("async ")
		}
		b.WriteByte('(')
		b.WriteString(n.Params)
		b.WriteString(") => ")
		if n.Body != nil {
			p.print(b, n.Body)
		} else {
			b.WriteString(n.Block)
		}

	case *ast.Cond:
		p.print(b, n.Test)
		b.WriteString(" ? ")
		p.print(b, n.Cons)
		b.WriteString(" : ")
		p.print(b, n.Alt)

	case *ast.Unary:
		b.WriteString(n.Op)
		if isWord(n.Op) {
			b.WriteByte(' ')
		}
		p.print(b, n.Arg)

	case *ast.Binary:
		p.print(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op)
		b.WriteByte(' ')
		p.print(b, n.Right)

	case *ast.Seq:
		p.join(b, n.Exprs, ", ")

	case *ast.Paren:
		b.WriteByte('(')
		p.print(b, n.Inner)
		b.WriteByte(')')

	case *ast.Spread:
		b.WriteString("...")
		p.print(b, n.Arg)

	case *ast.Program:
		for _, stmt := range n.Body {
			p.print(b, stmt)
			b.WriteString(";\n")
		}
	}
}

func (p *Printer) join(b *strings.Builder, nodes []ast.Node, sep string) {
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(sep)
		}
		p.print(b, n)
	}
}

func isWord(op string) bool {
	return op != "" && op[0] >= 'a' && op[0] <= 'z'
}
