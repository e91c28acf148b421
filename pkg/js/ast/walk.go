package ast

// Children returns the direct child nodes of n in source order
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Member:
		add(n.Object)
		if n.Computed {
			add(n.Property)
		}
	case *Call:
		add(n.Callee)
		add(n.Args...)
	case *New:
		add(n.Callee)
		add(n.Args...)
	case *Array:
		add(n.Elems...)
	case *Object:
		add(n.Props...)
	case *Property:
		add(n.Key, n.Value)
	case *Arrow:
		add(n.Body)
	case *Cond:
		add(n.Test, n.Cons, n.Alt)
	case *Unary:
		add(n.Arg)
	case *Binary:
		add(n.Left, n.Right)
	case *Seq:
		add(n.Exprs...)
	case *Paren:
		add(n.Inner)
	case *Spread:
		add(n.Arg)
	case *Program:
		add(n.Body...)
	}

	return out
}

// Inspect traverses the tree depth-first in source order, calling f for every
// node before its children. Children are read after f returns, so f may
// rewrite the node it is given. Returning false skips the children.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
