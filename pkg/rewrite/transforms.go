package rewrite

import "github.com/wouteroostervld/decoshrink/pkg/js/ast"

// stripMetadata drops every metadata call from the decorator array
//
//	[d1, _ts_metadata("design:type", Function), d2]  ->  [d1, d2]
func stripMetadata(arr *ast.Array) int {
	kept := arr.Elems[:0:0]
	for _, elem := range arr.Elems {
		if _, ok := IsMetadataCall(elem); ok {
			continue
		}
		kept = append(kept, elem)
	}

	removed := len(arr.Elems) - len(kept)
	if removed > 0 {
		arr.Elems = kept
	}
	return removed
}

// unwrapDecoratorArrows replaces simple arrows passed as call arguments,
// inner calls first
//
//	(0, _graphql.ResolveField)(() => String)  ->  (0, _graphql.ResolveField)(String)
func unwrapDecoratorArrows(arr *ast.Array) int {
	n := 0
	for _, elem := range arr.Elems {
		n += unwrapCallArgArrows(elem)
	}
	return n
}

func unwrapCallArgArrows(n ast.Node) int {
	call, ok := n.(*ast.Call)
	if !ok {
		return 0
	}

	count := 0
	for i, arg := range call.Args {
		count += unwrapCallArgArrows(arg)

		if body, ok := SimpleArrowBody(arg); ok {
			call.Args[i] = ast.Replace(arg, body)
			count++
		}
	}
	return count
}

// unwrapTypeArrows replaces simple arrows under a `type` key of object
// literals passed as call arguments
//
//	Args('id', { type: () => String })  ->  Args('id', { type: String })
func unwrapTypeArrows(arr *ast.Array) int {
	n := 0
	for _, elem := range arr.Elems {
		n += unwrapTypeProps(elem)
	}
	return n
}

func unwrapTypeProps(n ast.Node) int {
	count := 0

	switch n := n.(type) {
	case *ast.Call:
		for _, arg := range n.Args {
			count += unwrapTypeProps(arg)
		}

	case *ast.Object:
		for _, p := range n.Props {
			prop, ok := p.(*ast.Property)
			if !ok || prop.Shorthand() || !IsTypeKey(prop) {
				continue
			}
			if body, ok := SimpleArrowBody(prop.Value); ok {
				prop.Value = ast.Replace(prop.Value, body)
				count++
			}
		}
	}

	return count
}

// simplifyGuards collapses typeof guards in the arguments after the key of
// every metadata call recorded under key
//
//	_ts_metadata("design:paramtypes", [typeof X === "undefined" ? Object : X])
//	  ->  _ts_metadata("design:paramtypes", [Object])
func simplifyGuards(arr *ast.Array, key string) int {
	count := 0
	for _, elem := range arr.Elems {
		call, ok := IsMetadataCall(elem)
		if !ok {
			continue
		}
		if k, ok := MetadataKey(call); !ok || k != key {
			continue
		}

		for i := 1; i < len(call.Args); i++ {
			var n int
			call.Args[i], n = collapseGuards(call.Args[i])
			count += n
		}
	}
	return count
}

// collapseGuards returns n with every typeof guard reachable through array
// literals replaced by Object
func collapseGuards(n ast.Node) (ast.Node, int) {
	if IsTypeofGuard(n) {
		return ast.Replace(n, ast.NewIdent("Object")), 1
	}

	arr, ok := n.(*ast.Array)
	if !ok {
		return n, 0
	}

	count := 0
	for i, elem := range arr.Elems {
		var c int
		arr.Elems[i], c = collapseGuards(elem)
		count += c
	}
	return arr, count
}
