package rewrite

import "github.com/wouteroostervld/decoshrink/pkg/js/ast"

// Helper identifiers emitted by decorator transpilation
const (
	DecorateHelper = "_ts_decorate"
	MetadataHelper = "_ts_metadata"
	ParamHelper    = "_ts_param"
)

// Metadata keys whose typeof guards can be collapsed
const (
	KeyParamTypes = "design:paramtypes"
	KeyType       = "design:type"
)

// Target is what a decorator application decorates
type Target int

const (
	TargetConstructor Target = iota
	TargetMember
)

func (t Target) String() string {
	if t == TargetConstructor {
		return "constructor"
	}
	return "member"
}

// IsDecorateCall reports whether n is a call to the decorate helper
func IsDecorateCall(n ast.Node) (*ast.Call, bool) {
	return helperCall(n, DecorateHelper)
}

// IsMetadataCall reports whether n is a call to the metadata helper
func IsMetadataCall(n ast.Node) (*ast.Call, bool) {
	return helperCall(n, MetadataHelper)
}

func helperCall(n ast.Node, name string) (*ast.Call, bool) {
	call, ok := n.(*ast.Call)
	if !ok {
		return nil, false
	}
	id, ok := call.Callee.(*ast.Ident)
	if !ok || id.Name != name {
		return nil, false
	}
	return call, true
}

// DecoratorArray returns the array literal a decorate call takes as its
// first argument
func DecoratorArray(call *ast.Call) (*ast.Array, bool) {
	if len(call.Args) == 0 {
		return nil, false
	}
	arr, ok := call.Args[0].(*ast.Array)
	return arr, ok
}

// MetadataKey returns the string literal a metadata call takes as its first
// argument
func MetadataKey(call *ast.Call) (string, bool) {
	if len(call.Args) == 0 {
		return "", false
	}
	s, ok := call.Args[0].(*ast.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Classify tells constructor decoration, where the third argument is absent
// or the identifier `undefined`, from member decoration
func Classify(call *ast.Call) Target {
	if len(call.Args) < 3 {
		return TargetConstructor
	}
	if id, ok := call.Args[2].(*ast.Ident); ok && id.Name == "undefined" {
		return TargetConstructor
	}
	return TargetMember
}

// SimpleArrowBody returns the body of `() => X` when X is an identifier, a
// member access or an array literal. Such arrows can be replaced by their
// body without dropping side effects. Async arrows, arrows with parameters
// and block bodies never qualify.
func SimpleArrowBody(n ast.Node) (ast.Node, bool) {
	arrow, ok := n.(*ast.Arrow)
	if !ok || arrow.Async || arrow.ParamCount != 0 || arrow.Body == nil {
		return nil, false
	}

	switch arrow.Body.(type) {
	case *ast.Ident, *ast.Member, *ast.Array:
		return arrow.Body, true
	}
	return nil, false
}

// IsTypeKey reports whether a property key is `type` or "type"
func IsTypeKey(prop *ast.Property) bool {
	if prop.Computed {
		return false
	}
	switch key := prop.Key.(type) {
	case *ast.Ident:
		return key.Name == "type"
	case *ast.String:
		return key.Value == "type"
	}
	return false
}

// IsTypeofGuard matches `T ? Object : X` where T is
// `typeof A === "undefined"` (either operand order) or a left-associated
// `||` chain of such comparisons
func IsTypeofGuard(n ast.Node) bool {
	cond, ok := n.(*ast.Cond)
	if !ok {
		return false
	}
	if id, ok := cond.Cons.(*ast.Ident); !ok || id.Name != "Object" {
		return false
	}
	return isGuardTest(cond.Test)
}

func isGuardTest(n ast.Node) bool {
	if or, ok := n.(*ast.Binary); ok && or.Op == "||" {
		return isGuardTest(or.Left) && isTypeofUndefined(or.Right)
	}
	return isTypeofUndefined(n)
}

func isTypeofUndefined(n ast.Node) bool {
	eq, ok := n.(*ast.Binary)
	if !ok || eq.Op != "===" {
		return false
	}
	return (isTypeof(eq.Left) && isUndefinedString(eq.Right)) ||
		(isUndefinedString(eq.Left) && isTypeof(eq.Right))
}

func isTypeof(n ast.Node) bool {
	u, ok := n.(*ast.Unary)
	return ok && u.Op == "typeof"
}

func isUndefinedString(n ast.Node) bool {
	s, ok := n.(*ast.String)
	return ok && s.Value == "undefined"
}
