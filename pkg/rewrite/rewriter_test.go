package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
	"github.com/wouteroostervld/decoshrink/pkg/js/parser"
	"github.com/wouteroostervld/decoshrink/pkg/js/printer"
)

func defaultFlags() config.Flags {
	return config.DefaultOptions().Flags()
}

func allFlags() config.Flags {
	return config.Flags{
		UnwrapTypeArrows:          true,
		StripMetadata:             true,
		UnwrapDecoratorArrows:     true,
		SimplifyMetadataTypeofs:   true,
		SimplifyDesignTypeTypeofs: true,
	}
}

// run parses src, rewrites it with flags and prints the result
func run(t *testing.T, src string, flags config.Flags) (string, Stats) {
	t.Helper()
	tree, err := parser.ParseExpression(src)
	require.NoError(t, err, src)

	stats := New(flags).Rewrite(tree)
	return printer.New(src).Print(tree), stats
}

func TestEndToEnd(t *testing.T) {
	src := `_ts_decorate([_ts_param(0, Args("id", { type: () => String })), _ts_metadata("design:paramtypes", [typeof X === "undefined" ? Object : X])], Foo.prototype, "m", null)`
	want := `_ts_decorate([_ts_param(0, Args("id", { type: String })), _ts_metadata("design:paramtypes", [Object])], Foo.prototype, "m", null)`

	got, stats := run(t, src, defaultFlags())
	assert.Equal(t, want, got)
	assert.Equal(t, Stats{DecorateCalls: 1, TypeArrows: 1, ParamTypeGuards: 1}, stats)
}

func TestStripMetadata(t *testing.T) {
	src := `_ts_decorate([d1, _ts_metadata("design:type", Function), d2, _ts_metadata("design:returntype", Promise)], A)`
	flags := config.Flags{StripMetadata: true}

	got, stats := run(t, src, flags)
	assert.Equal(t, `_ts_decorate([d1, d2], A)`, got)
	assert.Equal(t, 2, stats.MetadataStripped)

	t.Run("disabled by default", func(t *testing.T) {
		got, _ := run(t, src, defaultFlags())
		assert.Equal(t, src, got)
	})

	t.Run("only direct elements are removed", func(t *testing.T) {
		src := `_ts_decorate([wrap(_ts_metadata("design:type", Function))], A)`
		got, stats := run(t, src, flags)
		assert.Equal(t, src, got)
		assert.Zero(t, stats.MetadataStripped)
	})
}

func TestUnwrapDecoratorArrows(t *testing.T) {
	flags := config.Flags{UnwrapDecoratorArrows: true}

	tests := []struct {
		name string
		elem string
		want string
	}{
		{name: "identifier body", elem: `(0, _graphql.ResolveField)(() => String)`, want: `(0, _graphql.ResolveField)(String)`},
		{name: "member body", elem: `Field(() => Foo.Bar)`, want: `Field(Foo.Bar)`},
		{name: "array body", elem: `Field(()=>[String])`, want: `Field([String])`},
		{name: "nested wrapper call", elem: `_ts_param(0, (0, _graphql.Args)(() => String))`, want: `_ts_param(0, (0, _graphql.Args)(String))`},
		{name: "several arguments", elem: `F('discounts', () => [X], () => Y)`, want: `F('discounts', [X], Y)`},
		{name: "block body kept", elem: `F(() => { return String; })`, want: `F(() => { return String; })`},
		{name: "parameter kept", elem: `F((x) => String)`, want: `F((x) => String)`},
		{name: "async kept", elem: `F(async () => String)`, want: `F(async () => String)`},
		{name: "call body kept", elem: `F(() => make())`, want: `F(() => make())`},
		{name: "literal body kept", elem: `F(() => "x")`, want: `F(() => "x")`},
		{name: "bare element kept", elem: `() => String`, want: `() => String`},
		{name: "arrow inside object kept", elem: `F({ resolve: () => String })`, want: `F({ resolve: () => String })`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := run(t, "_ts_decorate(["+tt.elem+"], A)", flags)
			assert.Equal(t, "_ts_decorate(["+tt.want+"], A)", got)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		src := `_ts_decorate([F(() => String)], A)`
		got, _ := run(t, src, config.Flags{UnwrapTypeArrows: true})
		assert.Equal(t, src, got)
	})
}

func TestUnwrapTypeArrows(t *testing.T) {
	flags := config.Flags{UnwrapTypeArrows: true}

	tests := []struct {
		name string
		elem string
		want string
	}{
		{name: "identifier key", elem: `Args('id', { type: () => String })`, want: `Args('id', { type: String })`},
		{name: "string key", elem: `Args({ "type": () => [Int], nullable: true })`, want: `Args({ "type": [Int], nullable: true })`},
		{name: "nested call", elem: `_ts_param(1, (0, _graphql.Args)('vendorID', { type: () => String }))`, want: `_ts_param(1, (0, _graphql.Args)('vendorID', { type: String }))`},
		{name: "other keys kept", elem: `Args({ of: () => String })`, want: `Args({ of: () => String })`},
		{name: "computed key kept", elem: `Args({ ["type"]: () => String })`, want: `Args({ ["type"]: () => String })`},
		{name: "complex body kept", elem: `Args({ type: () => pick(String) })`, want: `Args({ type: () => pick(String) })`},
		{name: "nested object kept", elem: `Args({ opts: { type: () => String } })`, want: `Args({ opts: { type: () => String } })`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := run(t, "_ts_decorate(["+tt.elem+"], A)", flags)
			assert.Equal(t, "_ts_decorate(["+tt.want+"], A)", got)
		})
	}
}

func TestSimplifyGuards(t *testing.T) {
	guard := `typeof X === "undefined" ? Object : X`
	chain := `typeof Express === "undefined" || typeof Express.Multer === "undefined" || typeof Express.Multer.File === "undefined" ? Object : Express.Multer.File`

	paramtypes := config.Flags{SimplifyMetadataTypeofs: true}
	designType := config.Flags{SimplifyDesignTypeTypeofs: true}

	tests := []struct {
		name  string
		elem  string
		flags config.Flags
		want  string
	}{
		{name: "paramtypes guard", elem: `_ts_metadata("design:paramtypes", [` + guard + `, String])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [Object, String])`},
		{name: "or chain", elem: `_ts_metadata("design:paramtypes", [Object, ` + chain + `])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [Object, Object])`},
		{name: "reversed operands", elem: `_ts_metadata("design:paramtypes", ["undefined" === typeof X ? Object : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [Object])`},
		{name: "nested arrays", elem: `_ts_metadata("design:paramtypes", [[` + guard + `]])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [[Object]])`},
		{name: "bare argument", elem: `_ts_metadata("design:paramtypes", ` + guard + `)`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", Object)`},
		{name: "design type untouched by paramtypes switch", elem: `_ts_metadata("design:type", ` + guard + `)`, flags: paramtypes, want: `_ts_metadata("design:type", ` + guard + `)`},
		{name: "design type switch", elem: `_ts_metadata("design:type", ` + guard + `)`, flags: designType, want: `_ts_metadata("design:type", Object)`},
		{name: "paramtypes untouched by design type switch", elem: `_ts_metadata("design:paramtypes", [` + guard + `])`, flags: designType, want: `_ts_metadata("design:paramtypes", [` + guard + `])`},
		{name: "returntype never touched", elem: `_ts_metadata("design:returntype", ` + guard + `)`, flags: config.Flags{SimplifyMetadataTypeofs: true, SimplifyDesignTypeTypeofs: true}, want: `_ts_metadata("design:returntype", ` + guard + `)`},
		{name: "outside metadata", elem: `Field(` + guard + `)`, flags: allFlags(), want: `Field(` + guard + `)`},
		{name: "loose equality", elem: `_ts_metadata("design:paramtypes", [typeof X == "undefined" ? Object : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [typeof X == "undefined" ? Object : X])`},
		{name: "other literal", elem: `_ts_metadata("design:paramtypes", [typeof X === "object" ? Object : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [typeof X === "object" ? Object : X])`},
		{name: "other consequent", elem: `_ts_metadata("design:paramtypes", [typeof X === "undefined" ? Y : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [typeof X === "undefined" ? Y : X])`},
		{name: "and chain", elem: `_ts_metadata("design:paramtypes", [typeof X === "undefined" && typeof Y === "undefined" ? Object : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [typeof X === "undefined" && typeof Y === "undefined" ? Object : X])`},
		{name: "right nested chain", elem: `_ts_metadata("design:paramtypes", [typeof A === "undefined" || (typeof B === "undefined" || typeof C === "undefined") ? Object : A])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [typeof A === "undefined" || (typeof B === "undefined" || typeof C === "undefined") ? Object : A])`},
		{name: "non typeof operand", elem: `_ts_metadata("design:paramtypes", [X === "undefined" ? Object : X])`, flags: paramtypes, want: `_ts_metadata("design:paramtypes", [X === "undefined" ? Object : X])`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := run(t, "_ts_decorate(["+tt.elem+"], A)", tt.flags)
			assert.Equal(t, "_ts_decorate(["+tt.want+"], A)", got)
		})
	}
}

func TestRewriteTraversal(t *testing.T) {
	t.Run("nested decorate calls are visited", func(t *testing.T) {
		src := `wrap(_ts_decorate([_ts_metadata("design:type", X), F(() => Y)], A), _ts_decorate([G(() => Z)], B))`
		got, stats := run(t, src, allFlags())
		assert.Equal(t, `wrap(_ts_decorate([F(Y)], A), _ts_decorate([G(Z)], B))`, got)
		assert.Equal(t, 2, stats.DecorateCalls)
	})

	t.Run("first argument must be an array", func(t *testing.T) {
		src := `_ts_decorate(decorators, A)`
		got, stats := run(t, src, allFlags())
		assert.Equal(t, src, got)
		assert.Zero(t, stats.DecorateCalls)
	})

	t.Run("member callee is not the helper", func(t *testing.T) {
		src := `helpers._ts_decorate([F(() => Y)], A)`
		got, _ := run(t, src, allFlags())
		assert.Equal(t, src, got)
	})

	t.Run("no switch enabled", func(t *testing.T) {
		src := `_ts_decorate([_ts_metadata("design:type", X), F(() => Y)], A)`
		got, stats := run(t, src, config.Flags{})
		assert.Equal(t, src, got)
		assert.Equal(t, Stats{}, stats)
	})

	t.Run("program of several sites", func(t *testing.T) {
		first, err := parser.ParseExpression(`_ts_decorate([F(() => Y)], A)`)
		require.NoError(t, err)
		second, err := parser.ParseExpression(`_ts_decorate([G(() => Z)], B, undefined)`)
		require.NoError(t, err)

		stats := New(defaultFlags()).Rewrite(ast.NewProgram(first, second))
		assert.Equal(t, 2, stats.DecorateCalls)
		assert.Equal(t, 2, stats.ConstructorCalls)
		assert.Equal(t, 2, stats.DecoratorArrows)
	})

	t.Run("stats add up", func(t *testing.T) {
		src := `_ts_decorate([F(() => Y), Args({ type: () => Z }), _ts_metadata("design:type", typeof Q === "undefined" ? Object : Q), _ts_metadata("design:paramtypes", [typeof Q === "undefined" ? Object : Q])], A.prototype, "x", void 0)`
		_, stats := run(t, src, allFlags())
		assert.Equal(t, Stats{DecorateCalls: 1, MetadataStripped: 2, DecoratorArrows: 1, TypeArrows: 1}, stats)
		assert.Equal(t, 4, stats.Changes())
	})
}

func TestPassOrder(t *testing.T) {
	// Stripping runs first, so guards inside removed metadata are not counted
	src := `_ts_decorate([_ts_metadata("design:paramtypes", [typeof X === "undefined" ? Object : X])], A)`
	_, stats := run(t, src, config.Flags{StripMetadata: true, SimplifyMetadataTypeofs: true})
	assert.Equal(t, 1, stats.MetadataStripped)
	assert.Zero(t, stats.ParamTypeGuards)
}
