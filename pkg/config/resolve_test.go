package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(simplifyDesignType bool) *PluginConfig {
	opts := DefaultOptions()
	opts.SimplifyDesignTypeTypeofs = Bool(simplifyDesignType)
	return &PluginConfig{Options: opts}
}

func designTypeRule(simplifyDesignType *bool, patterns ...string) OverrideRule {
	return OverrideRule{
		Files:  patterns,
		Config: Options{SimplifyDesignTypeTypeofs: simplifyDesignType},
	}
}

func TestResolveBasic(t *testing.T) {
	t.Run("empty overrides returns base", func(t *testing.T) {
		pc := baseConfig(false)
		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Bool(false), resolved.SimplifyDesignTypeTypeofs)
	})

	t.Run("matching override merges", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*.model.*"))

		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Bool(true), resolved.SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(true), resolved.UnwrapTypeArrows, "untouched fields inherit from base")
	})

	t.Run("no path uses base", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*"))

		assert.Equal(t, pc.Options, pc.Resolve(""))
	})

	t.Run("non matching file uses base", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*.model.*"))

		resolved := pc.Resolve("/src/services/venue.service.ts")
		assert.Equal(t, Bool(false), resolved.SimplifyDesignTypeTypeofs)
	})
}

func TestResolvePrecedence(t *testing.T) {
	t.Run("later override wins", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides,
			designTypeRule(Bool(true), "**/*.model.*"),
			designTypeRule(Bool(false), "**/venue.model.*"),
		)

		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Bool(false), resolved.SimplifyDesignTypeTypeofs)
	})

	t.Run("explicit false beats base true", func(t *testing.T) {
		pc := &PluginConfig{Options: DefaultOptions()}
		pc.Overrides = append(pc.Overrides, OverrideRule{
			Files:  []string{"**/special.*"},
			Config: Options{SimplifyMetadataTypeofs: Bool(false)},
		})

		resolved := pc.Resolve("/src/special.ts")
		assert.Equal(t, Bool(false), resolved.SimplifyMetadataTypeofs)
	})

	t.Run("only the matching override applies", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides,
			designTypeRule(Bool(true), "**/models/**"),
			OverrideRule{Files: []string{"**/services/**"}, Config: Options{StripMetadata: Bool(true)}},
		)

		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Bool(true), resolved.SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(false), resolved.StripMetadata)
	})

	t.Run("overrides with different fields both apply", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides,
			designTypeRule(Bool(true), "**/models/**"),
			OverrideRule{Files: []string{"**/models/**"}, Config: Options{StripMetadata: Bool(true)}},
		)

		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Bool(true), resolved.SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(true), resolved.StripMetadata)
	})

	t.Run("later rule only wins on the fields it sets", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides,
			OverrideRule{Files: []string{"**/*.ts"}, Config: Options{StripMetadata: Bool(true), UnwrapTypeArrows: Bool(false)}},
			OverrideRule{Files: []string{"**/*.ts"}, Config: Options{StripMetadata: Bool(false)}},
		)

		resolved := pc.Resolve("/src/a.ts")
		assert.Equal(t, Bool(false), resolved.StripMetadata)
		assert.Equal(t, Bool(false), resolved.UnwrapTypeArrows)
	})
}

func TestResolveMerge(t *testing.T) {
	t.Run("override only specified fields", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*.model.*"))

		resolved := pc.Resolve("/src/models/venue.model.ts")
		assert.Equal(t, Options{
			UnwrapTypeArrows:          Bool(true),
			StripMetadata:             Bool(false),
			UnwrapDecoratorArrows:     Bool(true),
			SimplifyMetadataTypeofs:   Bool(true),
			SimplifyDesignTypeTypeofs: Bool(true),
		}, resolved)
	})

	t.Run("override with all fields unset is a no-op", func(t *testing.T) {
		pc := baseConfig(true)
		pc.Overrides = append(pc.Overrides, OverrideRule{Files: []string{"**/*"}})

		assert.Equal(t, pc.Options, pc.Resolve("/src/anything.ts"))
	})

	t.Run("rule without switches keeps the earlier winner", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides,
			designTypeRule(Bool(true), "**/*.model.*"),
			OverrideRule{Files: []string{"**/*"}},
		)

		assert.Equal(t, Bool(true), pc.Resolve("/src/venue.model.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("default plugin config matches default options", func(t *testing.T) {
		assert.Equal(t, DefaultOptions(), DefaultPluginConfig().Resolve("/src/anything.ts"))
	})

	t.Run("unset base is not coerced during merge", func(t *testing.T) {
		resolved := Resolve(Options{}, []OverrideRule{{Files: []string{"**"}, Config: Options{StripMetadata: Bool(true)}}}, "a/b.ts")
		assert.Nil(t, resolved.UnwrapTypeArrows)
		assert.Equal(t, Bool(true), resolved.StripMetadata)
	})

	t.Run("result does not alias inputs", func(t *testing.T) {
		pc := baseConfig(false)
		resolved := pc.Resolve("/src/a.ts")
		*resolved.SimplifyDesignTypeTypeofs = true
		assert.Equal(t, Bool(false), pc.SimplifyDesignTypeTypeofs)
	})
}

func TestResolveGlobs(t *testing.T) {
	t.Run("windows backslash paths", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*.model.*"))

		assert.Equal(t, Bool(true), pc.Resolve(`src\models\venue.model.ts`).SimplifyDesignTypeTypeofs)
		assert.Equal(t, pc.Resolve("src/models/venue.model.ts"), pc.Resolve(`src\models\venue.model.ts`))
	})

	t.Run("multiple patterns in files", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/venue.model*", "**/user.model*"))

		assert.Equal(t, Bool(true), pc.Resolve("/src/models/venue.model.ts").SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(true), pc.Resolve("/src/models/user.model.ts").SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(false), pc.Resolve("/src/models/item.model.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("brace expansion", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/*.{model,schema}.*"))

		assert.Equal(t, Bool(true), pc.Resolve("/src/venue.model.ts").SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(true), pc.Resolve("/src/venue.schema.ts").SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(false), pc.Resolve("/src/venue.service.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("absolute path", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/venue.model*"))

		assert.Equal(t, Bool(true), pc.Resolve("/home/user/project/src/models/venue.model.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("single star stays within a segment", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "src/*.ts"))

		assert.Equal(t, Bool(true), pc.Resolve("src/a.ts").SimplifyDesignTypeTypeofs)
		assert.Equal(t, Bool(false), pc.Resolve("src/models/a.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("pattern matches the whole path", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "models/*.ts"))

		assert.Equal(t, Bool(false), pc.Resolve("src/models/a.ts").SimplifyDesignTypeTypeofs)
	})

	t.Run("leading globstar matches zero directories", func(t *testing.T) {
		pc := baseConfig(false)
		pc.Overrides = append(pc.Overrides, designTypeRule(Bool(true), "**/venue.model.ts"))

		assert.Equal(t, Bool(true), pc.Resolve("venue.model.ts").SimplifyDesignTypeTypeofs)
	})
}

func TestResolveFlags(t *testing.T) {
	pc := &PluginConfig{
		Options: Options{StripMetadata: Bool(true)},
		Overrides: []OverrideRule{
			{Files: []string{"**/*.model.ts"}, Config: Options{SimplifyDesignTypeTypeofs: Bool(true)}},
		},
	}

	flags := pc.ResolveFlags("/src/venue.model.ts")
	require.True(t, flags.StripMetadata)
	assert.Equal(t, Flags{
		UnwrapTypeArrows:          true,
		StripMetadata:             true,
		UnwrapDecoratorArrows:     true,
		SimplifyMetadataTypeofs:   true,
		SimplifyDesignTypeTypeofs: true,
	}, flags)

	assert.Equal(t, DefaultOptions().Flags(), Options{}.Flags())
	assert.NotEqual(t, flags.Fingerprint(), Options{}.Flags().Fingerprint())
}
