package config

// Options is the set of rewrite switches. A nil field means "unset, inherit
// from whatever this is merged onto".
type Options struct {
	// Unwrap simple arrows in `type:` properties of decorator options
	// (default: true). `{ type: () => String }` -> `{ type: String }`
	UnwrapTypeArrows *bool `json:"unwrapTypeArrows,omitempty" yaml:"unwrapTypeArrows,omitempty"`

	// Remove _ts_metadata(...) elements from decorator arrays (default: false)
	StripMetadata *bool `json:"stripMetadata,omitempty" yaml:"stripMetadata,omitempty"`

	// Unwrap simple arrows passed as decorator arguments (default: true).
	// `ResolveField(() => String)` -> `ResolveField(String)`
	UnwrapDecoratorArrows *bool `json:"unwrapDecoratorArrows,omitempty" yaml:"unwrapDecoratorArrows,omitempty"`

	// Collapse typeof guards inside design:paramtypes metadata to Object (default: true)
	SimplifyMetadataTypeofs *bool `json:"simplifyMetadataTypeofs,omitempty" yaml:"simplifyMetadataTypeofs,omitempty"`

	// Collapse typeof guards inside design:type metadata to Object (default: false).
	// Schema inference (e.g. mongoose @Prop) reads design:type, so this is opt-in.
	SimplifyDesignTypeTypeofs *bool `json:"simplifyDesignTypeTypeofs,omitempty" yaml:"simplifyDesignTypeTypeofs,omitempty"`
}

// OverrideRule applies Config to every file matched by at least one of Files
type OverrideRule struct {
	Files  []string `json:"files" yaml:"files"`
	Config Options  `json:"config" yaml:"config"`
}

// PluginConfig is the top-level configuration document. The base switches are
// flattened at the top level so that documents written before overrides
// existed still decode.
type PluginConfig struct {
	Options   `yaml:",inline"`
	Overrides []OverrideRule `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Flags is a fully resolved Options value used by the rewriter
type Flags struct {
	UnwrapTypeArrows          bool `json:"unwrapTypeArrows"`
	StripMetadata             bool `json:"stripMetadata"`
	UnwrapDecoratorArrows     bool `json:"unwrapDecoratorArrows"`
	SimplifyMetadataTypeofs   bool `json:"simplifyMetadataTypeofs"`
	SimplifyDesignTypeTypeofs bool `json:"simplifyDesignTypeTypeofs"`
}
