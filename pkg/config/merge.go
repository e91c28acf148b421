package config

import "fmt"

// Bool returns a pointer to v, for building Options literals
func Bool(v bool) *bool {
	return &v
}

// DefaultOptions returns the built-in value of every switch
func DefaultOptions() Options {
	return Options{
		UnwrapTypeArrows:          Bool(true),
		StripMetadata:             Bool(false),
		UnwrapDecoratorArrows:     Bool(true),
		SimplifyMetadataTypeofs:   Bool(true),
		SimplifyDesignTypeTypeofs: Bool(false),
	}
}

// DefaultPluginConfig returns the configuration used when no document is
// available or the document could not be decoded
func DefaultPluginConfig() *PluginConfig {
	return &PluginConfig{Options: DefaultOptions()}
}

// Merge lays over on top of o. Set fields of over win, unset fields keep the
// value of o untouched.
func (o Options) Merge(over Options) Options {
	return Options{
		UnwrapTypeArrows:          pick(over.UnwrapTypeArrows, o.UnwrapTypeArrows),
		StripMetadata:             pick(over.StripMetadata, o.StripMetadata),
		UnwrapDecoratorArrows:     pick(over.UnwrapDecoratorArrows, o.UnwrapDecoratorArrows),
		SimplifyMetadataTypeofs:   pick(over.SimplifyMetadataTypeofs, o.SimplifyMetadataTypeofs),
		SimplifyDesignTypeTypeofs: pick(over.SimplifyDesignTypeTypeofs, o.SimplifyDesignTypeTypeofs),
	}
}

// pick returns a copy of the first set value so merged Options never alias
// their inputs
func pick(first, second *bool) *bool {
	switch {
	case first != nil:
		return Bool(*first)
	case second != nil:
		return Bool(*second)
	default:
		return nil
	}
}

// IsEmpty reports whether no switch is set
func (o Options) IsEmpty() bool {
	return o.UnwrapTypeArrows == nil &&
		o.StripMetadata == nil &&
		o.UnwrapDecoratorArrows == nil &&
		o.SimplifyMetadataTypeofs == nil &&
		o.SimplifyDesignTypeTypeofs == nil
}

// Flags fills every unset switch from DefaultOptions
func (o Options) Flags() Flags {
	full := DefaultOptions().Merge(o)
	return Flags{
		UnwrapTypeArrows:          *full.UnwrapTypeArrows,
		StripMetadata:             *full.StripMetadata,
		UnwrapDecoratorArrows:     *full.UnwrapDecoratorArrows,
		SimplifyMetadataTypeofs:   *full.SimplifyMetadataTypeofs,
		SimplifyDesignTypeTypeofs: *full.SimplifyDesignTypeTypeofs,
	}
}

// Any reports whether at least one rewrite is enabled
func (f Flags) Any() bool {
	return f.UnwrapTypeArrows || f.StripMetadata || f.UnwrapDecoratorArrows ||
		f.SimplifyMetadataTypeofs || f.SimplifyDesignTypeTypeofs
}

// Fingerprint is a stable short key for the flag set, used to invalidate
// cached results when the effective configuration of a file changes
func (f Flags) Fingerprint() string {
	bit := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("t%d-s%d-d%d-p%d-y%d",
		bit(f.UnwrapTypeArrows),
		bit(f.StripMetadata),
		bit(f.UnwrapDecoratorArrows),
		bit(f.SimplifyMetadataTypeofs),
		bit(f.SimplifyDesignTypeTypeofs))
}
