package native

import "github.com/gogpu/gputypes"

// DefaultLabelPrefix prefixes the debug labels of created resources.
const DefaultLabelPrefix = "gfx"

type config struct {
	labelPrefix string
	limits      gputypes.Limits
	cache       bool
	wgsl        bool
}

func defaultConfig() config {
	return config{
		labelPrefix: DefaultLabelPrefix,
		limits:      gputypes.DefaultLimits(),
		cache:       true,
	}
}

// Option configures a Factory.
type Option func(*config)

// WithLabelPrefix sets the prefix of resource debug labels. Labels have the
// form "<prefix>-<kind>-<uuid>".
func WithLabelPrefix(prefix string) Option {
	return func(c *config) {
		if prefix != "" {
			c.labelPrefix = prefix
		}
	}
}

// WithLimits sets the device limits buffers are checked against.
func WithLimits(limits gputypes.Limits) Option {
	return func(c *config) {
		c.limits = limits
	}
}

// WithPipelineCache enables or disables reuse of identical pipelines.
// The cache is enabled by default.
func WithPipelineCache(enabled bool) Option {
	return func(c *config) {
		c.cache = enabled
	}
}

// WithWGSLModules hands WGSL source to the device instead of SPIR-V
// produced by naga. Shaders are still compiled once for validation.
func WithWGSLModules() Option {
	return func(c *config) {
		c.wgsl = true
	}
}
