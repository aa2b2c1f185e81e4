package webgpu

// DefaultLabelPrefix prefixes the debug labels of created resources.
const DefaultLabelPrefix = "gfx"

type config struct {
	labelPrefix string
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
