package args

import (
	"maps"
	"slices"
)

// Configuration maps option keys to their parsed values (string or bool).
// It is never mutated after construction.
type Configuration struct {
	values map[string]any
}

// NewConfiguration copies values into a Configuration.
func NewConfiguration(values map[string]any) *Configuration {
	return &Configuration{values: maps.Clone(values)}
}

func (c *Configuration) Lookup(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value for key, or "" if it is absent or not a string.
func (c *Configuration) String(key string) string {
	s, _ := c.values[key].(string)
	return s
}

// Bool returns the value for key, or false if it is absent or not a bool.
func (c *Configuration) Bool(key string) bool {
	b, _ := c.values[key].(bool)
	return b
}

// Keys returns the configuration keys in sorted order.
func (c *Configuration) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Values returns a copy of the underlying values.
func (c *Configuration) Values() map[string]any {
	return maps.Clone(c.values)
}

// With returns a copy of c with key set to value.
func (c *Configuration) With(key string, value any) *Configuration {
	values := maps.Clone(c.values)
	if values == nil {
		values = make(map[string]any)
	}
	values[key] = value
	return &Configuration{values: values}
}
