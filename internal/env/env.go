// Package env resolves settings from an injected environment source so that
// callers can be tested without touching the process environment.
package env

import (
	"fmt"
	"os"
	"strconv"
)

// Source looks up environment variables.
type Source interface {
	LookupEnv(key string) (string, bool)
}

// OS reads from the process environment.
type OS struct{}

func (OS) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Map is a fixed environment, mostly useful in tests.
type Map map[string]string

func (m Map) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func String(src Source, key string, def string) string {
	if v, ok := src.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// Bool returns def when key is unset or empty, and an error when the value
// is not a boolean.
func Bool(src Source, key string, def bool) (bool, error) {
	v, ok := src.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
