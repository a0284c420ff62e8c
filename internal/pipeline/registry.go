package pipeline

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

//go:embed builtin
var builtinFS embed.FS

// Load decodes a definition, choosing the format from the file extension.
func Load(filename string, data []byte) (*Definition, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(filename, data)
	default:
		return nil, fmt.Errorf("unsupported pipeline definition format: %s", filename)
	}
}

func LoadFile(filename string) (*Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline definition: %w", err)
	}
	return Load(filename, data)
}

// Registry holds named pipeline definitions.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns a registry preloaded with the built-in pipelines.
func NewRegistry() (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition)}

	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in pipelines: %w", err)
	}
	for _, entry := range entries {
		name := path.Join("builtin", entry.Name())
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in pipeline %s: %w", name, err)
		}
		def, err := Load(name, data)
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in pipeline %s: %w", name, err)
		}
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("duplicate pipeline name: %s", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered pipeline names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.defs))
}

// Resolve returns the registered pipeline called nameOrPath, or loads it as
// a definition file when it has a known extension.
func (r *Registry) Resolve(nameOrPath string) (*Definition, error) {
	if def, ok := r.Lookup(nameOrPath); ok {
		log.Debug("Using built-in pipeline", "name", nameOrPath)
		return def, nil
	}

	switch strings.ToLower(filepath.Ext(nameOrPath)) {
	case ".yaml", ".yml", ".hcl":
		log.Debug("Loading pipeline definition", "path", nameOrPath)
		return LoadFile(nameOrPath)
	}

	return nil, fmt.Errorf("unknown pipeline %q (available: %s)", nameOrPath, strings.Join(r.Names(), ", "))
}
