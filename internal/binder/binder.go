// Package binder reduces a parsed launch configuration to the parameters a
// pipeline actually declares.
package binder

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/rejot-dev/evalrun/internal/pipeline"
)

// Lookuper is the read side of a parsed configuration.
type Lookuper interface {
	Lookup(key string) (any, bool)
}

// SchemaSource reports the input parameter names a pipeline declares.
type SchemaSource interface {
	ParameterNames() ([]string, error)
}

// Mapping holds the parameter values passed to a pipeline run.
type Mapping map[string]any

// Bind returns the configuration values whose keys are declared by schema.
// Values are passed through unchanged. Declared parameters missing from cfg
// are left out so the pipeline default applies.
func Bind(cfg Lookuper, schema SchemaSource) (Mapping, error) {
	names, err := schema.ParameterNames()
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline parameters: %w", wrapSchema(err))
	}

	params := make(Mapping, len(names))
	for _, name := range names {
		v, ok := cfg.Lookup(name)
		if !ok {
			log.Debug("Parameter not configured, using pipeline default", "parameter", name)
			continue
		}
		params[name] = v
	}
	return params, nil
}

func wrapSchema(err error) error {
	if errors.Is(err, pipeline.ErrSchema) {
		return err
	}
	return fmt.Errorf("%w: %w", pipeline.ErrSchema, err)
}
