// Package pipeline holds declarative pipeline definitions: their input
// parameters, the container components they run and the tasks wiring those
// components together. Definitions are loaded from YAML or HCL files or
// taken from the built-in registry.
package pipeline

import (
	"errors"
	"fmt"
)

// ErrSchema is returned when a definition cannot report its declared
// parameters.
var ErrSchema = errors.New("malformed pipeline schema")

// ParamType is the declared type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeDouble  ParamType = "double"
	TypeBoolean ParamType = "boolean"
	TypeList    ParamType = "list"
	TypeStruct  ParamType = "struct"
)

func (t ParamType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeDouble, TypeBoolean, TypeList, TypeStruct:
		return true
	default:
		return false
	}
}

type Definition struct {
	Name        string
	Description string
	Inputs      []Parameter
	Components  []Component
	Tasks       []Task
}

// Parameter is a typed, named value. A nil Default means the value is
// required.
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
	Default     any
}

// Component is a containerized step that tasks instantiate.
type Component struct {
	Name    string
	Image   string
	Command []string
	Args    []string
	Inputs  []Parameter
	Outputs []Parameter
}

// Task runs a component. Argument values are either constants or
// references of the form "{{inputs.NAME}}" or
// "{{tasks.TASK.outputs.NAME}}".
type Task struct {
	Name      string
	Component string
	DependsOn []string
	Arguments map[string]any
}

// ParameterNames returns the declared input parameter names in declaration
// order.
func (d *Definition) ParameterNames() ([]string, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrSchema)
	}

	names := make([]string, 0, len(d.Inputs))
	seen := make(map[string]bool, len(d.Inputs))
	for i, in := range d.Inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("%w: input %d of pipeline %s has no name", ErrSchema, i, d.Name)
		}
		if seen[in.Name] {
			return nil, fmt.Errorf("%w: duplicate input %s in pipeline %s", ErrSchema, in.Name, d.Name)
		}
		seen[in.Name] = true
		names = append(names, in.Name)
	}
	return names, nil
}

func (d *Definition) Component(name string) *Component {
	for i := range d.Components {
		if d.Components[i].Name == name {
			return &d.Components[i]
		}
	}
	return nil
}
