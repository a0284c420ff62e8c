package pipeline

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

type yamlDefinition struct {
	Name        string          `yaml:"name" jsonschema:"required" jsonschema_description:"Pipeline name, also used in run names"`
	Description string          `yaml:"description,omitempty"`
	Inputs      []yamlParameter `yaml:"inputs,omitempty" jsonschema_description:"Pipeline input parameters"`
	Components  []yamlComponent `yaml:"components" jsonschema:"required"`
	Tasks       []yamlTask      `yaml:"tasks" jsonschema:"required"`
}

type yamlParameter struct {
	Name        string `yaml:"name" jsonschema:"required"`
	Type        string `yaml:"type" jsonschema:"required,enum=string,enum=integer,enum=double,enum=boolean,enum=list,enum=struct"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty" jsonschema_description:"Default value; parameters without one are required"`
}

type yamlComponent struct {
	Name    string          `yaml:"name" jsonschema:"required"`
	Image   string          `yaml:"image" jsonschema:"required" jsonschema_description:"Container image"`
	Command []string        `yaml:"command,omitempty"`
	Args    []string        `yaml:"args,omitempty"`
	Inputs  []yamlParameter `yaml:"inputs,omitempty"`
	Outputs []yamlParameter `yaml:"outputs,omitempty"`
}

type yamlTask struct {
	Name      string         `yaml:"name" jsonschema:"required"`
	Component string         `yaml:"component" jsonschema:"required"`
	DependsOn []string       `yaml:"depends_on,omitempty"`
	Arguments map[string]any `yaml:"arguments,omitempty" jsonschema_description:"Constants, {{inputs.NAME}} or {{tasks.TASK.outputs.NAME}}"`
}

// ParseYAML decodes a YAML pipeline definition. Unknown fields are rejected.
func ParseYAML(data []byte) (*Definition, error) {
	var raw yamlDefinition
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline definition: %w", err)
	}

	def := &Definition{
		Name:        raw.Name,
		Description: raw.Description,
		Inputs:      fromYAMLParameters(raw.Inputs),
	}
	for _, c := range raw.Components {
		def.Components = append(def.Components, Component{
			Name:    c.Name,
			Image:   c.Image,
			Command: c.Command,
			Args:    c.Args,
			Inputs:  fromYAMLParameters(c.Inputs),
			Outputs: fromYAMLParameters(c.Outputs),
		})
	}
	for _, t := range raw.Tasks {
		args := make(map[string]any, len(t.Arguments))
		for k, v := range t.Arguments {
			args[k] = normalize(v)
		}
		def.Tasks = append(def.Tasks, Task{
			Name:      t.Name,
			Component: t.Component,
			DependsOn: t.DependsOn,
			Arguments: args,
		})
	}
	return def, nil
}

func fromYAMLParameters(params []yamlParameter) []Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, Parameter{
			Name:        p.Name,
			Type:        ParamType(p.Type),
			Description: p.Description,
			Default:     normalize(p.Default),
		})
	}
	return out
}

// normalize maps decoded YAML scalars onto int64, float64, []any and
// map[string]any so that type checking sees one representation per type.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	default:
		return v
	}
}
