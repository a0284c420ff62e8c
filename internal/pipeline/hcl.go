package pipeline

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclDefinition is the top-level structure of an HCL pipeline file.
type hclDefinition struct {
	Name        string          `hcl:"name"`
	Description string          `hcl:"description,optional"`
	Inputs      []*hclParameter `hcl:"input,block"`
	Components  []*hclComponent `hcl:"component,block"`
	Tasks       []*hclTask      `hcl:"task,block"`
}

type hclParameter struct {
	Name        string    `hcl:"name,label"`
	Type        string    `hcl:"type"`
	Description string    `hcl:"description,optional"`
	Default     cty.Value `hcl:"default,optional"`
}

type hclComponent struct {
	Name    string          `hcl:"name,label"`
	Image   string          `hcl:"image"`
	Command []string        `hcl:"command,optional"`
	Args    []string        `hcl:"args,optional"`
	Inputs  []*hclParameter `hcl:"input,block"`
	Outputs []*hclParameter `hcl:"output,block"`
}

type hclTask struct {
	Name      string    `hcl:"name,label"`
	Component string    `hcl:"component"`
	DependsOn []string  `hcl:"depends_on,optional"`
	Arguments cty.Value `hcl:"arguments,optional"`
}

// ParseHCL decodes an HCL pipeline definition. filename is only used in
// diagnostics.
func ParseHCL(filename string, src []byte) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var raw hclDefinition
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	inputs, err := fromHCLParameters(raw.Inputs)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", raw.Name, err)
	}
	def := &Definition{
		Name:        raw.Name,
		Description: raw.Description,
		Inputs:      inputs,
	}

	for _, c := range raw.Components {
		in, err := fromHCLParameters(c.Inputs)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name, err)
		}
		out, err := fromHCLParameters(c.Outputs)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name, err)
		}
		def.Components = append(def.Components, Component{
			Name:    c.Name,
			Image:   c.Image,
			Command: c.Command,
			Args:    c.Args,
			Inputs:  in,
			Outputs: out,
		})
	}

	for _, t := range raw.Tasks {
		args, err := ctyToGo(t.Arguments)
		if err != nil {
			return nil, fmt.Errorf("task %s arguments: %w", t.Name, err)
		}
		argMap, ok := args.(map[string]any)
		if args != nil && !ok {
			return nil, fmt.Errorf("task %s arguments must be an object", t.Name)
		}
		def.Tasks = append(def.Tasks, Task{
			Name:      t.Name,
			Component: t.Component,
			DependsOn: t.DependsOn,
			Arguments: argMap,
		})
	}

	return def, nil
}

func fromHCLParameters(params []*hclParameter) ([]Parameter, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		def, err := ctyToGo(p.Default)
		if err != nil {
			return nil, fmt.Errorf("default of %s: %w", p.Name, err)
		}
		out = append(out, Parameter{
			Name:        p.Name,
			Type:        ParamType(p.Type),
			Description: p.Description,
			Default:     def,
		})
	}
	return out, nil
}

// ctyToGo converts a cty value into the same Go representation the YAML
// loader produces. Null converts to nil.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType(), ty.IsTupleType(), ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			g, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			g, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
