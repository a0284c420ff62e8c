// Package compiler type-checks pipeline definitions and compiles them into
// pipeline spec artifacts.
package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rejot-dev/evalrun/internal/pipeline"
)

// SDKVersion is recorded in every compiled spec.
const SDKVersion = "evalrun-0.1.0"

var (
	inputRef  = regexp.MustCompile(`^\{\{\s*inputs\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}$`)
	outputRef = regexp.MustCompile(`^\{\{\s*tasks\.([A-Za-z0-9_-]+)\.outputs\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}$`)
	unsafe    = regexp.MustCompile(`[^a-z0-9-]+`)
)

// Compiler writes compiled pipeline specs to disk.
type Compiler struct{}

func New() *Compiler {
	return &Compiler{}
}

// Compile type-checks def and writes its pipeline spec as JSON to path.
// Nothing is written when type checking fails.
func (c *Compiler) Compile(def *pipeline.Definition, path string) error {
	spec, err := Build(def)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline spec: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline spec: %w", err)
	}

	log.Debug("Compiled pipeline", "pipeline", def.Name, "path", path, "tasks", len(def.Tasks))
	return nil
}

// Build type-checks def and returns its pipeline spec. All problems found are
// reported together in a *CompilationError.
func Build(def *pipeline.Definition) (*PipelineSpec, error) {
	if def == nil {
		return nil, &CompilationError{Problems: []string{"definition is nil"}}
	}

	c := newChecker(def)
	c.check()
	if err := c.errs.orNil(); err != nil {
		return nil, err
	}
	return emit(def, c.deps), nil
}

// PipelineName turns a declared pipeline name into the form the remote
// service accepts: lowercase letters, digits and hyphens.
func PipelineName(name string) string {
	name = unsafe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(name, "-")
}

func emit(def *pipeline.Definition, deps map[string][]string) *PipelineSpec {
	spec := &PipelineSpec{
		PipelineInfo: PipelineInfo{
			Name:        PipelineName(def.Name),
			Description: def.Description,
		},
		Root: &ComponentSpec{
			InputDefinitions: parameterDefinitions(def.Inputs),
			DAG:              &DAGSpec{Tasks: make(map[string]*TaskSpec, len(def.Tasks))},
		},
		Components:     make(map[string]*ComponentSpec, len(def.Components)),
		DeploymentSpec: DeploymentSpec{Executors: make(map[string]*ExecutorSpec, len(def.Components))},
		SchemaVersion:  schemaVersion,
		SDKVersion:     SDKVersion,
	}

	for _, comp := range def.Components {
		spec.Components[componentKey(comp.Name)] = &ComponentSpec{
			InputDefinitions:  parameterDefinitions(comp.Inputs),
			OutputDefinitions: parameterDefinitions(comp.Outputs),
			ExecutorLabel:     executorKey(comp.Name),
		}
		spec.DeploymentSpec.Executors[executorKey(comp.Name)] = &ExecutorSpec{
			Container: ContainerSpec{
				Image:   comp.Image,
				Command: comp.Command,
				Args:    comp.Args,
			},
		}
	}

	for _, task := range def.Tasks {
		ts := &TaskSpec{
			TaskInfo:       TaskInfo{Name: task.Name},
			ComponentRef:   ComponentRef{Name: componentKey(task.Component)},
			DependentTasks: deps[task.Name],
			CachingOptions: CachingOptions{EnableCache: true},
		}
		if len(task.Arguments) > 0 {
			ts.Inputs = &TaskInputsSpec{Parameters: make(map[string]*TaskInputParameter, len(task.Arguments))}
			for name, value := range task.Arguments {
				ts.Inputs.Parameters[name] = taskInput(value)
			}
		}
		spec.Root.DAG.Tasks[task.Name] = ts
	}

	return spec
}

func taskInput(value any) *TaskInputParameter {
	if s, ok := value.(string); ok {
		if m := inputRef.FindStringSubmatch(s); m != nil {
			return &TaskInputParameter{ComponentInputParameter: m[1]}
		}
		if m := outputRef.FindStringSubmatch(s); m != nil {
			return &TaskInputParameter{TaskOutputParameter: &TaskOutputParameter{
				ProducerTask:       m[1],
				OutputParameterKey: m[2],
			}}
		}
	}
	return &TaskInputParameter{RuntimeValue: &RuntimeValue{Constant: value}}
}

func parameterDefinitions(params []pipeline.Parameter) *ParameterDefinitions {
	if len(params) == 0 {
		return nil
	}
	defs := &ParameterDefinitions{Parameters: make(map[string]ParameterSpec, len(params))}
	for _, p := range params {
		defs.Parameters[p.Name] = ParameterSpec{
			ParameterType: parameterType(p.Type),
			DefaultValue:  p.Default,
			IsOptional:    p.Default != nil,
			Description:   p.Description,
		}
	}
	return defs
}

func parameterType(t pipeline.ParamType) string {
	switch t {
	case pipeline.TypeString:
		return "STRING"
	case pipeline.TypeInteger:
		return "NUMBER_INTEGER"
	case pipeline.TypeDouble:
		return "NUMBER_DOUBLE"
	case pipeline.TypeBoolean:
		return "BOOLEAN"
	case pipeline.TypeList:
		return "LIST"
	case pipeline.TypeStruct:
		return "STRUCT"
	default:
		return "PARAMETER_TYPE_ENUM_UNSPECIFIED"
	}
}

func componentKey(name string) string {
	return "comp-" + name
}

func executorKey(name string) string {
	return "exec-" + name
}
