package compiler

import (
	"maps"
	"slices"
	"strings"

	"github.com/rejot-dev/evalrun/internal/pipeline"
)

type checker struct {
	def    *pipeline.Definition
	errs   *CompilationError
	inputs map[string]pipeline.Parameter
	comps  map[string]*pipeline.Component
	tasks  map[string]*pipeline.Task
	// deps maps a task to its upstream tasks, explicit and implied by
	// output references, sorted.
	deps map[string][]string
}

func newChecker(def *pipeline.Definition) *checker {
	return &checker{
		def:   def,
		errs:  &CompilationError{Pipeline: def.Name},
		comps: make(map[string]*pipeline.Component, len(def.Components)),
		tasks: make(map[string]*pipeline.Task, len(def.Tasks)),
		deps:  make(map[string][]string, len(def.Tasks)),
	}
}

func (c *checker) check() {
	if strings.TrimSpace(c.def.Name) == "" {
		c.errs.add("pipeline name is required")
	} else if PipelineName(c.def.Name) == "" {
		c.errs.add("pipeline name %q has no usable characters", c.def.Name)
	}

	c.inputs = c.checkParameters("input", c.def.Inputs)

	for i := range c.def.Components {
		comp := &c.def.Components[i]
		if comp.Name == "" {
			c.errs.add("component[%d] name is required", i)
			continue
		}
		if _, dup := c.comps[comp.Name]; dup {
			c.errs.add("duplicate component %q", comp.Name)
			continue
		}
		c.comps[comp.Name] = comp
		if strings.TrimSpace(comp.Image) == "" {
			c.errs.add("component %q image is required", comp.Name)
		}
		c.checkParameters("component "+comp.Name+" input", comp.Inputs)
		c.checkParameters("component "+comp.Name+" output", comp.Outputs)
	}

	if len(c.def.Tasks) == 0 {
		c.errs.add("pipeline has no tasks")
	}
	for i := range c.def.Tasks {
		task := &c.def.Tasks[i]
		if task.Name == "" {
			c.errs.add("task[%d] name is required", i)
			continue
		}
		if _, dup := c.tasks[task.Name]; dup {
			c.errs.add("duplicate task %q", task.Name)
			continue
		}
		c.tasks[task.Name] = task
	}

	for _, name := range slices.Sorted(maps.Keys(c.tasks)) {
		c.checkTask(c.tasks[name])
	}

	if task := c.findCycle(); task != "" {
		c.errs.add("task dependencies contain a cycle through %q", task)
	}
}

func (c *checker) checkParameters(scope string, params []pipeline.Parameter) map[string]pipeline.Parameter {
	out := make(map[string]pipeline.Parameter, len(params))
	for i, p := range params {
		if p.Name == "" {
			c.errs.add("%s[%d] name is required", scope, i)
			continue
		}
		if _, dup := out[p.Name]; dup {
			c.errs.add("duplicate %s %q", scope, p.Name)
			continue
		}
		out[p.Name] = p
		if !p.Type.Valid() {
			c.errs.add("%s %q has unknown type %q", scope, p.Name, p.Type)
			continue
		}
		if p.Default != nil && !matches(p.Type, p.Default) {
			c.errs.add("%s %q default %v is not of type %s", scope, p.Name, p.Default, p.Type)
		}
	}
	return out
}

func (c *checker) checkTask(task *pipeline.Task) {
	upstream := make(map[string]bool)
	for _, dep := range task.DependsOn {
		switch _, ok := c.tasks[dep]; {
		case dep == task.Name:
			c.errs.add("task %q depends on itself", task.Name)
		case !ok:
			c.errs.add("task %q depends on unknown task %q", task.Name, dep)
		default:
			upstream[dep] = true
		}
	}

	comp, ok := c.comps[task.Component]
	if !ok {
		c.errs.add("task %q references unknown component %q", task.Name, task.Component)
		c.deps[task.Name] = slices.Sorted(maps.Keys(upstream))
		return
	}

	declared := make(map[string]pipeline.Parameter, len(comp.Inputs))
	for _, in := range comp.Inputs {
		declared[in.Name] = in
	}

	for _, name := range slices.Sorted(maps.Keys(task.Arguments)) {
		in, ok := declared[name]
		if !ok {
			c.errs.add("task %q passes unknown input %q to component %q", task.Name, name, comp.Name)
			continue
		}
		c.checkArgument(task, in, task.Arguments[name], upstream)
	}

	for _, in := range comp.Inputs {
		if in.Default != nil {
			continue
		}
		if _, ok := task.Arguments[in.Name]; !ok {
			c.errs.add("task %q is missing required input %q", task.Name, in.Name)
		}
	}

	c.deps[task.Name] = slices.Sorted(maps.Keys(upstream))
}

func (c *checker) checkArgument(task *pipeline.Task, in pipeline.Parameter, value any, upstream map[string]bool) {
	s, ok := value.(string)
	if !ok || !strings.Contains(s, "{{") {
		if !matches(in.Type, value) {
			c.errs.add("task %q input %q: constant %v is not of type %s", task.Name, in.Name, value, in.Type)
		}
		return
	}

	if m := inputRef.FindStringSubmatch(s); m != nil {
		src, ok := c.inputs[m[1]]
		if !ok {
			c.errs.add("task %q input %q references unknown pipeline input %q", task.Name, in.Name, m[1])
			return
		}
		if src.Type != in.Type {
			c.errs.add("task %q input %q expects %s but pipeline input %q is %s", task.Name, in.Name, in.Type, m[1], src.Type)
		}
		return
	}

	if m := outputRef.FindStringSubmatch(s); m != nil {
		producer, output := m[1], m[2]
		if producer == task.Name {
			c.errs.add("task %q input %q references its own output", task.Name, in.Name)
			return
		}
		out, ok := c.output(producer, output)
		if !ok {
			c.errs.add("task %q input %q references unknown output %q of task %q", task.Name, in.Name, output, producer)
			return
		}
		if out.Type != in.Type {
			c.errs.add("task %q input %q expects %s but output %q of task %q is %s", task.Name, in.Name, in.Type, output, producer, out.Type)
		}
		upstream[producer] = true
		return
	}

	c.errs.add("task %q input %q has malformed reference %q", task.Name, in.Name, s)
}

func (c *checker) output(taskName, name string) (pipeline.Parameter, bool) {
	task, ok := c.tasks[taskName]
	if !ok {
		return pipeline.Parameter{}, false
	}
	comp, ok := c.comps[task.Component]
	if !ok {
		return pipeline.Parameter{}, false
	}
	for _, out := range comp.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return pipeline.Parameter{}, false
}

// findCycle returns a task on a dependency cycle, or "" if there is none.
func (c *checker) findCycle() string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.deps))
	var visit func(string) bool
	visit = func(node string) bool {
		switch state[node] {
		case visiting:
			return true
		case done:
			return false
		}
		state[node] = visiting
		for _, next := range c.deps[node] {
			if visit(next) {
				return true
			}
		}
		state[node] = done
		return false
	}

	for _, name := range slices.Sorted(maps.Keys(c.deps)) {
		if state[name] == unvisited && visit(name) {
			return name
		}
	}
	return ""
}

func matches(t pipeline.ParamType, v any) bool {
	switch t {
	case pipeline.TypeString:
		_, ok := v.(string)
		return ok
	case pipeline.TypeInteger:
		switch v.(type) {
		case int, int64:
			return true
		}
		return false
	case pipeline.TypeDouble:
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case pipeline.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case pipeline.TypeList:
		_, ok := v.([]any)
		return ok
	case pipeline.TypeStruct:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}
