package compiler

// The types below model the subset of the Kubeflow pipeline spec IR that
// Vertex AI Pipelines needs to run a container DAG.

const schemaVersion = "2.1.0"

type PipelineSpec struct {
	PipelineInfo   PipelineInfo              `json:"pipelineInfo"`
	Root           *ComponentSpec            `json:"root"`
	Components     map[string]*ComponentSpec `json:"components"`
	DeploymentSpec DeploymentSpec            `json:"deploymentSpec"`
	SchemaVersion  string                    `json:"schemaVersion"`
	SDKVersion     string                    `json:"sdkVersion"`
}

type PipelineInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ComponentSpec struct {
	InputDefinitions  *ParameterDefinitions `json:"inputDefinitions,omitempty"`
	OutputDefinitions *ParameterDefinitions `json:"outputDefinitions,omitempty"`
	DAG               *DAGSpec              `json:"dag,omitempty"`
	ExecutorLabel     string                `json:"executorLabel,omitempty"`
}

type ParameterDefinitions struct {
	Parameters map[string]ParameterSpec `json:"parameters"`
}

type ParameterSpec struct {
	ParameterType string `json:"parameterType"`
	DefaultValue  any    `json:"defaultValue,omitempty"`
	IsOptional    bool   `json:"isOptional,omitempty"`
	Description   string `json:"description,omitempty"`
}

type DAGSpec struct {
	Tasks map[string]*TaskSpec `json:"tasks"`
}

type TaskSpec struct {
	TaskInfo       TaskInfo        `json:"taskInfo"`
	ComponentRef   ComponentRef    `json:"componentRef"`
	DependentTasks []string        `json:"dependentTasks,omitempty"`
	Inputs         *TaskInputsSpec `json:"inputs,omitempty"`
	CachingOptions CachingOptions  `json:"cachingOptions"`
}

type TaskInfo struct {
	Name string `json:"name"`
}

type ComponentRef struct {
	Name string `json:"name"`
}

type CachingOptions struct {
	EnableCache bool `json:"enableCache"`
}

type TaskInputsSpec struct {
	Parameters map[string]*TaskInputParameter `json:"parameters"`
}

// TaskInputParameter sets exactly one of its fields.
type TaskInputParameter struct {
	ComponentInputParameter string               `json:"componentInputParameter,omitempty"`
	TaskOutputParameter     *TaskOutputParameter `json:"taskOutputParameter,omitempty"`
	RuntimeValue            *RuntimeValue        `json:"runtimeValue,omitempty"`
}

type TaskOutputParameter struct {
	ProducerTask       string `json:"producerTask"`
	OutputParameterKey string `json:"outputParameterKey"`
}

type RuntimeValue struct {
	Constant any `json:"constant"`
}

type DeploymentSpec struct {
	Executors map[string]*ExecutorSpec `json:"executors"`
}

type ExecutorSpec struct {
	Container ContainerSpec `json:"container"`
}

type ContainerSpec struct {
	Image   string   `json:"image"`
	Command []string `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}
