// Package vertex submits compiled pipelines to Vertex AI Pipelines.
package vertex

import (
	"context"
	"fmt"
	"os"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/charmbracelet/log"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rejot-dev/evalrun/internal/launcher"
)

const consoleURL = "https://console.cloud.google.com/vertex-ai/locations/%s/pipelines/runs/%s?project=%s"

type pipelineClient interface {
	CreatePipelineJob(ctx context.Context, req *aiplatformpb.CreatePipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error)
	Close() error
}

type clientFactory func(ctx context.Context, location string) (pipelineClient, error)

// Service opens Vertex AI pipeline sessions on the regional endpoint.
type Service struct {
	newClient clientFactory
}

// NewService returns a Service whose clients are created with opts in
// addition to the regional endpoint.
func NewService(opts ...option.ClientOption) *Service {
	return &Service{
		newClient: func(ctx context.Context, location string) (pipelineClient, error) {
			clientOpts := append([]option.ClientOption{option.WithEndpoint(Endpoint(location))}, opts...)
			client, err := aiplatform.NewPipelineClient(ctx, clientOpts...)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

func (s *Service) Open(ctx context.Context, project, location string) (launcher.Session, error) {
	if project == "" || location == "" {
		return nil, fmt.Errorf("project and location are required, got %q and %q", project, location)
	}
	client, err := s.newClient(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline client: %w", err)
	}
	log.Debug("Opened Vertex AI session", "project", project, "location", location)
	return &Session{client: client, project: project, location: location}, nil
}

// Endpoint returns the regional API endpoint for location.
func Endpoint(location string) string {
	return location + "-aiplatform.googleapis.com:443"
}

// Session submits pipeline jobs to one project and location.
type Session struct {
	client   pipelineClient
	project  string
	location string
}

func (s *Session) Submit(ctx context.Context, req *launcher.JobRequest) (*launcher.JobHandle, error) {
	job, err := BuildPipelineJob(req)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreatePipelineJob(ctx, &aiplatformpb.CreatePipelineJobRequest{
		Parent:        s.parent(),
		PipelineJob:   job,
		PipelineJobId: req.JobID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline job: %w", err)
	}

	handle := &launcher.JobHandle{
		Name:        created.GetName(),
		JobID:       req.JobID,
		DisplayName: created.GetDisplayName(),
		State:       created.GetState().String(),
		ConsoleURL:  fmt.Sprintf(consoleURL, s.location, req.JobID, s.project),
	}
	log.Debug("Pipeline job created", "name", handle.Name, "state", handle.State)
	return handle, nil
}

func (s *Session) Close() error {
	return s.client.Close()
}

func (s *Session) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.project, s.location)
}

// BuildPipelineJob converts req into a PipelineJob, reading the compiled
// pipeline spec from req.TemplatePath.
func BuildPipelineJob(req *launcher.JobRequest) (*aiplatformpb.PipelineJob, error) {
	data, err := os.ReadFile(req.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline spec: %w", err)
	}
	spec := &structpb.Struct{}
	if err := protojson.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline spec %s: %w", req.TemplatePath, err)
	}
	SetCaching(spec, req.EnableCaching)

	params, err := parameterValues(req.ParameterValues)
	if err != nil {
		return nil, err
	}

	return &aiplatformpb.PipelineJob{
		DisplayName:    req.DisplayName,
		PipelineSpec:   spec,
		Labels:         req.Labels,
		ServiceAccount: req.ServiceAccount,
		Network:        req.Network,
		RuntimeConfig: &aiplatformpb.PipelineJob_RuntimeConfig{
			GcsOutputDirectory: req.PipelineRoot,
			ParameterValues:    params,
		},
	}, nil
}

// SetCaching sets cachingOptions.enableCache on every task of the root DAG
// and of any component with its own DAG.
func SetCaching(spec *structpb.Struct, enable bool) {
	setDAGCaching(spec.GetFields()["root"], enable)
	for _, comp := range spec.GetFields()["components"].GetStructValue().GetFields() {
		setDAGCaching(comp, enable)
	}
}

func setDAGCaching(component *structpb.Value, enable bool) {
	dag := component.GetStructValue().GetFields()["dag"]
	tasks := dag.GetStructValue().GetFields()["tasks"].GetStructValue()
	for _, task := range tasks.GetFields() {
		fields := task.GetStructValue().GetFields()
		if fields == nil {
			continue
		}
		fields["cachingOptions"] = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{"enableCache": structpb.NewBoolValue(enable)},
		})
	}
}

func parameterValues(values map[string]any) (map[string]*structpb.Value, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]*structpb.Value, len(values))
	for name, v := range values {
		pv, err := structpb.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameter %s: %w", name, err)
		}
		out[name] = pv
	}
	return out, nil
}
