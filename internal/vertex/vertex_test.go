package vertex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/google/go-cmp/cmp"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rejot-dev/evalrun/internal/launcher"
)

const testSpec = `{
  "pipelineInfo": {"name": "demo-eval"},
  "root": {
    "dag": {
      "tasks": {
        "predict": {"taskInfo": {"name": "predict"}, "cachingOptions": {"enableCache": true}},
        "evaluate": {"taskInfo": {"name": "evaluate"}}
      }
    }
  },
  "components": {
    "comp-predict": {"executorLabel": "exec-predict"},
    "comp-nested": {"dag": {"tasks": {"inner": {"taskInfo": {"name": "inner"}}}}}
  }
}`

type fakeClient struct {
	err    error
	req    *aiplatformpb.CreatePipelineJobRequest
	closed bool
}

func (c *fakeClient) CreatePipelineJob(ctx context.Context, req *aiplatformpb.CreatePipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.req = req
	return &aiplatformpb.PipelineJob{
		Name:        req.Parent + "/pipelineJobs/" + req.PipelineJobId,
		DisplayName: req.PipelineJob.DisplayName,
		State:       aiplatformpb.PipelineState_PIPELINE_STATE_PENDING,
	}, nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func writeSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.json")
	if err := os.WriteFile(path, []byte(testSpec), 0644); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}
	return path
}

func testRequest(path string) *launcher.JobRequest {
	return &launcher.JobRequest{
		DisplayName:     "alice-demo-eval-abcd1234",
		JobID:           "alice-demo-eval-abcd1234",
		TemplatePath:    path,
		PipelineRoot:    "gs://bucket/root",
		ParameterValues: map[string]any{"project": "acme", "wait": true},
		EnableCaching:   false,
		Labels:          map[string]string{"team": "eval"},
		ServiceAccount:  "runner@acme.iam.gserviceaccount.com",
	}
}

func newTestService(client *fakeClient) *Service {
	return &Service{newClient: func(ctx context.Context, location string) (pipelineClient, error) {
		return client, nil
	}}
}

func TestSession_Submit(t *testing.T) {
	client := &fakeClient{}
	session, err := newTestService(client).Open(context.Background(), "acme", "us-central1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	handle, err := session.Submit(context.Background(), testRequest(writeSpec(t)))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := &launcher.JobHandle{
		Name:        "projects/acme/locations/us-central1/pipelineJobs/alice-demo-eval-abcd1234",
		JobID:       "alice-demo-eval-abcd1234",
		DisplayName: "alice-demo-eval-abcd1234",
		State:       "PIPELINE_STATE_PENDING",
		ConsoleURL:  "https://console.cloud.google.com/vertex-ai/locations/us-central1/pipelines/runs/alice-demo-eval-abcd1234?project=acme",
	}
	if diff := cmp.Diff(want, handle); diff != "" {
		t.Errorf("unexpected handle (-want +got):\n%s", diff)
	}

	if client.req.Parent != "projects/acme/locations/us-central1" {
		t.Errorf("unexpected parent %s", client.req.Parent)
	}
	if client.req.PipelineJobId != "alice-demo-eval-abcd1234" {
		t.Errorf("unexpected job id %s", client.req.PipelineJobId)
	}
	job := client.req.PipelineJob
	if job.GetRuntimeConfig().GetGcsOutputDirectory() != "gs://bucket/root" {
		t.Errorf("unexpected output directory %s", job.GetRuntimeConfig().GetGcsOutputDirectory())
	}
	if job.GetServiceAccount() != "runner@acme.iam.gserviceaccount.com" {
		t.Errorf("unexpected service account %s", job.GetServiceAccount())
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !client.closed {
		t.Error("expected client to be closed")
	}
}

func TestSession_SubmitError(t *testing.T) {
	cause := errors.New("quota exceeded")
	session, err := newTestService(&fakeClient{err: cause}).Open(context.Background(), "acme", "us-central1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err = session.Submit(context.Background(), testRequest(writeSpec(t)))
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

func TestService_OpenRequiresScope(t *testing.T) {
	svc := newTestService(&fakeClient{})
	if _, err := svc.Open(context.Background(), "", "us-central1"); err == nil {
		t.Error("expected error for empty project")
	}
	if _, err := svc.Open(context.Background(), "acme", ""); err == nil {
		t.Error("expected error for empty location")
	}
}

func TestBuildPipelineJob(t *testing.T) {
	job, err := BuildPipelineJob(testRequest(writeSpec(t)))
	if err != nil {
		t.Fatalf("BuildPipelineJob failed: %v", err)
	}

	wantParams := map[string]*structpb.Value{
		"project": structpb.NewStringValue("acme"),
		"wait":    structpb.NewBoolValue(true),
	}
	if diff := cmp.Diff(wantParams, job.GetRuntimeConfig().GetParameterValues(), protocmp.Transform()); diff != "" {
		t.Errorf("unexpected parameters (-want +got):\n%s", diff)
	}
	if job.GetPipelineSpec().GetFields()["pipelineInfo"] == nil {
		t.Error("expected pipeline spec to be carried over")
	}
	if diff := cmp.Diff(map[string]string{"team": "eval"}, job.GetLabels()); diff != "" {
		t.Errorf("unexpected labels (-want +got):\n%s", diff)
	}
}

func TestBuildPipelineJob_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		req := testRequest(filepath.Join(t.TempDir(), "missing.json"))
		if _, err := BuildPipelineJob(req); err == nil || !strings.Contains(err.Error(), "failed to read pipeline spec") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := BuildPipelineJob(testRequest(path)); err == nil || !strings.Contains(err.Error(), "failed to parse pipeline spec") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("unsupported parameter", func(t *testing.T) {
		req := testRequest(writeSpec(t))
		req.ParameterValues = map[string]any{"bad": struct{}{}}
		if _, err := BuildPipelineJob(req); err == nil || !strings.Contains(err.Error(), "failed to convert parameter bad") {
			t.Errorf("expected conversion error, got %v", err)
		}
	})
}

func TestSetCaching(t *testing.T) {
	for _, enable := range []bool{true, false} {
		spec := &structpb.Struct{}
		if err := protojson.Unmarshal([]byte(testSpec), spec); err != nil {
			t.Fatalf("failed to parse spec: %v", err)
		}
		SetCaching(spec, enable)

		tasks := []*structpb.Value{
			spec.Fields["root"].GetStructValue().Fields["dag"].GetStructValue().Fields["tasks"].GetStructValue().Fields["predict"],
			spec.Fields["root"].GetStructValue().Fields["dag"].GetStructValue().Fields["tasks"].GetStructValue().Fields["evaluate"],
			spec.Fields["components"].GetStructValue().Fields["comp-nested"].GetStructValue().Fields["dag"].GetStructValue().Fields["tasks"].GetStructValue().Fields["inner"],
		}
		for i, task := range tasks {
			got := task.GetStructValue().Fields["cachingOptions"].GetStructValue().Fields["enableCache"].GetBoolValue()
			if got != enable {
				t.Errorf("task %d: expected enableCache %v, got %v", i, enable, got)
			}
		}
		if _, ok := spec.Fields["components"].GetStructValue().Fields["comp-predict"].GetStructValue().Fields["dag"]; ok {
			t.Error("component without a dag must be left alone")
		}
	}
}

func TestEndpoint(t *testing.T) {
	if got := Endpoint("europe-west4"); got != "europe-west4-aiplatform.googleapis.com:443" {
		t.Errorf("unexpected endpoint %s", got)
	}
}
