// Package launcher compiles a pipeline definition and submits it to a remote
// pipeline service under a freshly generated run identity. It returns as soon
// as the service has accepted the job.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/rejot-dev/evalrun/internal/env"
	"github.com/rejot-dev/evalrun/internal/pipeline"
)

const (
	// EnvUser namespaces run identities.
	EnvUser = "USER"
	// EnvEnableCache overrides Target.EnableCaching when set.
	EnvEnableCache = "ENABLE_CACHE"

	defaultUser = "test"
)

// ErrSubmission wraps every failure reported by the remote service.
var ErrSubmission = errors.New("pipeline submission failed")

// Compiler type-checks a definition and writes the compiled artifact to path.
type Compiler interface {
	Compile(def *pipeline.Definition, path string) error
}

// Service opens sessions against the remote pipeline service.
type Service interface {
	Open(ctx context.Context, project, location string) (Session, error)
}

// Session submits jobs within one (project, location) scope.
type Session interface {
	Submit(ctx context.Context, req *JobRequest) (*JobHandle, error)
	Close() error
}

// Target describes where and how a run is launched.
type Target struct {
	Project  string
	Location string
	// RootDir is the storage URI under which the service stages run
	// artifacts.
	RootDir        string
	EnableCaching  bool
	Labels         map[string]string
	ServiceAccount string
	Network        string
}

// DefaultTarget returns a Target with caching enabled.
func DefaultTarget(project, location, rootDir string) Target {
	return Target{
		Project:       project,
		Location:      location,
		RootDir:       rootDir,
		EnableCaching: true,
	}
}

// JobRequest is what a Session submits.
type JobRequest struct {
	DisplayName     string
	JobID           string
	TemplatePath    string
	PipelineRoot    string
	ParameterValues map[string]any
	EnableCaching   bool
	Labels          map[string]string
	ServiceAccount  string
	Network         string
}

// JobHandle references a submitted run. The run itself lives on in the
// remote service.
type JobHandle struct {
	Name        string
	JobID       string
	DisplayName string
	State       string
	ConsoleURL  string
}

type Option func(*Launcher)

func WithEnv(src env.Source) Option {
	return func(l *Launcher) { l.env = src }
}

func WithRand(r RandomSource) Option {
	return func(l *Launcher) { l.rand = r }
}

// WithTempDir sets the directory compiled artifacts are written to. The
// default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(l *Launcher) { l.tempDir = dir }
}

type Launcher struct {
	compiler Compiler
	service  Service
	env      env.Source
	rand     RandomSource
	tempDir  string
}

func New(compiler Compiler, service Service, opts ...Option) *Launcher {
	l := &Launcher{
		compiler: compiler,
		service:  service,
		env:      env.OS{},
		rand:     DefaultRandom(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch compiles def, submits it with params and returns the handle of the
// submitted job. It does not wait for the job to run.
func (l *Launcher) Launch(ctx context.Context, def *pipeline.Definition, params map[string]any, target Target) (*JobHandle, error) {
	if def == nil {
		return nil, errors.New("pipeline definition is required")
	}

	enableCaching, err := env.Bool(l.env, EnvEnableCache, target.EnableCaching)
	if err != nil {
		return nil, fmt.Errorf("invalid caching override: %w", err)
	}

	templatePath, err := l.compile(def)
	if err != nil {
		return nil, err
	}

	session, err := l.service.Open(ctx, target.Project, target.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open session for %s/%s: %w", ErrSubmission, target.Project, target.Location, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close pipeline session", "error", err)
		}
	}()

	runID := NewRunIdentity(l.env, l.rand, def.Name)
	req := &JobRequest{
		DisplayName:     runID,
		JobID:           runID,
		TemplatePath:    templatePath,
		PipelineRoot:    target.RootDir,
		ParameterValues: params,
		EnableCaching:   enableCaching,
		Labels:          target.Labels,
		ServiceAccount:  target.ServiceAccount,
		Network:         target.Network,
	}

	log.Info("Submitting pipeline job",
		"pipeline", def.Name,
		"job_id", runID,
		"project", target.Project,
		"location", target.Location,
		"caching", enableCaching)

	handle, err := session.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubmission, runID, err)
	}
	return handle, nil
}

// compile writes the compiled artifact to a new temporary file and returns
// its path. The file is left in place for the service to read.
func (l *Launcher) compile(def *pipeline.Definition) (string, error) {
	f, err := os.CreateTemp(l.tempDir, def.Name+"-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create pipeline artifact file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to create pipeline artifact file: %w", err)
	}

	if err := l.compiler.Compile(def, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	log.Debug("Pipeline artifact written", "path", path)
	return path, nil
}
