package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rejot-dev/evalrun/internal/args"
	"github.com/rejot-dev/evalrun/internal/binder"
	"github.com/rejot-dev/evalrun/internal/compiler"
	"github.com/rejot-dev/evalrun/internal/config"
	"github.com/rejot-dev/evalrun/internal/env"
	"github.com/rejot-dev/evalrun/internal/launcher"
	"github.com/rejot-dev/evalrun/internal/pipeline"
	"github.com/rejot-dev/evalrun/internal/preflight"
	"github.com/rejot-dev/evalrun/internal/reporter"
	"github.com/rejot-dev/evalrun/internal/vertex"
)

const title = "evalrun"

// runner carries the collaborators of a launch so tests can swap them.
type runner struct {
	env      env.Source
	compiler launcher.Compiler
	service  launcher.Service
	models   func(ctx context.Context, project, location string) (preflight.ModelChecker, error)
	stdout   io.Writer
	launcher []launcher.Option
}

func defaultRunner() *runner {
	return &runner{
		env:      env.OS{},
		compiler: compiler.New(),
		service:  vertex.NewService(),
		models: func(ctx context.Context, project, location string) (preflight.ModelChecker, error) {
			return preflight.NewVertexModels(ctx, project, location)
		},
		stdout: os.Stdout,
	}
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd(defaultRunner()).ExecuteContext(ctx)
}

func newRootCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   title + " [options]",
		Short: "Compile an evaluation pipeline and submit it to Vertex AI Pipelines",
		Long: `evalrun compiles an evaluation pipeline, binds the command line options the
pipeline declares as parameters and submits it under a unique run name.
It returns once the run is accepted and does not wait for it to finish.`,
		// Options are parsed leniently by the args package.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, argv []string) error {
			return r.run(cmd.Context(), argv)
		},
	}
}

func (r *runner) run(ctx context.Context, argv []string) error {
	cfg, err := args.Parse(title, argv)
	if errors.Is(err, args.ErrHelp) {
		fmt.Fprint(r.stdout, args.Usage(title))
		return nil
	}
	if err != nil {
		return err
	}

	settings, err := config.Resolve(r.env)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.LogLevel != "" {
		level, _ := log.ParseLevel(settings.LogLevel)
		log.SetLevel(level)
	}

	if cfg.Bool(args.KeyKokoroTest) {
		cfg = applyKokoro(cfg, settings.Kokoro)
	}

	registry, err := pipeline.NewRegistry()
	if err != nil {
		return err
	}
	def, err := registry.Resolve(cfg.String(args.KeyPipeline))
	if err != nil {
		return err
	}

	params, err := binder.Bind(cfg, def)
	if err != nil {
		return err
	}
	log.Debug("Bound pipeline parameters", "pipeline", def.Name, "count", len(params))

	project, location := cfg.String(args.KeyProject), cfg.String(args.KeyLocation)
	if settings.Preflight.CheckModel {
		checker, err := r.models(ctx, project, location)
		if err != nil {
			return err
		}
		if err := preflight.CheckModel(ctx, checker, params); err != nil {
			return err
		}
	}

	target := launcher.DefaultTarget(project, location, cfg.String(args.KeyRootDir))
	target.Labels = settings.Labels
	target.ServiceAccount = settings.ServiceAccount
	target.Network = settings.Network

	opts := append([]launcher.Option{launcher.WithEnv(r.env)}, r.launcher...)
	handle, err := launcher.New(r.compiler, r.service, opts...).Launch(ctx, def, params, target)
	if err != nil {
		return err
	}

	rep, err := reporter.New(settings.Reporter, r.stdout)
	if err != nil {
		return err
	}
	rep.Report(&reporter.Result{Pipeline: def.Name, Parameters: params, Handle: handle})

	if cfg.Bool(args.KeyWait) {
		log.Warn("Waiting for completion is not supported, the run continues in the background", "job_id", handle.JobID)
	}
	return nil
}

// applyKokoro points the run at the CI test project.
func applyKokoro(cfg *args.Configuration, k config.Kokoro) *args.Configuration {
	cfg = cfg.With(args.KeyProject, k.Project)
	if k.RootDir != "" {
		cfg = cfg.With(args.KeyRootDir, k.RootDir)
	}
	log.Info("Kokoro test run", "project", cfg.String(args.KeyProject), "root_dir", cfg.String(args.KeyRootDir))
	return cfg
}
