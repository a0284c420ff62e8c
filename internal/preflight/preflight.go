// Package preflight runs optional checks before a pipeline is submitted.
package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

// ParamModelName is the pipeline parameter holding the model under
// evaluation.
const ParamModelName = "model_name"

var ErrModelUnavailable = errors.New("model is not available")

// ModelChecker reports whether a model can be served in the target project.
type ModelChecker interface {
	CheckModel(ctx context.Context, model string) error
}

// CheckModel verifies the model_name parameter when one is bound. Runs that
// do not pass a model are left alone.
func CheckModel(ctx context.Context, checker ModelChecker, params map[string]any) error {
	model, _ := params[ParamModelName].(string)
	if model == "" {
		log.Debug("No model to check")
		return nil
	}
	if err := checker.CheckModel(ctx, model); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrModelUnavailable, model, err)
	}
	log.Debug("Model available", "model", model)
	return nil
}

// VertexModels looks models up through the Vertex AI backend of the genai
// client.
type VertexModels struct {
	client *genai.Client
}

func NewVertexModels(ctx context.Context, project, location string) (*VertexModels, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexModels{client: client}, nil
}

func (m *VertexModels) CheckModel(ctx context.Context, model string) error {
	got, err := m.client.Models.Get(ctx, model, nil)
	if err != nil {
		return err
	}
	if got == nil || got.Name == "" {
		return fmt.Errorf("empty model response")
	}
	return nil
}
