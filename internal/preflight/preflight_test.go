package preflight

import (
	"context"
	"errors"
	"testing"
)

type fakeChecker struct {
	err     error
	checked []string
}

func (c *fakeChecker) CheckModel(ctx context.Context, model string) error {
	c.checked = append(c.checked, model)
	return c.err
}

func TestCheckModel(t *testing.T) {
	notFound := errors.New("404 not found")

	tests := []struct {
		name        string
		params      map[string]any
		checkErr    error
		wantChecked bool
		wantErr     bool
	}{
		{name: "no model parameter", params: map[string]any{"project": "acme"}},
		{name: "empty model", params: map[string]any{"model_name": ""}},
		{name: "non-string model", params: map[string]any{"model_name": true}},
		{
			name:        "available",
			params:      map[string]any{"model_name": "publishers/google/models/gemini-2.0-flash"},
			wantChecked: true,
		},
		{
			name:        "unavailable",
			params:      map[string]any{"model_name": "projects/acme/models/missing"},
			checkErr:    notFound,
			wantChecked: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeChecker{err: tt.checkErr}
			err := CheckModel(context.Background(), checker, tt.params)

			if (len(checker.checked) > 0) != tt.wantChecked {
				t.Errorf("expected checked=%v, got %v", tt.wantChecked, checker.checked)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrModelUnavailable) || !errors.Is(err, notFound) {
					t.Errorf("expected wrapped ErrModelUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
