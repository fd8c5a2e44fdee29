package bootstrap

import (
	"context"
	"testing"

	platformerrors "interview-eval-go/internal/platform/errors"
)

func TestInitGraphDependenciesResolvable(t *testing.T) {
	steps := InitGraph()

	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if step.Execute == nil {
			t.Errorf("step %s has no execute function", step.ID)
		}
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				t.Errorf("step %s depends on %s before it is defined", step.ID, dep)
			}
		}
		seen[step.ID] = struct{}{}
	}

	if _, ok := seen["pipeline:init-orchestrator"]; !ok {
		t.Error("graph must end with the pipeline orchestrator")
	}
}

func TestExecuteInitStepsRejectsUnmetDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			Title:     "needs a",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestExecuteInitStepsWrapsUntypedErrors(t *testing.T) {
	steps := []initStep{
		{
			ID:    "fail",
			Title: "always fails",
			Kind:  platformerrors.KindConfig,
			Execute: func(context.Context, *appState) error {
				return context.DeadlineExceeded
			},
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error from step kind, got %v", err)
	}
}

func TestExecuteInitStepsNilState(t *testing.T) {
	err := executeInitSteps(context.Background(), InitGraph(), nil)
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}
