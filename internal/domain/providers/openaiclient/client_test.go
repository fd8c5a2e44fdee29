package openaiclient

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(config.OpenAIConfig{})
	if !apperrors.IsKind(err, apperrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}

	client, err := New(config.OpenAIConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, apperrors.KindTransient},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, apperrors.KindTransient},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, apperrors.KindValidation},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, apperrors.KindValidation},
		{"deadline", context.DeadlineExceeded, apperrors.KindTransient},
		{"plain network-ish", errors.New("connection reset"), apperrors.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify("test.op", tt.err)
			if !apperrors.IsKind(classified, tt.kind) {
				t.Errorf("Classify(%v) kind = %s, want %s", tt.err, classified.Kind, tt.kind)
			}
		})
	}

	if Classify("test.op", nil) != nil {
		t.Error("nil error should classify to nil")
	}

	already := apperrors.New(apperrors.KindValidation, "parse", "bad score")
	if got := Classify("test.op", already); got != already {
		t.Error("already typed errors should pass through unchanged")
	}
}
