package openaiclient

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
)

// New builds the shared client used for both rubric evaluation and
// transcription.
func New(cfg config.OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.KindConfig, "openai.client", "api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// Classify maps an API failure onto the error taxonomy. Rate limits,
// server errors, timeouts and network faults are transient; everything
// else from the API is a validation failure.
func Classify(op string, err error) *apperrors.Error {
	if err == nil {
		return nil
	}

	var typed *apperrors.Error
	if errors.As(err, &typed) {
		return typed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindTransient, op, "call timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Wrap(apperrors.KindTransient, op, "network failure", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return apperrors.Wrap(apperrors.KindTransient, op, "upstream unavailable", err)
		}
		return apperrors.Wrap(apperrors.KindValidation, op, "upstream rejected request", err)
	}

	return apperrors.Wrap(apperrors.KindTransient, op, "collaborator call failed", err)
}
