package acoustic

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview-eval-go/internal/domain/media"
	apperrors "interview-eval-go/internal/platform/errors"
	platformtesting "interview-eval-go/internal/platform/testing"
)

type stubExtractor struct {
	metrics Metrics
	err     error
	calls   int
}

func (s *stubExtractor) Extract(ctx context.Context, asset *media.AudioAsset) (Metrics, error) {
	s.calls++
	return s.metrics, s.err
}

func validAsset() *media.AudioAsset {
	return &media.AudioAsset{
		Path:       "/tmp/answer.wav",
		Duration:   12 * time.Second,
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)

	t.Run("passes through valid metrics", func(t *testing.T) {
		ext := &stubExtractor{metrics: Metrics{PauseRatio: 0.12, SpeechRate: 5.4}}
		analyzer := NewAnalyzer(ext, logger)

		m, err := analyzer.Analyze(context.Background(), validAsset())
		platformtesting.AssertNoError(t, err)
		if m.PauseRatio != 0.12 || m.SpeechRate != 5.4 {
			t.Errorf("unexpected metrics %+v", m)
		}
	})

	t.Run("zero duration asset is fatal", func(t *testing.T) {
		ext := &stubExtractor{}
		analyzer := NewAnalyzer(ext, logger)

		asset := validAsset()
		asset.Duration = 0
		_, err := analyzer.Analyze(context.Background(), asset)
		if !apperrors.IsKind(err, apperrors.KindAcoustic) {
			t.Fatalf("expected acoustic kind, got %v", err)
		}
		if ext.calls != 0 {
			t.Error("extractor must not run for an invalid asset")
		}
	})

	t.Run("extractor failure wraps as acoustic", func(t *testing.T) {
		ext := &stubExtractor{err: errors.New("decoder blew up")}
		analyzer := NewAnalyzer(ext, logger)

		_, err := analyzer.Analyze(context.Background(), validAsset())
		if !apperrors.IsKind(err, apperrors.KindAcoustic) {
			t.Fatalf("expected acoustic kind, got %v", err)
		}
		if apperrors.Retryable(err) {
			t.Error("acoustic failures must not be retryable")
		}
	})

	t.Run("out of range pause ratio rejected", func(t *testing.T) {
		ext := &stubExtractor{metrics: Metrics{PauseRatio: 1.2, SpeechRate: 5.0}}
		analyzer := NewAnalyzer(ext, logger)

		_, err := analyzer.Analyze(context.Background(), validAsset())
		if !apperrors.IsKind(err, apperrors.KindAcoustic) {
			t.Fatalf("expected acoustic kind, got %v", err)
		}
	})
}
