package acoustic

import (
	"context"
	"fmt"

	"interview-eval-go/internal/domain/media"
	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
)

// FeatureExtractor computes raw delivery metrics from normalized audio.
// Signal-processing internals live behind this interface.
type FeatureExtractor interface {
	Extract(ctx context.Context, asset *media.AudioAsset) (Metrics, error)
}

// Analyzer validates extractor output before it reaches scoring.
// Extraction failures are fatal for the run, never retried.
type Analyzer struct {
	extractor FeatureExtractor
	logger    *logging.Logger
}

func NewAnalyzer(extractor FeatureExtractor, logger *logging.Logger) *Analyzer {
	return &Analyzer{extractor: extractor, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, asset *media.AudioAsset) (Metrics, error) {
	const op = "acoustic.analyze"

	if asset == nil || asset.Path == "" {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "missing audio asset")
	}
	if asset.Duration <= 0 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "zero duration audio")
	}

	metrics, err := a.extractor.Extract(ctx, asset)
	if err != nil {
		return Metrics{}, apperrors.Wrap(apperrors.KindAcoustic, op, "feature extraction failed", err)
	}

	if metrics.PauseRatio < 0 || metrics.PauseRatio > 1 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op,
			fmt.Sprintf("pause ratio %.3f out of range", metrics.PauseRatio))
	}
	if metrics.SpeechRate < 0 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op,
			fmt.Sprintf("negative speech rate %.3f", metrics.SpeechRate))
	}

	a.logger.InfoTag("ACOUSTIC", "pause_ratio=%.3f speech_rate=%.3f", metrics.PauseRatio, metrics.SpeechRate)
	return metrics, nil
}
