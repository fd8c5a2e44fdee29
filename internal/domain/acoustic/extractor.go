package acoustic

import (
	"context"
	"encoding/binary"
	"math"
	"os"

	"interview-eval-go/internal/domain/media"
	apperrors "interview-eval-go/internal/platform/errors"
)

const (
	windowMillis = 30
	// windows quieter than this fraction of the mean RMS count as pause
	silenceRelThreshold = 0.25
)

// PCMExtractor derives delivery metrics from 16-bit PCM wav samples.
// Pause ratio comes from RMS energy windows; speech rate from counting
// energy peaks (syllable nuclei) over voiced time.
type PCMExtractor struct{}

func NewPCMExtractor() *PCMExtractor {
	return &PCMExtractor{}
}

func (e *PCMExtractor) Extract(ctx context.Context, asset *media.AudioAsset) (Metrics, error) {
	const op = "acoustic.extract"

	data, err := os.ReadFile(asset.Path)
	if err != nil {
		return Metrics{}, apperrors.Wrap(apperrors.KindAcoustic, op, "read audio file", err)
	}
	if len(data) <= 44 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "audio file has no samples")
	}
	samples := pcm16Samples(data[44:])
	if len(samples) == 0 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "audio file has no samples")
	}

	windowSize := asset.SampleRate * asset.Channels * windowMillis / 1000
	if windowSize <= 0 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "invalid sample rate")
	}

	energies := windowRMS(samples, windowSize)
	if len(energies) == 0 {
		return Metrics{}, apperrors.New(apperrors.KindAcoustic, op, "audio shorter than one window")
	}

	var sum float64
	for _, e := range energies {
		sum += e
	}
	threshold := silenceRelThreshold * sum / float64(len(energies))

	silent := 0
	for _, e := range energies {
		if e < threshold {
			silent++
		}
	}
	pauseRatio := float64(silent) / float64(len(energies))

	voicedSeconds := float64(len(energies)-silent) * windowMillis / 1000.0
	peaks := countPeaks(energies, threshold)

	var speechRate float64
	if voicedSeconds > 0 {
		speechRate = float64(peaks) / voicedSeconds
	}

	select {
	case <-ctx.Done():
		return Metrics{}, apperrors.Wrap(apperrors.KindAcoustic, op, "extraction cancelled", ctx.Err())
	default:
	}

	return Metrics{PauseRatio: pauseRatio, SpeechRate: speechRate}, nil
}

func pcm16Samples(data []byte) []float64 {
	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768.0
	}
	return samples
}

func windowRMS(samples []float64, windowSize int) []float64 {
	var energies []float64
	for start := 0; start+windowSize <= len(samples); start += windowSize {
		var sum float64
		for _, s := range samples[start : start+windowSize] {
			sum += s * s
		}
		energies = append(energies, math.Sqrt(sum/float64(windowSize)))
	}
	return energies
}

// countPeaks counts local maxima above the threshold, one per rise.
func countPeaks(energies []float64, threshold float64) int {
	peaks := 0
	rising := false
	for i := 1; i < len(energies); i++ {
		if energies[i] >= threshold && energies[i] > energies[i-1] {
			rising = true
			continue
		}
		if rising && energies[i] < energies[i-1] {
			peaks++
			rising = false
		}
	}
	if rising {
		peaks++
	}
	return peaks
}
