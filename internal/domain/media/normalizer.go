package media

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"time"

	apperrors "interview-eval-go/internal/platform/errors"
)

// Normalizer converts raw fetched audio into the canonical format the
// analyzers expect. Codec and container internals live behind this
// interface.
type Normalizer interface {
	Normalize(ctx context.Context, rawPath string) (*AudioAsset, error)
}

// WavPassthrough handles input that is already canonical PCM wav. It reads
// the header for metadata and hands the file through unchanged.
type WavPassthrough struct{}

func NewWavPassthrough() *WavPassthrough {
	return &WavPassthrough{}
}

func (n *WavPassthrough) Normalize(ctx context.Context, rawPath string) (*AudioAsset, error) {
	const op = "media.normalize"

	f, err := os.Open(rawPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAcoustic, op, "open audio file", err)
	}
	defer f.Close()

	header := make([]byte, 44)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, apperrors.Wrap(apperrors.KindAcoustic, op, "read wav header", err)
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, apperrors.New(apperrors.KindAcoustic, op, "not a wav file")
	}

	channels := int(binary.LittleEndian.Uint16(header[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(header[24:28]))
	byteRate := int(binary.LittleEndian.Uint32(header[28:32]))
	if sampleRate <= 0 || byteRate <= 0 || channels <= 0 {
		return nil, apperrors.New(apperrors.KindAcoustic, op, "malformed wav header")
	}

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAcoustic, op, "stat audio file", err)
	}
	dataBytes := info.Size() - int64(len(header))
	if dataBytes <= 0 {
		return nil, apperrors.New(apperrors.KindAcoustic, op, "audio file has no samples")
	}

	duration := time.Duration(float64(dataBytes) / float64(byteRate) * float64(time.Second))
	if duration <= 0 {
		return nil, apperrors.New(apperrors.KindAcoustic, op, "zero duration audio")
	}

	return &AudioAsset{
		Path:       rawPath,
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}
