package transcript

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"interview-eval-go/internal/domain/media"
	"interview-eval-go/internal/domain/providers/openaiclient"
	"interview-eval-go/internal/platform/logging"
)

// Transcriber converts normalized audio into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, asset *media.AudioAsset) (Transcript, error)
}

// WhisperTranscriber calls the hosted speech recognition model.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

func NewWhisperTranscriber(client *openai.Client, model string, logger *logging.Logger) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{client: client, model: model, logger: logger}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, asset *media.AudioAsset) (Transcript, error) {
	const op = "transcript.whisper"

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: asset.Path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: "ko",
	})
	if err != nil {
		return Transcript{}, openaiclient.Classify(op, err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	var parts []string
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
		if text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		text = strings.Join(parts, " ")
	}

	result := Transcript{Segments: segments, Text: text}
	if result.IsEmpty() {
		w.logger.InfoTag("STT", "no speech recognized in %s", asset.Path)
	} else {
		w.logger.InfoTag("STT", "recognized %d segments, %d chars", len(segments), len(text))
	}
	return result, nil
}
