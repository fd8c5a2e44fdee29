package storage

import (
	"time"

	"interview-eval-go/internal/domain/acoustic"
	"interview-eval-go/internal/domain/score"
	"interview-eval-go/internal/domain/transcript"
)

// Record carries everything one finished run wants persisted: the
// normalized rows for the relational store and the detailed document.
type Record struct {
	RunID          string                `json:"run_id"`
	UserID         string                `json:"user_id"`
	QuestionNum    int                   `json:"question_num"`
	Gender         string                `json:"gender"`
	AudioReference string                `json:"audio_reference"`
	Metrics        acoustic.Metrics      `json:"metrics"`
	Transcript     transcript.Transcript `json:"transcript"`
	Summary        string                `json:"summary"`
	Result         score.Aggregated      `json:"result"`
	EvaluatedAt    time.Time             `json:"evaluated_at"`
}

// Outcome reports how persistence went. Degraded means the document
// write failed while the relational rows landed.
type Outcome struct {
	Degraded bool
}
