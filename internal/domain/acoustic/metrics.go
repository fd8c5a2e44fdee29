package acoustic

// Metrics holds the delivery measurements extracted from one answer.
// PauseRatio is the silent fraction of total speaking time in [0,1];
// SpeechRate is syllables per second.
type Metrics struct {
	PauseRatio float64 `json:"pause_ratio"`
	SpeechRate float64 `json:"speech_rate"`
}
