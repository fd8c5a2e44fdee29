package eventbus

import "time"

// Run lifecycle topics.
const (
	EventRunStarted   = "run:started"
	EventRunCompleted = "run:completed"
	EventRunFailed    = "run:failed"
	EventRunDegraded  = "run:degraded"
)

// RunEventData accompanies every run lifecycle event.
type RunEventData struct {
	RunID       string    `json:"run_id"`
	UserID      string    `json:"user_id"`
	QuestionNum int       `json:"question_num"`
	TotalScore  int       `json:"total_score,omitempty"`
	Band        string    `json:"band,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}
