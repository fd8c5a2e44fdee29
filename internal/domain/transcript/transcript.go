package transcript

import "strings"

// Segment is one timed span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the ordered recognition result for one answer.
// An empty transcript is a valid outcome, not an error.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
}

// IsEmpty reports whether the answer contained no recognizable speech.
func (t Transcript) IsEmpty() bool {
	return strings.TrimSpace(t.Text) == ""
}
