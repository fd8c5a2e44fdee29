package acoustic

import "testing"

func TestScorer_PauseScore(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"fluent", 0.05, 20},
		{"just under first boundary", 0.169, 20},
		{"exactly 0.17 falls to middle band", 0.17, 10},
		{"middle band", 0.20, 10},
		{"just under upper boundary", 0.249, 10},
		{"exactly 0.25 scores zero", 0.25, 0},
		{"heavy pausing", 0.60, 0},
		{"complete silence", 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.PauseScore(tt.ratio); got != tt.want {
				t.Errorf("PauseScore(%v) = %d, want %d", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestScorer_RateScore(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name string
		rate float64
		want int
	}{
		{"center band low edge", 5.22, 20},
		{"center band", 5.5, 20},
		{"center band high edge", 5.76, 20},
		{"slightly slow", 4.68, 15},
		{"just below center", 5.21, 15},
		{"slightly fast", 5.77, 15},
		{"fast band high edge", 6.12, 15},
		{"slow outer band low edge", 4.50, 10},
		{"slow outer band", 4.60, 10},
		{"fast outer band", 6.30, 10},
		{"fast outer band high edge", 6.48, 10},
		{"too slow", 4.49, 0},
		{"very slow", 4.2, 0},
		{"too fast", 6.49, 0},
		{"extreme", 9.0, 0},
		{"zero", 0.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.RateScore(tt.rate); got != tt.want {
				t.Errorf("RateScore(%v) = %d, want %d", tt.rate, got, tt.want)
			}
		})
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name    string
		metrics Metrics
		want    int
	}{
		{"best delivery", Metrics{PauseRatio: 0.15, SpeechRate: 5.5}, 40},
		{"worst delivery", Metrics{PauseRatio: 0.30, SpeechRate: 4.0}, 0},
		{"mixed", Metrics{PauseRatio: 0.20, SpeechRate: 6.0}, 25},
		{"good pause bad rate", Metrics{PauseRatio: 0.10, SpeechRate: 8.0}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Score(tt.metrics); got != tt.want {
				t.Errorf("Score(%+v) = %d, want %d", tt.metrics, got, tt.want)
			}
		})
	}
}
