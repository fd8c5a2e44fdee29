package acoustic

// Scorer maps delivery metrics onto banded sub-scores. Pure and
// deterministic; callers may re-derive scores from stored metrics.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// PauseScore bands the silent fraction of the answer.
func (s *Scorer) PauseScore(ratio float64) int {
	switch {
	case ratio < 0.17:
		return 20
	case ratio < 0.25:
		return 10
	default:
		return 0
	}
}

// RateScore bands the syllables-per-second speech rate around the
// comfortable 5.22-5.76 center.
func (s *Scorer) RateScore(rate float64) int {
	switch {
	case rate >= 5.22 && rate <= 5.76:
		return 20
	case (rate >= 4.68 && rate < 5.22) || (rate > 5.76 && rate <= 6.12):
		return 15
	case (rate >= 4.50 && rate < 4.68) || (rate > 6.12 && rate <= 6.48):
		return 10
	default:
		return 0
	}
}

// Score combines both sub-scores into the acoustic total, 0 to 40.
func (s *Scorer) Score(m Metrics) int {
	return s.PauseScore(m.PauseRatio) + s.RateScore(m.SpeechRate)
}
