package score

import (
	"fmt"

	"interview-eval-go/internal/domain/rubric"
	apperrors "interview-eval-go/internal/platform/errors"
)

// Band is the qualitative label for a total score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandWeak      Band = "weak"
	BandVeryWeak  Band = "very_weak"
)

// BandFor maps a total score onto its performance band.
func BandFor(total int) Band {
	switch {
	case total >= 90:
		return BandExcellent
	case total >= 80:
		return BandGood
	case total >= 60:
		return BandAverage
	case total >= 40:
		return BandWeak
	default:
		return BandVeryWeak
	}
}

// Aggregated is the assembled result of one evaluation run.
type Aggregated struct {
	AcousticScore  int                   `json:"acoustic_score"`
	CategoryScores []rubric.CategoryScore `json:"category_scores"`
	Total          int                   `json:"total"`
	Band           Band                  `json:"band"`
	Strengths      []string              `json:"strengths"`
	Weaknesses     []string              `json:"weaknesses"`
}

// Aggregator merges acoustic and category scores. Pure functions of
// their inputs; identical inputs give identical output.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate validates the category result set against the expected set,
// sums the total and merges keyword lists in category order with
// exact-text dedup. A missing or duplicated category is fatal.
func (a *Aggregator) Aggregate(acousticScore int, results []rubric.CategoryScore, expected []rubric.Category) (Aggregated, error) {
	const op = "score.aggregate"

	byCategory := make(map[rubric.Category]rubric.CategoryScore, len(results))
	for _, r := range results {
		if _, dup := byCategory[r.Category]; dup {
			return Aggregated{}, apperrors.New(apperrors.KindAggregation, op,
				fmt.Sprintf("duplicate result for category %s", r.Category))
		}
		byCategory[r.Category] = r
	}
	if len(byCategory) != len(expected) {
		return Aggregated{}, apperrors.New(apperrors.KindAggregation, op,
			fmt.Sprintf("got %d category results, expected %d", len(byCategory), len(expected)))
	}

	ordered := make([]rubric.CategoryScore, 0, len(expected))
	total := acousticScore
	for _, cat := range expected {
		r, ok := byCategory[cat]
		if !ok {
			return Aggregated{}, apperrors.New(apperrors.KindAggregation, op,
				fmt.Sprintf("missing result for category %s", cat))
		}
		ordered = append(ordered, r)
		total += r.Score
	}
	if total < 0 || total > 100 {
		return Aggregated{}, apperrors.New(apperrors.KindAggregation, op,
			fmt.Sprintf("total %d outside the 0-100 contract", total))
	}

	strengths := mergeKeywords(ordered, func(r rubric.CategoryScore) []string { return r.Strengths })
	weaknesses := mergeKeywords(ordered, func(r rubric.CategoryScore) []string { return r.Weaknesses })

	return Aggregated{
		AcousticScore:  acousticScore,
		CategoryScores: ordered,
		Total:          total,
		Band:           BandFor(total),
		Strengths:      strengths,
		Weaknesses:     weaknesses,
	}, nil
}

// mergeKeywords concatenates per-category keyword lists preserving
// category order, dropping exact-text repeats.
func mergeKeywords(ordered []rubric.CategoryScore, pick func(rubric.CategoryScore) []string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, r := range ordered {
		for _, kw := range pick(r) {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}
	return merged
}
