package rubric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "interview-eval-go/internal/platform/errors"
)

var scoreLineRe = regexp.MustCompile(`평가총점\s*[:：]\s*(-?\d+)`)

// parseEvaluation extracts the score and keyword blocks from the
// evaluator's reply. The reply must carry a "평가총점 : <n>" line and
// "강점:" / "약점:" blocks of newline separated keyword phrases.
// Anything else is a malformed response, never retried.
func parseEvaluation(raw string, allotment int) (int, []string, []string, error) {
	const op = "rubric.parse"

	match := scoreLineRe.FindStringSubmatch(raw)
	if match == nil {
		return 0, nil, nil, apperrors.New(apperrors.KindValidation, op,
			"response is missing the 평가총점 line")
	}
	score, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, nil, nil, apperrors.Wrap(apperrors.KindValidation, op, "score is not an integer", err)
	}
	if score < 0 || score > allotment {
		return 0, nil, nil, apperrors.New(apperrors.KindValidation, op,
			fmt.Sprintf("score %d outside 0..%d", score, allotment))
	}

	strengths := keywordBlock(raw, "강점", "약점")
	weaknesses := keywordBlock(raw, "약점", "")
	if strengths == nil || weaknesses == nil {
		return 0, nil, nil, apperrors.New(apperrors.KindValidation, op,
			"response is missing a 강점 or 약점 block")
	}

	return score, strengths, weaknesses, nil
}

// keywordBlock returns the cleaned lines between the "<header>:" marker
// and the next marker (or end of text). A present but empty block
// yields an empty non-nil slice; a missing marker yields nil.
func keywordBlock(raw, header, stopHeader string) []string {
	lines := strings.Split(raw, "\n")
	start := -1
	for i, line := range lines {
		if isBlockHeader(line, header) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	keywords := []string{}
	for _, line := range lines[start:] {
		if stopHeader != "" && isBlockHeader(line, stopHeader) {
			break
		}
		kw := cleanKeyword(line)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return keywords
}

func isBlockHeader(line, header string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, header+":") || strings.HasPrefix(trimmed, header+" :") ||
		strings.HasPrefix(trimmed, header+"：")
}

var bulletRe = regexp.MustCompile(`^\s*(?:[-*·•]|\d+[.)])\s*`)

func cleanKeyword(line string) string {
	return strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
}
