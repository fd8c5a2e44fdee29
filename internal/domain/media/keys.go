package media

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "interview-eval-go/internal/platform/errors"
)

// answerKeyFolder is the path segment that anchors answer uploads.
const answerKeyFolder = "interview_audio"

// ParseAnswerKey extracts the user id and question number from an object
// key shaped like ".../interview_audio/{user_id}/{question_num}/file.wav".
func ParseAnswerKey(key string) (userID string, questionNum int, err error) {
	const op = "media.parse_key"

	parts := strings.Split(strings.Trim(key, "/"), "/")
	anchor := -1
	for i, p := range parts {
		if p == answerKeyFolder {
			anchor = i
			break
		}
	}
	if anchor < 0 || anchor+2 >= len(parts) {
		return "", 0, apperrors.New(apperrors.KindValidation, op,
			fmt.Sprintf("key %q does not match the answer upload layout", key))
	}

	userID = parts[anchor+1]
	if userID == "" {
		return "", 0, apperrors.New(apperrors.KindValidation, op, "empty user id in key")
	}

	questionNum, convErr := strconv.Atoi(parts[anchor+2])
	if convErr != nil {
		return "", 0, apperrors.Wrap(apperrors.KindValidation, op,
			fmt.Sprintf("question segment %q is not a number", parts[anchor+2]), convErr)
	}
	return userID, questionNum, nil
}
