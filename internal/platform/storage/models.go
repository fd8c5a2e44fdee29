package storage

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerScore is the normalized score row, one per (user, question).
// Re-evaluating an answer replaces the row.
type AnswerScore struct {
	ID            uint           `gorm:"primaryKey"`
	UserID        string         `gorm:"type:varchar(64);uniqueIndex:idx_user_question;not null" json:"user_id"`
	QuestionNum   int            `gorm:"uniqueIndex:idx_user_question;not null"                  json:"question_num"`
	Gender        string         `gorm:"type:varchar(16)"                                        json:"gender"`
	AcousticScore int            `gorm:"not null"                                                json:"acoustic_score"`
	TotalScore    int            `gorm:"not null"                                                json:"total_score"`
	Band          string         `gorm:"type:varchar(16);not null"                               json:"band"`
	PauseRatio    float64        `                                                               json:"pause_ratio"`
	SpeechRate    float64        `                                                               json:"speech_rate"`
	Summary       string         `gorm:"type:text"                                               json:"summary"`
	Strengths     datatypes.JSON `                                                               json:"strengths"`
	Weaknesses    datatypes.JSON `                                                               json:"weaknesses"`
	EvaluatedAt   time.Time      `gorm:"index"                                                   json:"evaluated_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AnswerCategoryResult is one category's score for an answer. Rows are
// replaced wholesale together with their AnswerScore.
type AnswerCategoryResult struct {
	ID          uint           `gorm:"primaryKey"`
	UserID      string         `gorm:"type:varchar(64);index:idx_cat_user_question;not null" json:"user_id"`
	QuestionNum int            `gorm:"index:idx_cat_user_question;not null"                  json:"question_num"`
	Category    string         `gorm:"type:varchar(32);not null"                             json:"category"`
	Name        string         `gorm:"type:varchar(64)"                                      json:"name"`
	Score       int            `gorm:"not null"                                              json:"score"`
	Strengths   datatypes.JSON `                                                             json:"strengths"`
	Weaknesses  datatypes.JSON `                                                             json:"weaknesses"`
	CreatedAt   time.Time      `json:"created_at"`
}
