package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
)

// RelationalStore holds the normalized score rows. Its write is the
// required half of persistence.
type RelationalStore struct {
	db *gorm.DB
}

// OpenRelational opens the configured database and migrates the answer
// tables.
func OpenRelational(cfg config.RelationalConfig) (*RelationalStore, error) {
	const op = "storage.relational"

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "create data dir", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "open database", err)
	}

	if err := db.AutoMigrate(&AnswerScore{}, &AnswerCategoryResult{}); err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "migrate answer tables", err)
	}

	return &RelationalStore{db: db}, nil
}

// NewRelationalStore wraps an existing handle (test seam).
func NewRelationalStore(db *gorm.DB) *RelationalStore {
	return &RelationalStore{db: db}
}

// SaveAnswer upserts the score row and replaces the category rows in
// one transaction. Failures are transient from the retry policy's view.
func (s *RelationalStore) SaveAnswer(ctx context.Context, rec *Record) error {
	const op = "storage.save_answer"

	row, err := answerRow(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, op, "encode keyword lists", err)
	}
	catRows, err := categoryRows(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, op, "encode category rows", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "question_num"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "acoustic_score", "total_score", "band",
				"pause_ratio", "speech_rate", "summary",
				"strengths", "weaknesses", "evaluated_at", "updated_at",
			}),
		}).Create(row).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND question_num = ?", rec.UserID, rec.QuestionNum).
			Delete(&AnswerCategoryResult{}).Error; err != nil {
			return err
		}
		if len(catRows) == 0 {
			return nil
		}
		return tx.Create(&catRows).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, op, "write answer rows", err)
	}
	return nil
}

// LoadAnswer reads back one answer's rows.
func (s *RelationalStore) LoadAnswer(ctx context.Context, userID string, questionNum int) (*AnswerScore, []AnswerCategoryResult, error) {
	const op = "storage.load_answer"

	var row AnswerScore
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND question_num = ?", userID, questionNum).
		First(&row).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindStorageRequired, op, "load answer score", err)
	}

	var cats []AnswerCategoryResult
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND question_num = ?", userID, questionNum).
		Order("id").
		Find(&cats).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindStorageRequired, op, "load category rows", err)
	}
	return &row, cats, nil
}

func answerRow(rec *Record) (*AnswerScore, error) {
	strengths, err := json.Marshal(rec.Result.Strengths)
	if err != nil {
		return nil, err
	}
	weaknesses, err := json.Marshal(rec.Result.Weaknesses)
	if err != nil {
		return nil, err
	}

	return &AnswerScore{
		UserID:        rec.UserID,
		QuestionNum:   rec.QuestionNum,
		Gender:        rec.Gender,
		AcousticScore: rec.Result.AcousticScore,
		TotalScore:    rec.Result.Total,
		Band:          string(rec.Result.Band),
		PauseRatio:    rec.Metrics.PauseRatio,
		SpeechRate:    rec.Metrics.SpeechRate,
		Summary:       rec.Summary,
		Strengths:     datatypes.JSON(strengths),
		Weaknesses:    datatypes.JSON(weaknesses),
		EvaluatedAt:   rec.EvaluatedAt,
	}, nil
}

func categoryRows(rec *Record) ([]AnswerCategoryResult, error) {
	rows := make([]AnswerCategoryResult, 0, len(rec.Result.CategoryScores))
	for _, cs := range rec.Result.CategoryScores {
		strengths, err := json.Marshal(cs.Strengths)
		if err != nil {
			return nil, err
		}
		weaknesses, err := json.Marshal(cs.Weaknesses)
		if err != nil {
			return nil, err
		}
		rows = append(rows, AnswerCategoryResult{
			UserID:      rec.UserID,
			QuestionNum: rec.QuestionNum,
			Category:    string(cs.Category),
			Name:        cs.Category.DisplayName(),
			Score:       cs.Score,
			Strengths:   datatypes.JSON(strengths),
			Weaknesses:  datatypes.JSON(weaknesses),
		})
	}
	return rows, nil
}
