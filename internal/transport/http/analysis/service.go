package analysis

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-eval-go/internal/domain/media"
	"interview-eval-go/internal/domain/pipeline"
	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
	httptransport "interview-eval-go/internal/transport/http"
)

// Runner is the pipeline entry point seen by the HTTP layer.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Service exposes the evaluation pipeline over HTTP.
type Service struct {
	logger *logging.Logger
	config *config.Config
	runner Runner
}

// NewService creates the analysis transport service.
func NewService(config *config.Config, logger *logging.Logger, runner Runner) (*Service, error) {
	if config == nil {
		return nil, apperrors.New(apperrors.KindConfig, "analysis.new", "config is required")
	}
	if logger == nil {
		return nil, apperrors.New(apperrors.KindConfig, "analysis.new", "logger is required")
	}
	if runner == nil {
		return nil, apperrors.New(apperrors.KindConfig, "analysis.new", "pipeline runner is required")
	}

	return &Service{
		logger: logger,
		config: config,
		runner: runner,
	}, nil
}

// Register registers the analysis routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/analysis", s.handleAnalysis)
	router.POST("/analysis/communication", s.handleCommunication)
	router.OPTIONS("/analysis", s.handleOptions)

	s.logger.InfoTag("HTTP", "analysis routes registered")
	return nil
}

type analysisRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	QuestionNum    int    `json:"question_num" binding:"required"`
	AudioReference string `json:"audio_reference" binding:"required"`
	Gender         string `json:"gender"`
}

type categoryScorePayload struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type analysisResponse struct {
	RunID           string                 `json:"run_id"`
	TotalScore      int                    `json:"total_score"`
	AcousticScore   int                    `json:"acoustic_score"`
	CategoryScores  []categoryScorePayload `json:"category_scores"`
	Strengths       []string               `json:"strengths"`
	Weaknesses      []string               `json:"weaknesses"`
	PerformanceBand string                 `json:"performance_band"`
	Degraded        bool                   `json:"degraded"`
}

func (s *Service) handleAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Gender == "" {
		req.Gender = "female"
	}

	result, err := s.runner.Run(c.Request.Context(), pipeline.Request{
		UserID:         req.UserID,
		QuestionNum:    req.QuestionNum,
		AudioReference: req.AudioReference,
		Gender:         req.Gender,
	})
	if err != nil {
		httptransport.RespondError(c, statusForError(err), err.Error(), nil)
		return
	}

	payload := analysisResponse{
		RunID:           result.RunID,
		TotalScore:      result.Score.Total,
		AcousticScore:   result.Score.AcousticScore,
		CategoryScores:  make([]categoryScorePayload, 0, len(result.Score.CategoryScores)),
		Strengths:       result.Score.Strengths,
		Weaknesses:      result.Score.Weaknesses,
		PerformanceBand: string(result.Score.Band),
		Degraded:        result.Degraded,
	}
	for _, cs := range result.Score.CategoryScores {
		payload.CategoryScores = append(payload.CategoryScores, categoryScorePayload{
			Category: string(cs.Category),
			Name:     cs.Category.DisplayName(),
			Score:    cs.Score,
		})
	}

	httptransport.RespondSuccess(c, http.StatusOK, payload, "분석이 성공적으로 완료되었습니다.")
}

type communicationRequest struct {
	S3ObjectKey string `json:"s3ObjectKey"`
	Gender      string `json:"gender"`
}

type communicationResponse struct {
	ResultCode    string `json:"resultCode"`
	ResultMessage string `json:"resultMessage"`
}

// handleCommunication accepts the interview server's callback shape: a bare
// object key whose path carries the user and question. Key parse failures
// fall back to defaults instead of rejecting the request.
func (s *Service) handleCommunication(c *gin.Context) {
	var req communicationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.S3ObjectKey == "" {
		c.JSON(http.StatusBadRequest, communicationResponse{
			ResultCode:    "4000",
			ResultMessage: "유효하지 않은 S3 Object Key",
		})
		return
	}

	userID, questionNum, err := media.ParseAnswerKey(req.S3ObjectKey)
	if err != nil {
		userID = "ai_interview_user"
		questionNum = 1
		s.logger.WarnTag("HTTP", "falling back to default identity for key %s: %v", req.S3ObjectKey, err)
	}

	gender := req.Gender
	if gender == "" {
		gender = "female"
	}

	result, err := s.runner.Run(c.Request.Context(), pipeline.Request{
		UserID:         userID,
		QuestionNum:    questionNum,
		AudioReference: req.S3ObjectKey,
		Gender:         gender,
	})
	if err != nil {
		c.JSON(statusForError(err), communicationResponse{
			ResultCode:    resultCodeForError(err),
			ResultMessage: "분석 처리 중 오류 발생",
		})
		return
	}

	s.logger.InfoTag("HTTP", "communication analysis done: user=%s question=%d total=%d",
		userID, questionNum, result.Score.Total)
	c.JSON(http.StatusOK, communicationResponse{
		ResultCode:    "0000",
		ResultMessage: "의사소통 분석 요청 완료",
	})
}

func (s *Service) handleOptions(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Status(http.StatusNoContent)
}

// statusForError maps the platform error kinds onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case apperrors.IsKind(err, apperrors.KindValidation), apperrors.IsKind(err, apperrors.KindConfig):
		return http.StatusBadRequest
	case apperrors.IsKind(err, apperrors.KindConflict):
		return http.StatusConflict
	case apperrors.IsKind(err, apperrors.KindTransient), apperrors.IsKind(err, apperrors.KindStage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func resultCodeForError(err error) string {
	switch {
	case apperrors.IsKind(err, apperrors.KindValidation):
		return "4000"
	case apperrors.IsKind(err, apperrors.KindConflict):
		return "4090"
	case apperrors.IsKind(err, apperrors.KindTransient), apperrors.IsKind(err, apperrors.KindStage):
		return "5001"
	case apperrors.IsKind(err, apperrors.KindStorageRequired):
		return "5001"
	default:
		return "9999"
	}
}
