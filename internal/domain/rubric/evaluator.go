package rubric

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"interview-eval-go/internal/domain/providers/openaiclient"
	"interview-eval-go/internal/domain/transcript"
	"interview-eval-go/internal/platform/config"
	"interview-eval-go/internal/platform/logging"
)

// silentAnswerKeyword fills both keyword lists when there is no speech
// to evaluate.
const silentAnswerKeyword = "발화 없음"

// silentAnswerSummary stands in for a summary of an empty answer.
const silentAnswerSummary = "무응답"

const systemPrompt = "당신은 지원자의 답변을 평가하는 전문 면접관입니다. " +
	"주어진 평가 기준표에 따라 답변을 엄격하고 일관되게 평가하고, 지정된 출력 형식을 정확히 지키세요."

// CategoryScore is one category's evaluation of an answer.
type CategoryScore struct {
	Category   Category `json:"category"`
	Score      int      `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// ChatClient is the slice of the API client the evaluator needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Evaluator scores transcripts against category rubrics.
type Evaluator struct {
	client      ChatClient
	model       string
	temperature float32
	maxTokens   int
	logger      *logging.Logger
}

func NewEvaluator(client ChatClient, cfg config.OpenAIConfig, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		client:      client,
		model:       cfg.ChatModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Evaluate scores one transcript against one category rubric. A silent
// answer short-circuits to score zero without a collaborator call.
func (e *Evaluator) Evaluate(ctx context.Context, cfg *Config, tr transcript.Transcript) (CategoryScore, error) {
	const op = "rubric.evaluate"

	if tr.IsEmpty() {
		e.logger.InfoTag("EVAL", "%s: silent answer, scoring zero", cfg.Category)
		return CategoryScore{
			Category:   cfg.Category,
			Score:      0,
			Strengths:  []string{silentAnswerKeyword},
			Weaknesses: []string{silentAnswerKeyword},
		}, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(cfg, tr.Text)},
		},
	})
	if err != nil {
		return CategoryScore{}, openaiclient.Classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return CategoryScore{}, openaiclient.Classify(op, fmt.Errorf("empty completion response"))
	}

	score, strengths, weaknesses, err := parseEvaluation(resp.Choices[0].Message.Content, cfg.Allotment)
	if err != nil {
		return CategoryScore{}, err
	}

	e.logger.InfoTag("EVAL", "%s: %d/%d", cfg.Category, score, cfg.Allotment)
	return CategoryScore{
		Category:   cfg.Category,
		Score:      score,
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}, nil
}

// Summarize produces a short Korean summary of the answer. Failures are
// the caller's to soften; an empty answer yields the canned summary
// without a call.
func (e *Evaluator) Summarize(ctx context.Context, tr transcript.Transcript) (string, error) {
	const op = "rubric.summarize"

	if tr.IsEmpty() {
		return silentAnswerSummary, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "다음 면접 답변을 2~3문장으로 요약하세요.\n\n답변:\n" + tr.Text},
		},
	})
	if err != nil {
		return "", openaiclient.Classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", openaiclient.Classify(op, fmt.Errorf("empty completion response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(cfg *Config, answer string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "평가 영역: %s (배점 %d점)\n\n", cfg.Name, cfg.Allotment)

	b.WriteString("평가 기준:\n")
	for _, crit := range cfg.EvaluationCriteria {
		fmt.Fprintf(&b, "- %s (%d점): %s\n", crit.Name, crit.Weight, crit.Description)
	}

	if cfg.ScoringGuide != "" {
		b.WriteString("\n채점 기준:\n")
		b.WriteString(cfg.ScoringGuide)
		b.WriteString("\n")
	}
	if cfg.AdditionalInstructions != "" {
		b.WriteString("\n추가 지침:\n")
		b.WriteString(cfg.AdditionalInstructions)
		b.WriteString("\n")
	}

	b.WriteString("\n지원자 답변:\n")
	b.WriteString(answer)

	b.WriteString("\n\n출력 형식:\n")
	b.WriteString(cfg.OutputFormat)
	return b.String()
}
