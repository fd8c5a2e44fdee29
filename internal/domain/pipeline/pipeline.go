package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"interview-eval-go/internal/domain/acoustic"
	"interview-eval-go/internal/domain/eventbus"
	"interview-eval-go/internal/domain/media"
	"interview-eval-go/internal/domain/rubric"
	"interview-eval-go/internal/domain/runlock"
	"interview-eval-go/internal/domain/score"
	"interview-eval-go/internal/domain/transcript"
	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
	"interview-eval-go/internal/platform/storage"
	"interview-eval-go/internal/util/retry"
)

// Request identifies one answer to evaluate.
type Request struct {
	UserID         string `json:"user_id"`
	QuestionNum    int    `json:"question_num"`
	AudioReference string `json:"audio_reference"`
	Gender         string `json:"gender"`
}

func (r Request) validate() error {
	const op = "pipeline.request"

	if r.UserID == "" {
		return apperrors.New(apperrors.KindValidation, op, "user_id is required")
	}
	if r.AudioReference == "" {
		return apperrors.New(apperrors.KindValidation, op, "audio_reference is required")
	}
	if r.Gender == "" {
		return apperrors.New(apperrors.KindValidation, op, "gender is required")
	}
	_, err := rubric.CategoriesForQuestion(r.QuestionNum)
	return err
}

// Result is what one completed run returns to the caller.
type Result struct {
	RunID    string
	Score    score.Aggregated
	Degraded bool
}

// Analyzer is the acoustic stage seen by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, asset *media.AudioAsset) (acoustic.Metrics, error)
}

// Evaluator is the rubric stage seen by the orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg *rubric.Config, tr transcript.Transcript) (rubric.CategoryScore, error)
	Summarize(ctx context.Context, tr transcript.Transcript) (string, error)
}

// Persister is the dual-store gateway seen by the orchestrator.
type Persister interface {
	Persist(ctx context.Context, rec *storage.Record) (storage.Outcome, error)
}

// Options collects the orchestrator's collaborators and tuning.
type Options struct {
	Fetcher     media.Fetcher
	Normalizer  media.Normalizer
	Analyzer    Analyzer
	Scorer      *acoustic.Scorer
	Transcriber transcript.Transcriber
	Evaluator   Evaluator
	Rubrics     *rubric.Library
	Aggregator  *score.Aggregator
	Gateway     Persister
	Locker      runlock.Locker
	Bus         evbus.Bus
	Policy      retry.Policy
	FanoutWidth int
	CallTimeout time.Duration
	Logger      *logging.Logger
}

// Orchestrator runs the evaluation pipeline end to end. Runs are
// independent; all shared state is read-only or a process-wide client.
type Orchestrator struct {
	opts Options
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.FanoutWidth <= 0 {
		opts.FanoutWidth = 4
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	return &Orchestrator{opts: opts}
}

// Run evaluates one answer: fetch, normalize, analyze and transcribe
// concurrently, fan out the rubric evaluations, aggregate, persist.
// Fatal errors return no partial result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	const op = "pipeline.run"

	if err := req.validate(); err != nil {
		return Result{}, err
	}

	runID := uuid.New().String()
	log := o.opts.Logger

	acquired, err := o.opts.Locker.Acquire(ctx, req.UserID, req.QuestionNum, runID)
	if err != nil {
		return Result{}, err
	}
	if !acquired {
		return Result{}, apperrors.New(apperrors.KindConflict, op,
			fmt.Sprintf("evaluation already in flight for user %s question %d", req.UserID, req.QuestionNum))
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.opts.Locker.Release(releaseCtx, req.UserID, req.QuestionNum, runID); err != nil {
			log.WarnTag("PIPELINE", "run %s: lock release failed: %v", runID, err)
		}
	}()

	o.publish(eventbus.EventRunStarted, eventbus.RunEventData{
		RunID: runID, UserID: req.UserID, QuestionNum: req.QuestionNum, At: time.Now(),
	})
	log.InfoTag("PIPELINE", "run %s: user=%s question=%d", runID, req.UserID, req.QuestionNum)

	result, err := o.execute(ctx, runID, req)
	if err != nil {
		o.publish(eventbus.EventRunFailed, eventbus.RunEventData{
			RunID: runID, UserID: req.UserID, QuestionNum: req.QuestionNum,
			Error: err.Error(), At: time.Now(),
		})
		log.ErrorTag("PIPELINE", "run %s failed: %v", runID, err)
		return Result{}, err
	}

	topic := eventbus.EventRunCompleted
	if result.Degraded {
		topic = eventbus.EventRunDegraded
	}
	o.publish(topic, eventbus.RunEventData{
		RunID: runID, UserID: req.UserID, QuestionNum: req.QuestionNum,
		TotalScore: result.Score.Total, Band: string(result.Score.Band), At: time.Now(),
	})
	log.InfoTag("PIPELINE", "run %s: total=%d band=%s degraded=%v",
		runID, result.Score.Total, result.Score.Band, result.Degraded)
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, req Request) (Result, error) {
	var rawPath string
	err := o.opts.Policy.Do(ctx, "pipeline.fetch", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
		defer cancel()
		var fetchErr error
		rawPath, fetchErr = o.opts.Fetcher.Fetch(callCtx, req.AudioReference)
		return fetchErr
	})
	if err != nil {
		return Result{}, err
	}

	asset, err := o.opts.Normalizer.Normalize(ctx, rawPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if releaseErr := asset.Release(); releaseErr != nil {
			o.opts.Logger.WarnTag("PIPELINE", "run %s: asset release failed: %v", runID, releaseErr)
		}
	}()

	metrics, tr, err := o.analyzeAndTranscribe(ctx, asset)
	if err != nil {
		return Result{}, err
	}

	categories, err := rubric.CategoriesForQuestion(req.QuestionNum)
	if err != nil {
		return Result{}, err
	}

	categoryScores, err := o.evaluateCategories(ctx, categories, tr)
	if err != nil {
		return Result{}, err
	}

	summary := o.summarize(ctx, runID, tr)

	aggregated, err := o.opts.Aggregator.Aggregate(o.opts.Scorer.Score(metrics), categoryScores, categories)
	if err != nil {
		return Result{}, err
	}

	record := &storage.Record{
		RunID:          runID,
		UserID:         req.UserID,
		QuestionNum:    req.QuestionNum,
		Gender:         req.Gender,
		AudioReference: req.AudioReference,
		Metrics:        metrics,
		Transcript:     tr,
		Summary:        summary,
		Result:         aggregated,
		EvaluatedAt:    time.Now().UTC(),
	}

	outcome, err := o.opts.Gateway.Persist(ctx, record)
	if err != nil {
		return Result{}, err
	}

	return Result{RunID: runID, Score: aggregated, Degraded: outcome.Degraded}, nil
}

// analyzeAndTranscribe runs the two audio consumers concurrently; a
// failure in either cancels the other.
func (o *Orchestrator) analyzeAndTranscribe(ctx context.Context, asset *media.AudioAsset) (acoustic.Metrics, transcript.Transcript, error) {
	var (
		metrics acoustic.Metrics
		tr      transcript.Transcript
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = o.opts.Analyzer.Analyze(gctx, asset)
		return err
	})
	g.Go(func() error {
		return o.opts.Policy.Do(gctx, "pipeline.transcribe", func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
			defer cancel()
			var err error
			tr, err = o.opts.Transcriber.Transcribe(callCtx, asset)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return acoustic.Metrics{}, transcript.Transcript{}, err
	}
	return metrics, tr, nil
}

// evaluateCategories fans the rubric calls out with bounded width. The
// first fatal error cancels the siblings and discards partial results.
func (o *Orchestrator) evaluateCategories(ctx context.Context, categories []rubric.Category, tr transcript.Transcript) ([]rubric.CategoryScore, error) {
	results := make([]rubric.CategoryScore, len(categories))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.FanoutWidth)

	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			cfg, err := o.opts.Rubrics.Get(cat)
			if err != nil {
				return err
			}

			var cs rubric.CategoryScore
			err = o.opts.Policy.Do(gctx, "pipeline.evaluate", func(ctx context.Context) error {
				callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
				defer cancel()
				var evalErr error
				cs, evalErr = o.opts.Evaluator.Evaluate(callCtx, cfg, tr)
				return evalErr
			})
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = cs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// summarize is best-effort: a failed summary degrades to empty, the
// run continues.
func (o *Orchestrator) summarize(ctx context.Context, runID string, tr transcript.Transcript) string {
	var summary string
	err := o.opts.Policy.Do(ctx, "pipeline.summarize", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
		defer cancel()
		var sumErr error
		summary, sumErr = o.opts.Evaluator.Summarize(callCtx, tr)
		return sumErr
	})
	if err != nil {
		o.opts.Logger.WarnTag("PIPELINE", "run %s: summary failed: %v", runID, err)
		return ""
	}
	return summary
}

func (o *Orchestrator) publish(topic string, data eventbus.RunEventData) {
	if o.opts.Bus == nil {
		return
	}
	o.opts.Bus.Publish(topic, data)
}
