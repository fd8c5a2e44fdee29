package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"interview-eval-go/internal/domain/acoustic"
	"interview-eval-go/internal/domain/eventbus"
	"interview-eval-go/internal/domain/media"
	"interview-eval-go/internal/domain/rubric"
	"interview-eval-go/internal/domain/runlock"
	"interview-eval-go/internal/domain/score"
	"interview-eval-go/internal/domain/transcript"
	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/storage"
	platformtesting "interview-eval-go/internal/platform/testing"
	"interview-eval-go/internal/util/retry"
)

type fakeFetcher struct {
	dir string
}

func (f *fakeFetcher) Fetch(ctx context.Context, reference string) (string, error) {
	path := filepath.Join(f.dir, "run-test.wav")
	if err := os.WriteFile(path, []byte("pcm"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeNormalizer struct{}

func (f *fakeNormalizer) Normalize(ctx context.Context, rawPath string) (*media.AudioAsset, error) {
	return &media.AudioAsset{
		Path:       rawPath,
		Duration:   10 * time.Second,
		SampleRate: 16000,
		Channels:   1,
	}, nil
}

type fakeAnalyzer struct {
	metrics acoustic.Metrics
	err     error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, asset *media.AudioAsset) (acoustic.Metrics, error) {
	return f.metrics, f.err
}

type fakeTranscriber struct {
	mu       sync.Mutex
	tr       transcript.Transcript
	failures int
	calls    int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, asset *media.AudioAsset) (transcript.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return transcript.Transcript{}, apperrors.New(apperrors.KindTransient, "stt", "upstream hiccup")
	}
	return f.tr, nil
}

type fakeEvaluator struct {
	mu     sync.Mutex
	scores map[rubric.Category]int
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, cfg *rubric.Config, tr transcript.Transcript) (rubric.CategoryScore, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return rubric.CategoryScore{}, f.err
	}
	return rubric.CategoryScore{
		Category:   cfg.Category,
		Score:      f.scores[cfg.Category],
		Strengths:  []string{string(cfg.Category) + " 강점"},
		Weaknesses: []string{string(cfg.Category) + " 약점"},
	}, nil
}

func (f *fakeEvaluator) Summarize(ctx context.Context, tr transcript.Transcript) (string, error) {
	return "요약", nil
}

type fakePersister struct {
	mu      sync.Mutex
	records []*storage.Record
	outcome storage.Outcome
	err     error
}

func (f *fakePersister) Persist(ctx context.Context, rec *storage.Record) (storage.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.Outcome{}, f.err
	}
	f.records = append(f.records, rec)
	return f.outcome, nil
}

func testLibrary(t *testing.T) *rubric.Library {
	t.Helper()
	mk := func(cat rubric.Category, allotment int) *rubric.Config {
		return &rubric.Config{
			Category:  cat,
			Name:      cat.DisplayName(),
			Allotment: allotment,
			EvaluationCriteria: []rubric.Criterion{
				{Name: "기준", Weight: allotment, Description: "테스트"},
			},
			OutputFormat: "평가총점 : <점수>\n강점:\n약점:",
		}
	}
	lib, err := rubric.NewLibrary(
		mk(rubric.Communication, 20),
		mk(rubric.JobCompatibility, 10),
		mk(rubric.OrgFit, 10),
		mk(rubric.TechStack, 10),
		mk(rubric.ProblemSolving, 10),
	)
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

type fixture struct {
	orch        *Orchestrator
	transcriber *fakeTranscriber
	evaluator   *fakeEvaluator
	persister   *fakePersister
	locker      runlock.Locker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	transcriber := &fakeTranscriber{tr: transcript.Transcript{Text: "테스트 답변입니다."}}
	evaluator := &fakeEvaluator{
		scores: map[rubric.Category]int{
			rubric.Communication:    17,
			rubric.JobCompatibility: 8,
			rubric.OrgFit:           7,
			rubric.TechStack:        9,
			rubric.ProblemSolving:   6,
		},
	}
	persister := &fakePersister{}
	locker := runlock.NewMemory(time.Minute)

	orch := NewOrchestrator(Options{
		Fetcher:     &fakeFetcher{dir: t.TempDir()},
		Normalizer:  &fakeNormalizer{},
		Analyzer:    &fakeAnalyzer{metrics: acoustic.Metrics{PauseRatio: 0.15, SpeechRate: 5.5}},
		Scorer:      acoustic.NewScorer(),
		Transcriber: transcriber,
		Evaluator:   evaluator,
		Rubrics:     testLibrary(t),
		Aggregator:  score.NewAggregator(),
		Gateway:     persister,
		Locker:      locker,
		Bus:         eventbus.New(),
		Policy:      retry.Policy{Attempts: 3, Backoff: time.Millisecond},
		FanoutWidth: 2,
		CallTimeout: time.Second,
		Logger:      platformtesting.SetupTestLogger(t),
	})

	return &fixture{
		orch:        orch,
		transcriber: transcriber,
		evaluator:   evaluator,
		persister:   persister,
		locker:      locker,
	}
}

func question3Request() Request {
	return Request{
		UserID:         "user-42",
		QuestionNum:    3,
		AudioReference: "interview_audio/user-42/3/answer.wav",
		Gender:         "female",
	}
}

func TestOrchestrator_Run(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.orch.Run(context.Background(), question3Request())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// question 3 evaluates COMMUNICATION, ORG_FIT, PROBLEM_SOLVING
	wantTotal := 40 + 17 + 7 + 6
	if result.Score.Total != wantTotal {
		t.Errorf("total = %d, want %d", result.Score.Total, wantTotal)
	}
	if result.Score.AcousticScore != 40 {
		t.Errorf("acoustic = %d, want 40", result.Score.AcousticScore)
	}
	if result.Degraded {
		t.Error("run should not be degraded")
	}
	if fx.evaluator.calls != 3 {
		t.Errorf("evaluator calls = %d, want 3", fx.evaluator.calls)
	}

	if len(fx.persister.records) != 1 {
		t.Fatalf("persisted records = %d, want 1", len(fx.persister.records))
	}
	rec := fx.persister.records[0]
	if rec.UserID != "user-42" || rec.QuestionNum != 3 {
		t.Errorf("record identity %s/%d", rec.UserID, rec.QuestionNum)
	}
	if rec.Summary != "요약" {
		t.Errorf("summary = %q", rec.Summary)
	}
	if rec.Result.Total != wantTotal {
		t.Errorf("record total = %d", rec.Result.Total)
	}

	// the lock must be free again
	ok, _ := fx.locker.Acquire(context.Background(), "user-42", 3, "run-next")
	if !ok {
		t.Error("lock still held after run")
	}
}

func TestOrchestrator_TransientTranscriptionRecovers(t *testing.T) {
	fx := newFixture(t)
	fx.transcriber.failures = 1

	result, err := fx.orch.Run(context.Background(), question3Request())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fx.transcriber.calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", fx.transcriber.calls)
	}
	if result.Score.Total != 40+17+7+6 {
		t.Errorf("total = %d", result.Score.Total)
	}
}

func TestOrchestrator_RetryCeilingFailsStage(t *testing.T) {
	fx := newFixture(t)
	fx.transcriber.failures = 10

	_, err := fx.orch.Run(context.Background(), question3Request())
	if !apperrors.IsKind(err, apperrors.KindStage) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if len(fx.persister.records) != 0 {
		t.Error("nothing must be persisted after a fatal run")
	}
}

func TestOrchestrator_EvaluatorValidationIsFatal(t *testing.T) {
	fx := newFixture(t)
	fx.evaluator.err = apperrors.New(apperrors.KindValidation, "rubric.parse", "bad reply")

	_, err := fx.orch.Run(context.Background(), question3Request())
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fx.persister.records) != 0 {
		t.Error("no partial result may be persisted")
	}
}

func TestOrchestrator_RejectsBadRequests(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"question too high", Request{UserID: "u", QuestionNum: 8, AudioReference: "a.wav", Gender: "male"}},
		{"question zero", Request{UserID: "u", QuestionNum: 0, AudioReference: "a.wav", Gender: "male"}},
		{"missing user", Request{QuestionNum: 1, AudioReference: "a.wav", Gender: "male"}},
		{"missing audio", Request{UserID: "u", QuestionNum: 1, Gender: "male"}},
		{"missing gender", Request{UserID: "u", QuestionNum: 1, AudioReference: "a.wav"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.orch.Run(context.Background(), tt.req)
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestOrchestrator_ConflictingRunRejected(t *testing.T) {
	fx := newFixture(t)

	ok, err := fx.locker.Acquire(context.Background(), "user-42", 3, "other-run")
	if err != nil || !ok {
		t.Fatalf("pre-acquire: ok=%v err=%v", ok, err)
	}

	_, err = fx.orch.Run(context.Background(), question3Request())
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestOrchestrator_DegradedPersistencePropagates(t *testing.T) {
	fx := newFixture(t)
	fx.persister.outcome = storage.Outcome{Degraded: true}

	result, err := fx.orch.Run(context.Background(), question3Request())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Degraded {
		t.Error("degraded outcome must surface in the result")
	}
	if result.Score.Total == 0 {
		t.Error("degraded runs still carry full scores")
	}
}

func TestOrchestrator_RequiredPersistenceFailureIsFatal(t *testing.T) {
	fx := newFixture(t)
	fx.persister.err = apperrors.New(apperrors.KindStorageRequired, "storage.persist", "db down")

	_, err := fx.orch.Run(context.Background(), question3Request())
	if !apperrors.IsKind(err, apperrors.KindStorageRequired) {
		t.Fatalf("expected required persistence error, got %v", err)
	}
}

func TestOrchestrator_PublishesLifecycleEvents(t *testing.T) {
	fx := newFixture(t)

	var mu sync.Mutex
	var started, completed []eventbus.RunEventData
	bus := eventbus.New()
	_ = bus.Subscribe(eventbus.EventRunStarted, func(data eventbus.RunEventData) {
		mu.Lock()
		started = append(started, data)
		mu.Unlock()
	})
	_ = bus.Subscribe(eventbus.EventRunCompleted, func(data eventbus.RunEventData) {
		mu.Lock()
		completed = append(completed, data)
		mu.Unlock()
	})
	fx.orch.opts.Bus = bus

	if _, err := fx.orch.Run(context.Background(), question3Request()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(started) != 1 || len(completed) != 1 {
		t.Fatalf("events started=%d completed=%d, want 1/1", len(started), len(completed))
	}
	if completed[0].TotalScore != 40+17+7+6 {
		t.Errorf("completed event total = %d", completed[0].TotalScore)
	}
}
