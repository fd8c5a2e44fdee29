package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"interview-eval-go/internal/domain/acoustic"
	"interview-eval-go/internal/domain/rubric"
	"interview-eval-go/internal/domain/score"
	"interview-eval-go/internal/domain/transcript"
	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
	platformtesting "interview-eval-go/internal/platform/testing"
	"interview-eval-go/internal/util/retry"
)

type fakeDocumentStore struct {
	err   error
	saved []*Record
}

func (f *fakeDocumentStore) SaveReport(ctx context.Context, rec *Record) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeDocumentStore) Close(ctx context.Context) error { return nil }

func testRecord() *Record {
	return &Record{
		RunID:          "run-1",
		UserID:         "user-42",
		QuestionNum:    3,
		Gender:         "female",
		AudioReference: "interview_audio/user-42/3/answer.wav",
		Metrics:        acoustic.Metrics{PauseRatio: 0.12, SpeechRate: 5.5},
		Transcript:     transcript.Transcript{Text: "저는 장애 상황을 이렇게 해결했습니다."},
		Summary:        "장애 대응 경험 중심의 답변.",
		Result: score.Aggregated{
			AcousticScore: 40,
			CategoryScores: []rubric.CategoryScore{
				{Category: rubric.Communication, Score: 17, Strengths: []string{"명확한 전달"}, Weaknesses: []string{"장황함"}},
				{Category: rubric.OrgFit, Score: 8, Strengths: []string{"협업 경험"}, Weaknesses: []string{"근거 부족"}},
				{Category: rubric.ProblemSolving, Score: 9, Strengths: []string{"단계적 접근"}, Weaknesses: []string{"대안 미제시"}},
			},
			Total:      74,
			Band:       score.BandAverage,
			Strengths:  []string{"명확한 전달", "협업 경험", "단계적 접근"},
			Weaknesses: []string{"장황함", "근거 부족", "대안 미제시"},
		},
		EvaluatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func openTestStore(t *testing.T) *RelationalStore {
	t.Helper()
	store, err := OpenRelational(config.RelationalConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open relational: %v", err)
	}
	return store
}

func TestRelationalStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := testRecord()
	if err := store.SaveAnswer(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	row, cats, err := store.LoadAnswer(ctx, rec.UserID, rec.QuestionNum)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.TotalScore != 74 || row.AcousticScore != 40 || row.Band != "average" {
		t.Errorf("unexpected score row %+v", row)
	}
	if len(cats) != 3 {
		t.Fatalf("category rows = %d, want 3", len(cats))
	}
	if cats[0].Category != "COMMUNICATION" || cats[0].Name != "의사소통 능력" {
		t.Errorf("unexpected first category row %+v", cats[0])
	}

	var strengths []string
	if err := json.Unmarshal(row.Strengths, &strengths); err != nil {
		t.Fatalf("decode strengths: %v", err)
	}
	if len(strengths) != 3 || strengths[0] != "명확한 전달" {
		t.Errorf("strengths = %v", strengths)
	}
}

func TestRelationalStore_ReEvaluationReplacesRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := testRecord()
	platformtesting.AssertNoError(t, store.SaveAnswer(ctx, rec))

	rec.Result.Total = 90
	rec.Result.Band = score.BandExcellent
	rec.Result.CategoryScores = rec.Result.CategoryScores[:2]
	platformtesting.AssertNoError(t, store.SaveAnswer(ctx, rec))

	row, cats, err := store.LoadAnswer(ctx, rec.UserID, rec.QuestionNum)
	platformtesting.AssertNoError(t, err)
	if row.TotalScore != 90 || row.Band != "excellent" {
		t.Errorf("re-evaluation did not replace the score row: %+v", row)
	}
	if len(cats) != 2 {
		t.Errorf("category rows = %d, want 2 after replacement", len(cats))
	}
}

func TestGateway_Persist(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	policy := retry.Policy{Attempts: 2, Backoff: time.Millisecond}

	t.Run("both stores succeed", func(t *testing.T) {
		doc := &fakeDocumentStore{}
		gw := NewGateway(openTestStore(t), doc, policy, logger)

		outcome, err := gw.Persist(context.Background(), testRecord())
		platformtesting.AssertNoError(t, err)
		if outcome.Degraded {
			t.Error("outcome should not be degraded")
		}
		if len(doc.saved) != 1 {
			t.Errorf("document saves = %d, want 1", len(doc.saved))
		}
	})

	t.Run("document failure degrades but succeeds", func(t *testing.T) {
		store := openTestStore(t)
		doc := &fakeDocumentStore{err: errors.New("mongo down")}
		gw := NewGateway(store, doc, policy, logger)

		rec := testRecord()
		outcome, err := gw.Persist(context.Background(), rec)
		platformtesting.AssertNoError(t, err)
		if !outcome.Degraded {
			t.Error("outcome should be degraded when the document write fails")
		}

		// the relational rows must still be there
		if _, _, err := store.LoadAnswer(context.Background(), rec.UserID, rec.QuestionNum); err != nil {
			t.Errorf("relational rows missing after degraded persist: %v", err)
		}
	})

	t.Run("relational failure is fatal despite healthy document store", func(t *testing.T) {
		broken := NewRelationalStore(brokenDB(t))
		doc := &fakeDocumentStore{}
		gw := NewGateway(broken, doc, policy, logger)

		_, err := gw.Persist(context.Background(), testRecord())
		if !apperrors.IsKind(err, apperrors.KindStorageRequired) {
			t.Fatalf("expected required persistence error, got %v", err)
		}
		if len(doc.saved) != 0 {
			t.Error("document must not be written when the relational write fails")
		}
	})

	t.Run("nil document store always degrades", func(t *testing.T) {
		gw := NewGateway(openTestStore(t), nil, policy, logger)

		outcome, err := gw.Persist(context.Background(), testRecord())
		platformtesting.AssertNoError(t, err)
		if !outcome.Degraded {
			t.Error("outcome should be degraded with no document store")
		}
	})
}

// brokenDB returns a handle whose writes fail: the answer tables are
// never migrated.
func brokenDB(t *testing.T) *gorm.DB {
	t.Helper()
	store, err := OpenRelational(config.RelationalConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.db.Migrator().DropTable(&AnswerScore{}, &AnswerCategoryResult{}); err != nil {
		t.Fatal(err)
	}
	return store.db
}
