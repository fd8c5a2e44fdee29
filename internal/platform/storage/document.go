package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
)

// DocumentStore holds the detailed evaluation report. Its write is the
// best-effort half of persistence.
type DocumentStore interface {
	SaveReport(ctx context.Context, rec *Record) error
	Close(ctx context.Context) error
}

// MongoDocumentStore upserts one report document per (user, question).
type MongoDocumentStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func OpenDocumentStore(ctx context.Context, cfg config.DocumentConfig) (*MongoDocumentStore, error) {
	const op = "storage.document"

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "connect document store", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "ping document store", err)
	}

	return &MongoDocumentStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoDocumentStore) SaveReport(ctx context.Context, rec *Record) error {
	const op = "storage.save_report"

	doc := reportDocument(rec)
	filter := bson.M{"user_id": rec.UserID, "question_num": rec.QuestionNum}

	_, err := s.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorageOptional, op, "upsert report document", err)
	}
	return nil
}

func (s *MongoDocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func reportDocument(rec *Record) bson.M {
	categories := make([]bson.M, 0, len(rec.Result.CategoryScores))
	for _, cs := range rec.Result.CategoryScores {
		categories = append(categories, bson.M{
			"category":   string(cs.Category),
			"name":       cs.Category.DisplayName(),
			"score":      cs.Score,
			"strengths":  cs.Strengths,
			"weaknesses": cs.Weaknesses,
		})
	}

	segments := make([]bson.M, 0, len(rec.Transcript.Segments))
	for _, seg := range rec.Transcript.Segments {
		segments = append(segments, bson.M{
			"start": seg.Start,
			"end":   seg.End,
			"text":  seg.Text,
		})
	}

	return bson.M{
		"run_id":          rec.RunID,
		"user_id":         rec.UserID,
		"question_num":    rec.QuestionNum,
		"gender":          rec.Gender,
		"audio_reference": rec.AudioReference,
		"metrics": bson.M{
			"pause_ratio": rec.Metrics.PauseRatio,
			"speech_rate": rec.Metrics.SpeechRate,
		},
		"transcript": bson.M{
			"text":     rec.Transcript.Text,
			"segments": segments,
		},
		"summary":        rec.Summary,
		"acoustic_score": rec.Result.AcousticScore,
		"categories":     categories,
		"total_score":    rec.Result.Total,
		"band":           string(rec.Result.Band),
		"strengths":      rec.Result.Strengths,
		"weaknesses":     rec.Result.Weaknesses,
		"evaluated_at":   rec.EvaluatedAt,
	}
}
