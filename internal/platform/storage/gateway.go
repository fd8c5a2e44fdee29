package storage

import (
	"context"

	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
	"interview-eval-go/internal/util/retry"
)

// Gateway writes one record to both stores. The relational write is
// required and retried; the document write is best-effort and only
// degrades the outcome.
type Gateway struct {
	relational *RelationalStore
	document   DocumentStore
	policy     retry.Policy
	logger     *logging.Logger
}

// NewGateway wires the dual-store contract. document may be nil when
// the report store is disabled; runs then always complete degraded.
func NewGateway(relational *RelationalStore, document DocumentStore, policy retry.Policy, logger *logging.Logger) *Gateway {
	return &Gateway{
		relational: relational,
		document:   document,
		policy:     policy,
		logger:     logger,
	}
}

// Persist lands the record. A relational failure after retries is
// fatal and reported as a required-persistence error; a document
// failure is logged and surfaces only as Outcome.Degraded.
func (g *Gateway) Persist(ctx context.Context, rec *Record) (Outcome, error) {
	const op = "storage.persist"

	err := g.policy.Do(ctx, op, func(ctx context.Context) error {
		return g.relational.SaveAnswer(ctx, rec)
	})
	if err != nil {
		return Outcome{}, &apperrors.Error{
			Kind:    apperrors.KindStorageRequired,
			Op:      op,
			Message: "relational write failed",
			Cause:   err,
		}
	}

	if g.document == nil {
		g.logger.WarnTag("STORE", "document store disabled, run %s persisted degraded", rec.RunID)
		return Outcome{Degraded: true}, nil
	}

	if err := g.document.SaveReport(ctx, rec); err != nil {
		g.logger.WarnTag("STORE", "report document write failed for run %s: %v", rec.RunID, err)
		return Outcome{Degraded: true}, nil
	}

	return Outcome{}, nil
}
