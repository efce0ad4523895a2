package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
)

// ValidationRunner runs the validator half for one content hash.
type ValidationRunner interface {
	Validate(ctx context.Context, hash model.ContentHash) (*exchange.Exchange, error)
}

// RequestSource lists pending validation requests for a validator.
type RequestSource interface {
	PendingValidations(ctx context.Context, validatorID int64) ([]registry.ValidationRequest, error)
}

// Worker polls the registry for validation requests addressed to one
// validator and runs the validator half for each.
type Worker struct {
	source      RequestSource
	runner      ValidationRunner
	validatorID int64
	interval    time.Duration
}

// New creates a new Worker.
func New(source RequestSource, runner ValidationRunner, validatorID int64, interval time.Duration) *Worker {
	return &Worker{source: source, runner: runner, validatorID: validatorID, interval: interval}
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("validation worker started", "validator_id", w.validatorID, "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("validation worker stopped")
			return
		default:
		}

		requests, err := w.source.PendingValidations(ctx, w.validatorID)
		if err != nil {
			slog.Error("worker poll error", "error", err)
		}

		for _, req := range requests {
			hash, err := req.ContentHash()
			if err != nil {
				slog.Error("skipping request with malformed hash", "hash", req.Hash, "error", err)
				continue
			}
			slog.Info("processing validation request", "hash", hash.Hex())
			if _, err := w.runner.Validate(ctx, hash); err != nil {
				// Local state persisted by the validator half is kept;
				// the request stays pending and is retried next poll.
				slog.Error("validation failed", "hash", hash.Hex(), "error", err)
			}
		}

		// Sleep after every pass. A request that stays pending (missing
		// package, malformed hash, persistent submit failure) must not
		// turn the loop into a busy poll against the registry.
		w.sleep(ctx)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.interval):
	}
}
