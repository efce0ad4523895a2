package exchange

import (
	"context"
	"errors"
	"log/slog"

	"github.com/workproof/workproof/internal/canonical"
	"github.com/workproof/workproof/internal/engine"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
	"github.com/workproof/workproof/internal/store"
)

// Validator is the validator half of the exchange: it retrieves packages
// by hash, produces a scored validation record, persists it under the
// same hash, and submits the score to the registry.
type Validator struct {
	store    store.ContentStore
	registry registry.Registry
	reviewer engine.ValidationEngine
	agentID  int64
	domain   string
}

// NewValidator creates a validator half for a registered agent.
func NewValidator(s store.ContentStore, reg registry.Registry, reviewer engine.ValidationEngine, agentID int64, domain string) *Validator {
	return &Validator{store: s, registry: reg, reviewer: reviewer, agentID: agentID, domain: domain}
}

// AgentID returns the validator's registry identity.
func (v *Validator) AgentID() int64 { return v.agentID }

// Validate runs the validator half for a content hash. A store miss is a
// recoverable outcome, not an error: the returned record carries
// NOT_FOUND status, nothing is persisted and no score is submitted.
// Engine failure is absorbed by the deterministic fallback. A registry
// failure after the record is persisted returns both the exchange (record
// attached) and the error, so the caller can retry the submission step
// without re-running the engine.
func (v *Validator) Validate(ctx context.Context, hash model.ContentHash) (*Exchange, error) {
	ex := ResumeExchange(hash, StateSubmitted)

	data, err := v.store.GetPackage(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("package not found", "hash", hash.Hex())
		rec := model.ValidationRecord{
			Hash:            hash.Hex(),
			ValidatorID:     v.agentID,
			ValidatorDomain: v.domain,
			Status:          model.ValidationNotFound,
			Report:          "package not found",
		}
		ex.Record = &rec
		return ex, nil
	}
	if err != nil {
		return ex, &StepError{Step: "retrieve", Err: err}
	}
	if err := ex.advance(StateRetrieved); err != nil {
		return ex, err
	}

	rec := v.review(ctx, hash, data)
	ex.Record = &rec
	if err := ex.advance(StateValidated); err != nil {
		return ex, err
	}

	encoded, err := model.EncodeValidationRecord(rec)
	if err != nil {
		return ex, &StepError{Step: "persist", Err: err}
	}
	if err := v.store.PutValidation(ctx, hash, encoded); err != nil {
		return ex, &StepError{Step: "persist", Err: err}
	}

	receipt, err := v.registry.SubmitValidationResponse(ctx, hash, rec.Score)
	if err != nil {
		// Persisted record is retained for retry.
		return ex, &StepError{Step: "submit_response", Err: err}
	}
	ex.Receipt = receipt
	if err := ex.advance(StateScoreSubmitted); err != nil {
		return ex, err
	}

	slog.Info("validation submitted",
		"hash", hash.Hex(), "score", rec.Score, "method", rec.Method, "tx", receipt.TxHash)
	return ex, nil
}

// review produces the scored validation record for retrieved package
// bytes. It cannot fail: undecodable bytes yield an ERROR record with
// score zero, and engine failure falls back to the deterministic
// generator. The remainder of the protocol cannot distinguish primary
// from fallback output except by the method tag.
func (v *Validator) review(ctx context.Context, hash model.ContentHash, data []byte) model.ValidationRecord {
	pkg, err := canonical.Decode(data)
	if err != nil {
		rec := model.NewValidationRecord(hash, v.agentID, v.domain, 0, "stored package is not decodable: "+err.Error(), model.MethodFallback)
		rec.Status = model.ValidationError
		return rec
	}

	method := model.MethodModel
	report, err := v.reviewer.GenerateValidation(ctx, pkg)
	if err != nil {
		slog.Warn("primary validation engine unavailable, using fallback",
			"hash", hash.Hex(), "error", err)
		report = engine.FallbackValidation(pkg)
		method = model.MethodFallback
	}

	score := engine.ExtractScore(report)
	return model.NewValidationRecord(hash, v.agentID, v.domain, score, report, method)
}
