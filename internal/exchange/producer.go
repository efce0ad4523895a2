package exchange

import (
	"context"
	"log/slog"

	"github.com/workproof/workproof/internal/canonical"
	"github.com/workproof/workproof/internal/engine"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
	"github.com/workproof/workproof/internal/store"
)

// Producer is the producer half of the exchange: it builds work packages,
// addresses and stores them, and anchors validation requests on the
// registry.
type Producer struct {
	store    store.PackageStore
	registry registry.Registry
	analyst  engine.AnalysisEngine
	agentID  int64
	domain   string
}

// NewProducer creates a producer half for a registered agent.
func NewProducer(s store.PackageStore, reg registry.Registry, analyst engine.AnalysisEngine, agentID int64, domain string) *Producer {
	return &Producer{store: s, registry: reg, analyst: analyst, agentID: agentID, domain: domain}
}

// AgentID returns the producer's registry identity.
func (p *Producer) AgentID() int64 { return p.agentID }

// Produce runs the analysis engine for a subject and wraps the result in
// an immutable WorkPackage. Engine failure is absorbed by the
// deterministic fallback, so Produce always yields a package; the
// metadata tag records which path ran.
func (p *Producer) Produce(ctx context.Context, subject string, params map[string]string) model.WorkPackage {
	timeframe := params["timeframe"]

	method := model.MethodModel
	analysis, err := p.analyst.GenerateAnalysis(ctx, subject, timeframe)
	if err != nil {
		slog.Warn("primary analysis engine unavailable, using fallback",
			"subject", subject, "error", err)
		analysis = engine.FallbackAnalysis(subject, timeframe)
		method = model.MethodFallback
	}

	pkg := model.NewWorkPackage(subject, params, p.agentID, p.domain, analysis)
	pkg.Metadata[model.MetaAnalysisMethod] = method
	return pkg
}

// Submit addresses the package, persists it, and requests validation from
// the registry. The package is stored before the registry request is sent
// so a validator that receives the request can always find it. An
// encoding failure aborts the exchange with no store or registry
// interaction; a registry failure leaves the stored package in place and
// the exchange retryable at the same step.
func (p *Producer) Submit(ctx context.Context, pkg model.WorkPackage, validatorID int64) (*Exchange, error) {
	ex := NewExchange()

	hash, data, err := canonical.Address(pkg)
	if err != nil {
		ex.abort()
		return ex, &StepError{Step: "address", Err: err}
	}
	ex.Hash = hash
	if err := ex.advance(StateAddressed); err != nil {
		return ex, err
	}

	if err := p.store.PutPackage(ctx, hash, data); err != nil {
		return ex, &StepError{Step: "store", Err: err}
	}

	receipt, err := p.registry.RequestValidation(ctx, validatorID, hash)
	if err != nil {
		// Stored package is retained; re-submitting the same package is
		// idempotent by hash.
		return ex, &StepError{Step: "request_validation", Err: err}
	}
	ex.Receipt = receipt
	if err := ex.advance(StateSubmitted); err != nil {
		return ex, err
	}

	slog.Info("work submitted for validation",
		"hash", hash.Hex(), "validator_id", validatorID, "tx", receipt.TxHash)
	return ex, nil
}

// AuthorizeFeedback grants the original requesting client permission to
// leave feedback. It is the final protocol step and is independent of the
// scoring outcome.
func (p *Producer) AuthorizeFeedback(ctx context.Context, ex *Exchange, clientID int64) (registry.Receipt, error) {
	receipt, err := p.registry.AuthorizeFeedback(ctx, clientID)
	if err != nil {
		return registry.Receipt{}, &StepError{Step: "authorize_feedback", Err: err}
	}
	if err := ex.advance(StateFeedbackAuthorized); err != nil {
		return receipt, err
	}
	slog.Info("feedback authorized", "client_id", clientID, "tx", receipt.TxHash)
	return receipt, nil
}
