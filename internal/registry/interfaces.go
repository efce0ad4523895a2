// Package registry talks to the external append-only registry of agent
// identities and validation attestations. The core consumes it only
// through the Registry interface; Client speaks to an HTTP gateway in
// front of the ledger, Memory is the in-process substitute for tests and
// keyless demo runs.
package registry

import (
	"context"
	"fmt"

	"github.com/workproof/workproof/internal/model"
)

// Receipt acknowledges a registry write.
type Receipt struct {
	TxHash string `json:"tx_hash"`
}

// ValidationRequest is a pending request for a validator, as recorded on
// the registry.
type ValidationRequest struct {
	ValidatorID int64  `json:"validator_id"`
	Hash        string `json:"hash"`
	RequestedAt int64  `json:"requested_at"`
}

// ContentHash parses the request's hash reference.
func (r ValidationRequest) ContentHash() (model.ContentHash, error) {
	return model.ParseContentHash(r.Hash)
}

// Registry is the external ledger collaborator. All failures are
// *RegistryError; local state persisted before a failed call is never
// rolled back, so every call is safe to retry.
type Registry interface {
	// Register records an agent identity and returns its id.
	Register(ctx context.Context, domain string) (int64, error)

	// RequestValidation asks the named validator to validate the package
	// with the given content hash.
	RequestValidation(ctx context.Context, validatorID int64, hash model.ContentHash) (Receipt, error)

	// SubmitValidationResponse records the normalized score for a hash.
	SubmitValidationResponse(ctx context.Context, hash model.ContentHash, score int) (Receipt, error)

	// AuthorizeFeedback grants the client permission to leave feedback.
	AuthorizeFeedback(ctx context.Context, clientID int64) (Receipt, error)

	// PendingValidations lists requests addressed to a validator that
	// have no response yet.
	PendingValidations(ctx context.Context, validatorID int64) ([]ValidationRequest, error)
}

// RegistryError wraps a failed registry call. It surfaces to the caller,
// who is expected to retry the specific failed step.
type RegistryError struct {
	Op  string
	Err error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: %s: %v", e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }
