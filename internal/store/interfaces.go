package store

import (
	"context"
	"errors"

	"github.com/workproof/workproof/internal/model"
)

// ErrNotFound is returned by Get* when no entry exists for a hash. Callers
// must treat it as a recoverable condition, not a fatal error.
var ErrNotFound = errors.New("store: not found")

// PackageStore provides access to the work-package namespace.
type PackageStore interface {
	PutPackage(ctx context.Context, hash model.ContentHash, data []byte) error
	GetPackage(ctx context.Context, hash model.ContentHash) ([]byte, error)
}

// ValidationStore provides access to the validation-record namespace,
// keyed by the hash of the validated package.
type ValidationStore interface {
	PutValidation(ctx context.Context, hash model.ContentHash, data []byte) error
	GetValidation(ctx context.Context, hash model.ContentHash) ([]byte, error)
}

// ContentStore combines both namespaces for callers that need to cross
// from a package to its validation record.
type ContentStore interface {
	PackageStore
	ValidationStore
}
