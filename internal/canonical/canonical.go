// Package canonical implements the deterministic encoding that gives a
// WorkPackage its content address. Two packages with identical field values
// always encode to identical bytes: struct fields serialize in declared
// order, map keys serialize lexicographically sorted (an encoding/json
// guarantee), and nil maps encode the same as empty ones.
package canonical

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/workproof/workproof/internal/model"
)

// EncodingError reports a package field whose value cannot be represented
// in the canonical text form.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("canonical: field %s: %s", e.Field, e.Reason)
}

// Encode serializes a WorkPackage to its canonical byte form. It has no
// side effects and fails only with *EncodingError.
func Encode(pkg model.WorkPackage) ([]byte, error) {
	if err := checkFields(pkg); err != nil {
		return nil, err
	}
	b, err := json.Marshal(pkg)
	if err != nil {
		// Unreachable for the field types WorkPackage carries; kept so a
		// future field addition cannot silently hash garbage.
		return nil, &EncodingError{Field: "package", Reason: err.Error()}
	}
	return b, nil
}

// Decode deserializes canonical bytes back into a WorkPackage.
func Decode(data []byte) (model.WorkPackage, error) {
	var pkg model.WorkPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return pkg, fmt.Errorf("canonical: decode: %w", err)
	}
	return pkg, nil
}

// Hash computes the SHA-256 content hash of canonical bytes.
func Hash(data []byte) model.ContentHash {
	return sha256.Sum256(data)
}

// Address encodes a package and returns its content hash together with the
// canonical bytes, so callers never hash and store different encodings.
func Address(pkg model.WorkPackage) (model.ContentHash, []byte, error) {
	data, err := Encode(pkg)
	if err != nil {
		return model.ContentHash{}, nil, err
	}
	return Hash(data), data, nil
}

// checkFields rejects values that JSON would mangle rather than represent
// faithfully (invalid UTF-8 is replaced with U+FFFD by the encoder, which
// would make the hash diverge from the caller's data).
func checkFields(pkg model.WorkPackage) error {
	if !utf8.ValidString(pkg.Subject) {
		return &EncodingError{Field: "subject", Reason: "invalid UTF-8"}
	}
	if !utf8.ValidString(pkg.ProducerDomain) {
		return &EncodingError{Field: "producer_domain", Reason: "invalid UTF-8"}
	}
	if !utf8.ValidString(pkg.Analysis) {
		return &EncodingError{Field: "analysis", Reason: "invalid UTF-8"}
	}
	for k, v := range pkg.Params {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return &EncodingError{Field: "params[" + k + "]", Reason: "invalid UTF-8"}
		}
	}
	for k, v := range pkg.Metadata {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return &EncodingError{Field: "metadata[" + k + "]", Reason: "invalid UTF-8"}
		}
	}
	return nil
}
