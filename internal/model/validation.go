package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Validation status constants
const (
	ValidationNotFound  = "NOT_FOUND"
	ValidationValidated = "VALIDATED"
	ValidationError     = "ERROR"
)

// ValidationRecord is the validator's output for one WorkPackage. It
// references the package by content hash and is persisted keyed by that
// same hash; a re-validation overwrites the previous record.
type ValidationRecord struct {
	Hash            string `json:"hash"`
	ValidatorID     int64  `json:"validator_id"`
	ValidatorDomain string `json:"validator_domain"`
	Timestamp       int64  `json:"timestamp"`
	Score           int    `json:"score"`
	Report          string `json:"report"`
	Status          string `json:"status"`
	Method          string `json:"method,omitempty"`
}

// NewValidationRecord creates a VALIDATED record stamped with the current
// time.
func NewValidationRecord(hash ContentHash, validatorID int64, validatorDomain string, score int, report, method string) ValidationRecord {
	return ValidationRecord{
		Hash:            hash.Hex(),
		ValidatorID:     validatorID,
		ValidatorDomain: validatorDomain,
		Timestamp:       time.Now().UTC().Unix(),
		Score:           score,
		Report:          report,
		Status:          ValidationValidated,
		Method:          method,
	}
}

// EncodeValidationRecord serializes a record for the validation namespace.
func EncodeValidationRecord(rec ValidationRecord) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode validation record: %w", err)
	}
	return b, nil
}

// DecodeValidationRecord deserializes a record from the validation
// namespace.
func DecodeValidationRecord(data []byte) (ValidationRecord, error) {
	var rec ValidationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode validation record: %w", err)
	}
	return rec, nil
}
