package model

import "time"

// Validation method constants (which engine path produced a report).
const (
	MethodModel    = "model"
	MethodFallback = "fallback"
)

// MetaAnalysisMethod is the WorkPackage metadata key recording the
// analysis path (MethodModel or MethodFallback).
const MetaAnalysisMethod = "analysis_method"

// WorkPackage is the producer's immutable work artifact. The declared
// field order is the canonical encoding order; changing it changes every
// content hash, so treat it as part of the persisted format.
type WorkPackage struct {
	Subject        string            `json:"subject"`
	Params         map[string]string `json:"params,omitempty"`
	ProducerID     int64             `json:"producer_id"`
	ProducerDomain string            `json:"producer_domain"`
	Timestamp      int64             `json:"timestamp"`
	Analysis       string            `json:"analysis"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewWorkPackage creates a WorkPackage stamped with the current time.
func NewWorkPackage(subject string, params map[string]string, producerID int64, producerDomain, analysis string) WorkPackage {
	return WorkPackage{
		Subject:        subject,
		Params:         params,
		ProducerID:     producerID,
		ProducerDomain: producerDomain,
		Timestamp:      time.Now().UTC().Unix(),
		Analysis:       analysis,
		Metadata:       map[string]string{},
	}
}

// Timeframe returns the analysis timeframe parameter, if any.
func (p WorkPackage) Timeframe() string {
	return p.Params["timeframe"]
}
