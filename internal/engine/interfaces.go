package engine

import (
	"context"

	"github.com/workproof/workproof/internal/model"
)

// ModelClient abstracts LLM calls. Implementations can wrap OpenAI,
// Anthropic, local models, etc.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnalysisEngine produces a free-form analysis report for a subject. A
// failure means the primary reasoning path is unavailable; callers
// substitute FallbackAnalysis.
type AnalysisEngine interface {
	GenerateAnalysis(ctx context.Context, subject, timeframe string) (string, error)
}

// ValidationEngine produces a free-form validation report for a work
// package. A failure means the primary reasoning path is unavailable;
// callers substitute FallbackValidation.
type ValidationEngine interface {
	GenerateValidation(ctx context.Context, pkg model.WorkPackage) (string, error)
}

// ModelAnalyst implements AnalysisEngine on top of a ModelClient.
type ModelAnalyst struct {
	model ModelClient
}

// NewModelAnalyst creates an AnalysisEngine backed by the given model.
func NewModelAnalyst(mc ModelClient) *ModelAnalyst {
	return &ModelAnalyst{model: mc}
}

func (a *ModelAnalyst) GenerateAnalysis(ctx context.Context, subject, timeframe string) (string, error) {
	return a.model.Complete(ctx, buildAnalysisPrompt(subject, timeframe))
}

// ModelReviewer implements ValidationEngine on top of a ModelClient.
type ModelReviewer struct {
	model ModelClient
}

// NewModelReviewer creates a ValidationEngine backed by the given model.
func NewModelReviewer(mc ModelClient) *ModelReviewer {
	return &ModelReviewer{model: mc}
}

func (r *ModelReviewer) GenerateValidation(ctx context.Context, pkg model.WorkPackage) (string, error) {
	prompt, err := buildValidationPrompt(pkg)
	if err != nil {
		return "", err
	}
	return r.model.Complete(ctx, prompt)
}
