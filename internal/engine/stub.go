package engine

import (
	"context"
	"strings"
)

// StubModelClient returns mock model responses (for development/testing).
type StubModelClient struct{}

func (m *StubModelClient) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "senior market analyst") {
		return `# Market Analysis Report

Trend: bullish with steady momentum.
Support: 45000. Resistance: 52000.
Recommendation: BUY on confirmed breakout.
Risk: medium; size positions accordingly.

Confidence level: 85`, nil
	}

	if strings.Contains(prompt, "senior analysis validator") {
		return `# Validation Report

The analysis covers trend, support, resistance, recommendation and risk.
Methodology is sound and the report is internally consistent.

Overall score: 88/100`, nil
	}

	return "", nil
}
