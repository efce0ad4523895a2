package engine

import (
	"encoding/json"
	"fmt"

	"github.com/workproof/workproof/internal/model"
)

func buildAnalysisPrompt(subject, timeframe string) string {
	if timeframe == "" {
		timeframe = "1d"
	}
	return fmt.Sprintf(`You are a senior market analyst. Perform a comprehensive analysis of %s over the %s timeframe.

Requirements:
1. Analyze the current price trend and momentum
2. Identify key support and resistance levels
3. Provide a clear recommendation (BUY/SELL/HOLD)
4. Assess the risk level of current market conditions
5. Include a confidence level

Present your findings as a structured report. Use the literal section labels
"Trend", "Support", "Resistance", "Recommendation" and "Risk" so the report
can be checked mechanically.`, subject, timeframe)
}

func buildValidationPrompt(pkg model.WorkPackage) (string, error) {
	pkgJSON, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal package for prompt: %w", err)
	}
	return fmt.Sprintf(`You are a senior analysis validator. Validate the work package below against these criteria:

1. Completeness: are all required fields and components present?
2. Methodology: does the analysis cover trend, support, resistance, recommendation and risk?
3. Accuracy: is the analysis internally consistent?
4. Risk assessment: are appropriate risk warnings included?

Finish your report with a final line of the form "Overall score: N/100" where
N is an integer from 0 to 100. Later score statements supersede earlier ones.

Package to validate:
%s`, pkgJSON), nil
}
