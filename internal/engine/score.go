package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// Score normalization policy. These are policy constants, not derived
// values: a report that yields no signal at all gets the neutral default.
const (
	// DefaultScore is returned when a report contains neither a numeric
	// score nor any recognized sentiment keyword.
	DefaultScore = 70

	MinScore = 0
	MaxScore = 100
)

// scorePatterns are the numeric pattern classes, in priority order. The
// first class that yields any match wins; lower-priority classes are not
// consulted once a class matches. Within a class the last occurrence wins,
// because later statements (a final summary) supersede earlier interim
// figures.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`score[:\s]+(\d+)`),
	regexp.MustCompile(`(\d+)/100`),
	regexp.MustCompile(`(\d+)%`),
	regexp.MustCompile(`overall[:\s]+(\d+)`),
}

// sentimentLadder is consulted only when no numeric pattern matches,
// evaluated in fixed order with first match winning.
var sentimentLadder = []struct {
	keywords []string
	score    int
}{
	{[]string{"excellent", "outstanding"}, 95},
	{[]string{"good", "solid"}, 85},
	{[]string{"adequate", "acceptable"}, 75},
	{[]string{"poor", "inadequate"}, 45},
}

// ExtractScore reduces a free-form validation report to an integer score
// in [MinScore, MaxScore]. It never fails: missing or malformed score text
// degrades to the sentiment ladder and finally to DefaultScore, so an
// unparseable report is policy, not an error.
func ExtractScore(report string) int {
	text := strings.ToLower(report)

	for _, pattern := range scorePatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1][1]
		n, err := strconv.Atoi(last)
		if err != nil {
			// A digit run too long for int; clamp handles the intent.
			n = MaxScore + 1
		}
		return clampScore(n)
	}

	for _, rung := range sentimentLadder {
		for _, kw := range rung.keywords {
			if strings.Contains(text, kw) {
				return rung.score
			}
		}
	}

	return DefaultScore
}

func clampScore(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}
