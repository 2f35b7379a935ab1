// Package direction decides whether a metric is better when lower or higher.
//
// The default is a keyword heuristic: a metric whose lower-cased name
// contains any of DefaultKeywords is lower-is-better, everything else is
// higher-is-better. The heuristic is best effort ("error_budget_remaining"
// is misclassified), so callers can pin any metric with an override, and
// overrides always win.
package direction

import (
	"sort"
	"strings"
)

// Direction is an explicit preference for a metric.
type Direction string

const (
	Lower  Direction = "lower"
	Higher Direction = "higher"
)

// ParseDirection accepts "lower"/"higher" and the aliases "min"/"max".
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower", "min", "minimize":
		return Lower, true
	case "higher", "max", "maximize":
		return Higher, true
	}
	return "", false
}

// DefaultKeywords mark lower-is-better metrics.
var DefaultKeywords = []string{"loss", "error", "perplexity", "mse", "mae", "rmse"}

// Classifier maps metric names to a direction.
// The zero value uses DefaultKeywords and no overrides.
type Classifier struct {
	// Overrides pin the direction of exact metric names.
	Overrides map[string]Direction

	// Keywords replace DefaultKeywords when non-nil.
	Keywords []string
}

// Default returns the keyword-only classifier.
func Default() Classifier {
	return Classifier{}
}

// WithOverrides returns a copy of c with extra overrides layered on top.
func (c Classifier) WithOverrides(overrides map[string]Direction) Classifier {
	merged := make(map[string]Direction, len(c.Overrides)+len(overrides))
	for k, v := range c.Overrides {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	c.Overrides = merged
	return c
}

// LowerIsBetter classifies metric.
func (c Classifier) LowerIsBetter(metric string) bool {
	if d, ok := c.Overrides[metric]; ok {
		return d == Lower
	}
	return matchesKeyword(metric, c.keywords())
}

// Heuristic reports what the keyword rule alone says, ignoring overrides.
func (c Classifier) Heuristic(metric string) bool {
	return matchesKeyword(metric, c.keywords())
}

// OverriddenMetrics lists metrics with an explicit direction, sorted.
func (c Classifier) OverriddenMetrics() []string {
	names := make([]string, 0, len(c.Overrides))
	for k := range c.Overrides {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (c Classifier) keywords() []string {
	if c.Keywords != nil {
		return c.Keywords
	}
	return DefaultKeywords
}

func matchesKeyword(metric string, keywords []string) bool {
	name := strings.ToLower(metric)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// LowerIsBetter classifies metric with the default keyword set.
func LowerIsBetter(metric string) bool {
	return Default().LowerIsBetter(metric)
}
