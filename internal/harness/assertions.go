package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/brancheval/internal/report"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(rep report.Report, assertions []Assertion) []string {
	errs := []string{}
	for i, a := range assertions {
		if err := evaluate(rep, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluate(rep report.Report, a Assertion) error {
	switch a.Type {
	case AssertFinished:
		return expectList(a.Type, a.Branches, rep.Finished)
	case AssertRunning:
		return expectList(a.Type, a.Branches, stateBranches(rep.Running))
	case AssertProblems:
		return expectList(a.Type, a.Branches, stateBranches(rep.Problems))
	case AssertRanking:
		return expectList(a.Type, a.Branches, rep.Ranking.Ranking)
	case AssertConfigKeys:
		return expectList(a.Type, a.Keys, rep.ConfigDiff.Keys())
	case AssertWinner:
		return assertWinner(rep, a)
	case AssertWins:
		got, ok := rep.Ranking.WinCounts[a.Branch]
		if !ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s with %d wins", a.Branch, a.Count), Actual: "branch not compared"}
		}
		if got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s with %d wins", a.Branch, a.Count), Actual: fmt.Sprintf("%d wins", got)}
		}
		return nil
	case AssertInsufficientData:
		if rep.Recommendation.InsufficientData != a.Value {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Value), Actual: fmt.Sprint(rep.Recommendation.InsufficientData)}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertWinner(rep report.Report, a Assertion) error {
	want := a.Branch
	if want == "" {
		want = "(none)"
	}
	for _, mc := range rep.Comparisons {
		if mc.Metric != a.Metric {
			continue
		}
		got := "(none)"
		if mc.HasWinner {
			got = mc.Winner
		}
		if got != want {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s won by %s", a.Metric, want), Actual: got}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s won by %s", a.Metric, want), Actual: "metric not compared"}
}

func expectList(typ string, want, got []string) error {
	if !slices.Equal(want, got) {
		return &AssertionError{Type: typ, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

func stateBranches(states []report.BranchState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Branch
	}
	return out
}
