package harness

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/report"
	"github.com/roach88/brancheval/internal/snapshot"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	Report report.Report

	// Errors lists failed assertions. Empty if Pass is true.
	Errors []string
}

// AddError records a failed assertion.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run loads the scenario snapshot, assembles the report and evaluates the
// assertions. Errors are returned only when the scenario itself is broken;
// failed assertions land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	data, err := yaml.Marshal(&scenario.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	snap, err := snapshot.Parse(scenario.Name, data, snapshot.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	overrides, err := scenario.overrides()
	if err != nil {
		return nil, err
	}

	project := scenario.Project
	if project == "" {
		project = snap.Project
	}
	entity := scenario.Entity
	if entity == "" {
		entity = snap.Entity
	}

	rep, err := report.Assemble(snap.Runs(), report.Options{
		Project:    project,
		Entity:     entity,
		Metrics:    scenario.Metrics,
		Classifier: direction.Default().WithOverrides(overrides),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Pass: true, Report: rep, Errors: []string{}}
	for _, msg := range EvaluateAssertions(rep, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
