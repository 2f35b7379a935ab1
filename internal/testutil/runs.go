package testutil

import (
	"time"

	"github.com/roach88/brancheval/internal/record"
)

// DefaultProject is the project builders assign unless told otherwise.
const DefaultProject = "test-project"

// RunBuilder builds run records for tests with fluent setters.
type RunBuilder struct {
	r record.RunRecord
}

// Run starts a finished, unassigned run named after its ID.
func Run(id string) *RunBuilder {
	return &RunBuilder{r: record.RunRecord{
		ID:       id,
		Name:     id,
		Project:  DefaultProject,
		State:    record.StateFinished,
		LastStep: -1,
		Summary:  record.Values{},
		Config:   record.Values{},
	}}
}

// On assigns the run to branch.
func (b *RunBuilder) On(branch string) *RunBuilder {
	b.r.Branch = branch
	b.r.HasBranch = true
	return b
}

// Project sets the owning project.
func (b *RunBuilder) Project(p string) *RunBuilder {
	b.r.Project = p
	return b
}

// Named sets the display name.
func (b *RunBuilder) Named(name string) *RunBuilder {
	b.r.Name = name
	return b
}

// In sets the lifecycle state.
func (b *RunBuilder) In(s record.State) *RunBuilder {
	b.r.State = s
	return b
}

// At sets the creation time.
func (b *RunBuilder) At(ts time.Time) *RunBuilder {
	b.r.CreatedAt = ts
	return b
}

// Step sets the last logged step.
func (b *RunBuilder) Step(n int64) *RunBuilder {
	b.r.LastStep = n
	return b
}

// Metric sets a float summary value.
func (b *RunBuilder) Metric(key string, v float64) *RunBuilder {
	b.r.Summary[key] = record.Float(v)
	return b
}

// Summary sets a summary value decoded from a plain Go value.
func (b *RunBuilder) Summary(key string, raw any) *RunBuilder {
	b.r.Summary[key] = record.DecodeValue(raw)
	return b
}

// Param sets a config value decoded from a plain Go value.
func (b *RunBuilder) Param(key string, raw any) *RunBuilder {
	b.r.Config[key] = record.DecodeValue(raw)
	return b
}

// Tags sets the run tags.
func (b *RunBuilder) Tags(tags ...string) *RunBuilder {
	b.r.Tags = tags
	return b
}

// Build returns a copy of the record.
func (b *RunBuilder) Build() record.RunRecord {
	r := b.r
	r.Summary = clone(b.r.Summary)
	r.Config = clone(b.r.Config)
	if b.r.Tags != nil {
		r.Tags = append([]string(nil), b.r.Tags...)
	}
	return r
}

func clone(vals record.Values) record.Values {
	out := make(record.Values, len(vals))
	for k, v := range vals {
		out[k] = v
	}
	return out
}

// Runs builds every builder in order.
func Runs(builders ...*RunBuilder) []record.RunRecord {
	out := make([]record.RunRecord, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}
	return out
}

// EndToEnd returns the three-branch scenario used across packages: main
// and exp-a finished with opposing wins, exp-b still running.
func EndToEnd() []record.RunRecord {
	return Runs(
		Run("run-main").On("main").At(Epoch.Add(1*time.Minute)).
			Metric("val/loss", 0.20).Metric("val/acc", 0.90).
			Param("lr", 0.001).Param("batch_size", 32),
		Run("run-exp-a").On("exp-a").At(Epoch.Add(2*time.Minute)).
			Metric("val/loss", 0.15).Metric("val/acc", 0.88).
			Param("lr", 0.0005).Param("batch_size", 32),
		Run("run-exp-b").On("exp-b").At(Epoch.Add(3*time.Minute)).
			In(record.StateRunning).Step(120),
	)
}
