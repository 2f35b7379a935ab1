package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseState(t *testing.T) {
	assert.Equal(t, StateFinished, ParseState("finished"))
	assert.Equal(t, StateCrashed, ParseState("Crashed"))

	unknown := ParseState("pending-upload")
	assert.Equal(t, State("pending-upload"), unknown)
	assert.False(t, unknown.Known())
	assert.False(t, unknown.IsFinished())
	assert.False(t, unknown.IsProblem())
}

func TestStatePredicates(t *testing.T) {
	for _, s := range []State{StateCrashed, StateFailed, StateKilled} {
		assert.True(t, s.IsProblem(), s)
		assert.True(t, s.NeedsDiagnosis(), s)
	}
	assert.False(t, StatePreempted.IsProblem())
	assert.True(t, StatePreempted.NeedsDiagnosis())
	assert.False(t, StateRunning.NeedsDiagnosis())
	assert.True(t, StateFinished.IsFinished())
}

func TestRunRecord_Metric(t *testing.T) {
	r := RunRecord{Summary: Values{
		"val/loss":  Float(0.2),
		"_runtime":  Float(12),
		"epoch":     Int(3),
		"best_ckpt": Text("s3://x"),
		"flag":      Bool(true),
	}}

	v, ok := r.Metric("val/loss")
	assert.True(t, ok)
	assert.Equal(t, 0.2, v)

	_, ok = r.Metric("_runtime")
	assert.False(t, ok, "reserved keys are not metrics")
	_, ok = r.Metric("best_ckpt")
	assert.False(t, ok)
	_, ok = r.Metric("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"val/loss": 0.2, "epoch": 3}, r.NumericMetrics())
}

func TestIsHyperparameter(t *testing.T) {
	assert.True(t, IsHyperparameter("lr"))
	assert.False(t, IsHyperparameter("branch"))
	assert.False(t, IsHyperparameter("commit"))
	assert.False(t, IsHyperparameter("_wandb"))
}

func TestBranchLabel(t *testing.T) {
	assert.Equal(t, "exp-a", RunRecord{Branch: "exp-a", HasBranch: true}.BranchLabel("N/A"))
	assert.Equal(t, "N/A", RunRecord{}.BranchLabel("N/A"))
}

func TestVisibleKeys(t *testing.T) {
	keys := VisibleKeys(Values{"b": Int(1), "_step": Int(2), "a": Int(3)})
	assert.Equal(t, []string{"a", "b"}, keys)
}
