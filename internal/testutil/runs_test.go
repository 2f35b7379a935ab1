package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/brancheval/internal/record"
)

func TestRunBuilder_Defaults(t *testing.T) {
	r := Run("r1").Build()

	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "r1", r.Name)
	assert.Equal(t, DefaultProject, r.Project)
	assert.Equal(t, record.StateFinished, r.State)
	assert.False(t, r.HasBranch)
	assert.Equal(t, int64(-1), r.LastStep)
}

func TestRunBuilder_BuildCopies(t *testing.T) {
	b := Run("r1").On("main").Metric("loss", 1)
	first := b.Build()
	b.Metric("loss", 2)

	v, _ := first.Metric("loss")
	assert.Equal(t, 1.0, v, "earlier build must not see later mutations")
}

func TestEndToEnd_Shape(t *testing.T) {
	runs := EndToEnd()
	assert.Len(t, runs, 3)
	assert.Equal(t, record.StateRunning, runs[2].State)
	assert.True(t, runs[0].CreatedAt.Before(runs[1].CreatedAt))
}
