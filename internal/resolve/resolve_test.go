package resolve

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/record"
)

var t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func run(id, branch string, state record.State, offset time.Duration) record.RunRecord {
	return record.RunRecord{
		ID:        id,
		Branch:    branch,
		HasBranch: branch != "",
		State:     state,
		CreatedAt: t0.Add(offset),
		LastStep:  -1,
	}
}

func fixture() []record.RunRecord {
	return []record.RunRecord{
		run("r1", "main", record.StateFinished, 0),
		run("r2", "main", record.StateRunning, time.Hour),
		run("r3", "exp-a", record.StateFinished, 2*time.Hour),
		run("r4", "exp-a", record.StateCrashed, 30*time.Minute),
		run("r5", "", record.StateFinished, 3*time.Hour),
		run("r6", "exp-b", record.StateFinished, time.Hour),
		run("r7", "exp-b", record.StateFinished, time.Hour),
	}
}

func TestResolve_Recency(t *testing.T) {
	set := Resolve([]record.RunRecord{
		run("old", "b", record.StateFinished, 0),
		run("new", "b", record.StateFinished, time.Minute),
	}, Latest())

	require.Len(t, set, 1)
	assert.Equal(t, "new", set["b"].ID)
}

func TestResolve_LatestAnyState(t *testing.T) {
	set := Resolve(fixture(), Latest())

	assert.Equal(t, []string{"exp-a", "exp-b", "main"}, set.Branches())
	assert.Equal(t, "r2", set["main"].ID)
	assert.Equal(t, "r3", set["exp-a"].ID)
	// Equal timestamps: smallest ID wins.
	assert.Equal(t, "r6", set["exp-b"].ID)
}

func TestResolve_LatestInState(t *testing.T) {
	set := Resolve(fixture(), LatestIn(record.StateFinished))
	assert.Equal(t, "r1", set["main"].ID)

	crashed := Resolve(fixture(), LatestIn(record.StateCrashed))
	assert.Equal(t, []string{"exp-a"}, crashed.Branches())
	assert.Equal(t, "r4", crashed["exp-a"].ID)
}

func TestResolve_UnassignedNeverOccupiesSlot(t *testing.T) {
	set := Resolve(fixture(), Latest())
	for name, r := range set {
		assert.NotEmpty(t, name)
		assert.NotEqual(t, "r5", r.ID)
	}
}

func TestResolve_Empty(t *testing.T) {
	set := Resolve(nil, Latest())
	assert.NotNil(t, set)
	assert.Empty(t, set)
	assert.Empty(t, set.Branches())
}

func TestResolve_PermutationInvariant(t *testing.T) {
	base := fixture()
	want := Resolve(base, Latest())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		perm := make([]record.RunRecord, len(base))
		for j, k := range rng.Perm(len(base)) {
			perm[j] = base[k]
		}
		assert.Equal(t, want, Resolve(perm, Latest()), "permutation %d", i)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	first := in[0].ID
	Resolve(in, Latest())
	assert.Equal(t, first, in[0].ID)
}

func TestLatestFor(t *testing.T) {
	r, found := LatestFor(fixture(), "main", LatestIn(record.StateFinished))
	require.True(t, found)
	assert.Equal(t, "r1", r.ID)

	_, found = LatestFor(fixture(), "nope", Latest())
	assert.False(t, found)
}

func TestForBranch(t *testing.T) {
	runs := ForBranch(fixture(), "exp-a")
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r4", runs[1].ID)
}

func TestBranchSet_Only(t *testing.T) {
	set := Resolve(fixture(), Latest()).Only([]string{"main", "ghost"})
	assert.Equal(t, []string{"main"}, set.Branches())
}
