package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

func branch(name string, summary record.Values) record.RunRecord {
	return record.RunRecord{ID: "run-" + name, Branch: name, HasBranch: true, State: record.StateFinished, Summary: summary}
}

func set(runs ...record.RunRecord) resolve.BranchSet {
	s := make(resolve.BranchSet)
	for _, r := range runs {
		s[r.Branch] = r
	}
	return s
}

func TestCompare_LowerAndHigher(t *testing.T) {
	s := set(
		branch("main", record.Values{"val/loss": record.Float(0.20), "val/acc": record.Float(0.90)}),
		branch("exp-a", record.Values{"val/loss": record.Float(0.15), "val/acc": record.Float(0.88)}),
	)

	cmp, rank := Compare(s, []string{"val/loss", "val/acc"}, direction.Default())

	require.Contains(t, cmp, "val/loss")
	assert.True(t, cmp["val/loss"].LowerIsBetter)
	assert.Equal(t, "exp-a", cmp["val/loss"].Winner)

	assert.False(t, cmp["val/acc"].LowerIsBetter)
	assert.Equal(t, "main", cmp["val/acc"].Winner)

	assert.Equal(t, map[string]int{"exp-a": 1, "main": 1}, rank.WinCounts)
	assert.Equal(t, []string{"exp-a", "main"}, rank.Ranking)
}

func TestCompare_TieBreakLexicographic(t *testing.T) {
	s := set(
		branch("b", record.Values{"acc": record.Float(0.9)}),
		branch("a", record.Values{"acc": record.Float(0.9)}),
		branch("c", record.Values{"acc": record.Float(0.5)}),
	)

	for i := 0; i < 20; i++ {
		cmp, _ := Compare(s, []string{"acc"}, direction.Default())
		assert.Equal(t, "a", cmp["acc"].Winner)
	}
}

func TestCompare_ExcludesNonNumeric(t *testing.T) {
	s := set(
		branch("a", record.Values{"score": record.Text("0.99")}),
		branch("b", record.Values{"score": record.Bool(true)}),
		branch("c", record.Values{"score": record.Null{}}),
		branch("d", record.Values{"score": record.Int(3)}),
		branch("e", record.Values{"score": record.Other{Raw: map[string]any{"x": 1}}}),
	)

	cmp, _ := Compare(s, []string{"score"}, direction.Default())
	assert.Equal(t, map[string]float64{"d": 3}, cmp["score"].Values)
	assert.Equal(t, "d", cmp["score"].Winner)
}

func TestCompare_EmptyValuesNoWinner(t *testing.T) {
	s := set(branch("a", nil), branch("b", record.Values{"acc": record.Float(1)}))

	cmp, rank := Compare(s, []string{"ghost", "acc"}, direction.Default())
	assert.False(t, cmp["ghost"].HasWinner)
	assert.Empty(t, cmp["ghost"].Values)
	assert.Equal(t, 1, rank.TotalWins())
	assert.Equal(t, 0, rank.WinCounts["a"])
	assert.Equal(t, []string{"b", "a"}, rank.Ranking)
}

func TestCompare_WinConservation(t *testing.T) {
	s := set(
		branch("a", record.Values{"m1": record.Float(1), "m2": record.Float(5), "m3_loss": record.Float(0.3)}),
		branch("b", record.Values{"m1": record.Float(2), "m2": record.Float(4), "m3_loss": record.Float(0.1)}),
		branch("c", record.Values{"m1": record.Float(0), "m4": record.Float(9)}),
	)
	metrics := []string{"m1", "m2", "m3_loss", "m4", "absent"}

	cmp, rank := Compare(s, metrics, direction.Default())
	withWinner := 0
	for _, mc := range cmp {
		if mc.HasWinner {
			withWinner++
		}
	}
	assert.Equal(t, 4, withWinner)
	assert.Equal(t, withWinner, rank.TotalWins())
}

func TestCompare_EmptyMetricList(t *testing.T) {
	s := set(branch("a", record.Values{"acc": record.Float(1)}), branch("b", nil))

	cmp, rank := Compare(s, nil, direction.Default())
	assert.Empty(t, cmp)
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, rank.WinCounts)
	assert.Equal(t, []string{"a", "b"}, rank.Ranking)
}

func TestCompare_Override(t *testing.T) {
	s := set(
		branch("a", record.Values{"custom_score": record.Float(1)}),
		branch("b", record.Values{"custom_score": record.Float(2)}),
	)
	c := direction.Default().WithOverrides(map[string]direction.Direction{"custom_score": direction.Lower})

	cmp, _ := Compare(s, []string{"custom_score"}, c)
	assert.True(t, cmp["custom_score"].LowerIsBetter)
	assert.Equal(t, "a", cmp["custom_score"].Winner)
}

func TestCompare_DuplicateMetricCountsOnce(t *testing.T) {
	s := set(branch("a", record.Values{"acc": record.Float(1)}))
	_, rank := Compare(s, []string{"acc", "acc"}, direction.Default())
	assert.Equal(t, 1, rank.WinCounts["a"])
}

func TestDiscoverMetrics(t *testing.T) {
	s := set(
		branch("a", record.Values{"val/loss": record.Float(1), "_runtime": record.Float(3), "opt": record.Text("adam")}),
		branch("b", record.Values{"val/acc": record.Int(1), "flag": record.Bool(true)}),
	)
	assert.Equal(t, []string{"val/acc", "val/loss"}, DiscoverMetrics(s))
	assert.Empty(t, DiscoverMetrics(resolve.BranchSet{}))
}

func TestRank(t *testing.T) {
	assert.Equal(t, []string{"c", "a", "b"}, Rank(map[string]int{"a": 1, "b": 1, "c": 3}))
	assert.Empty(t, Rank(nil))
}

func TestValueOf(t *testing.T) {
	r := branch("a", record.Values{"opt": record.Text("adam"), "n": record.Null{}, "_x": record.Int(1)})

	v, ok := ValueOf(r, "opt")
	assert.True(t, ok)
	assert.Equal(t, record.Text("adam"), v)

	_, ok = ValueOf(r, "n")
	assert.False(t, ok)
	_, ok = ValueOf(r, "_x")
	assert.False(t, ok)
}
