// Package resolve selects one representative run per branch.
//
// Input order is never trusted: records are re-sorted by creation time
// (newest first, ties broken by ID ascending) before selection, so the
// result does not depend on which concurrent fetch finished first.
package resolve

import (
	"slices"
	"sort"
	"strings"

	"github.com/roach88/brancheval/internal/record"
)

// Policy controls which records are eligible.
// The zero value selects the latest run of any state.
type Policy struct {
	// State is the required run state when FilterState is set.
	State       record.State
	FilterState bool
}

// Latest selects the most recent run of any state.
func Latest() Policy {
	return Policy{}
}

// LatestIn selects the most recent run in state s.
func LatestIn(s record.State) Policy {
	return Policy{State: s, FilterState: true}
}

func (p Policy) admits(r record.RunRecord) bool {
	return !p.FilterState || r.State == p.State
}

// BranchSet maps a branch name to its representative run.
// Iterate via Branches for deterministic order.
type BranchSet map[string]record.RunRecord

// Branches returns the branch names sorted ascending.
func (s BranchSet) Branches() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the subset of s for which keep returns true.
func (s BranchSet) Filter(keep func(branch string, r record.RunRecord) bool) BranchSet {
	out := make(BranchSet, len(s))
	for name, r := range s {
		if keep(name, r) {
			out[name] = r
		}
	}
	return out
}

// Only returns the subset of s restricted to the named branches.
// Names not present in s are ignored.
func (s BranchSet) Only(names []string) BranchSet {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	return s.Filter(func(branch string, _ record.RunRecord) bool {
		return wanted[branch]
	})
}

// SortRecent returns a copy of runs ordered newest first, ties broken by ID.
func SortRecent(runs []record.RunRecord) []record.RunRecord {
	sorted := slices.Clone(runs)
	slices.SortStableFunc(sorted, func(a, b record.RunRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return sorted
}

// Resolve picks the most recent eligible run for every assigned branch.
// Unassigned runs never occupy a slot. Empty input yields an empty set.
func Resolve(runs []record.RunRecord, p Policy) BranchSet {
	set := make(BranchSet)
	for _, r := range SortRecent(runs) {
		if !r.HasBranch || !p.admits(r) {
			continue
		}
		if _, taken := set[r.Branch]; taken {
			continue
		}
		set[r.Branch] = r
	}
	return set
}

// LatestFor returns the most recent eligible run of one branch.
// found is false when the branch has no matching runs, which is a normal
// state early in an experiment.
func LatestFor(runs []record.RunRecord, branch string, p Policy) (r record.RunRecord, found bool) {
	r, found = Resolve(runs, p)[branch]
	return r, found
}

// ForBranch returns every run of branch, newest first.
func ForBranch(runs []record.RunRecord, branch string) []record.RunRecord {
	var out []record.RunRecord
	for _, r := range SortRecent(runs) {
		if r.HasBranch && r.Branch == branch {
			out = append(out, r)
		}
	}
	return out
}
