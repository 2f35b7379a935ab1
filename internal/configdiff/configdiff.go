// Package configdiff reports the hyperparameters that differ across a set
// of branches.
//
// A branch that lacks a key gets an Absent cell rather than being omitted.
// Absent is its own state: it never compares equal to a real value, even a
// string value of "N/A". The "N/A" spelling is a rendering concern only.
package configdiff

import (
	"sort"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

// AbsentLabel is how Absent cells are rendered in text.
const AbsentLabel = "N/A"

// Cell is one branch's value for a key: either Present with Value, or
// absent.
type Cell struct {
	Value   record.Value
	Present bool
}

// Absent is the cell for a branch that does not define the key.
var Absent = Cell{}

// Text renders the cell for tables.
func (c Cell) Text() string {
	if !c.Present {
		return AbsentLabel
	}
	return record.Stringify(c.Value)
}

// key distinguishes Absent from any present value, including the text
// "N/A".
func (c Cell) key() string {
	if !c.Present {
		return "\x00absent"
	}
	return "v:" + record.Stringify(c.Value)
}

// Entry is one differing hyperparameter.
type Entry struct {
	Key    string
	Values map[string]Cell
}

// AbsentBranches lists branches without the key, sorted.
func (e Entry) AbsentBranches() []string {
	var out []string
	for b, c := range e.Values {
		if !c.Present {
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

// ConfigDiff is ordered by key ascending.
type ConfigDiff []Entry

// Keys returns the differing keys in order.
func (d ConfigDiff) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Diff compares the config of every branch in set. The caller passes the
// set it wants compared (normally finished branches only).
func Diff(set resolve.BranchSet) ConfigDiff {
	keys := make(map[string]bool)
	for _, r := range set {
		for k := range r.Config {
			if record.IsHyperparameter(k) {
				keys[k] = true
			}
		}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	diff := ConfigDiff{}
	for _, key := range sorted {
		entry := Entry{Key: key, Values: make(map[string]Cell, len(set))}
		distinct := make(map[string]bool)
		for branch, r := range set {
			cell := Absent
			if v, ok := r.Config[key]; ok {
				cell = Cell{Value: v, Present: true}
			}
			entry.Values[branch] = cell
			distinct[cell.key()] = true
		}
		if len(distinct) > 1 {
			diff = append(diff, entry)
		}
	}
	return diff
}
