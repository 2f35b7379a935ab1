package record

import (
	"sort"
	"strings"
	"time"
)

// ReservedPrefix marks tracker-internal summary and config keys.
// Keys with this prefix never take part in metric or config operations.
const ReservedPrefix = "_"

// Config keys that carry run metadata rather than hyperparameters.
const (
	ConfigKeyBranch = "branch"
	ConfigKeyCommit = "commit"
)

// State is the lifecycle state reported by the tracking store.
// Unrecognized strings are kept verbatim so a growing remote vocabulary
// never breaks ingestion.
type State string

// Known run states.
const (
	StateRunning    State = "running"
	StateFinished   State = "finished"
	StateCrashed    State = "crashed"
	StateFailed     State = "failed"
	StateKilled     State = "killed"
	StatePreempting State = "preempting"
	StatePreempted  State = "preempted"
)

var knownStates = map[State]bool{
	StateRunning:    true,
	StateFinished:   true,
	StateCrashed:    true,
	StateFailed:     true,
	StateKilled:     true,
	StatePreempting: true,
	StatePreempted:  true,
}

// ParseState converts a raw state string. It never fails: known values are
// lower-cased, anything else passes through untouched.
func ParseState(s string) State {
	lower := State(strings.ToLower(strings.TrimSpace(s)))
	if knownStates[lower] {
		return lower
	}
	return State(s)
}

// Known reports whether s is one of the enumerated states.
func (s State) Known() bool {
	return knownStates[s]
}

// IsFinished reports whether the run completed successfully.
func (s State) IsFinished() bool {
	return s == StateFinished
}

// IsProblem reports whether the run ended in crashed, failed or killed.
func (s State) IsProblem() bool {
	return s == StateCrashed || s == StateFailed || s == StateKilled
}

// NeedsDiagnosis reports whether the run should be listed by diagnose when
// no branch is given. Preempted runs are included alongside problem states.
func (s State) NeedsDiagnosis() bool {
	return s.IsProblem() || s == StatePreempted
}

func (s State) String() string {
	return string(s)
}

// RunRecord is one experiment execution.
type RunRecord struct {
	ID      string
	Name    string
	Project string

	// Branch is only meaningful when HasBranch is true. Unassigned runs
	// appear in listings but never occupy a branch slot.
	Branch    string
	HasBranch bool

	State     State
	CreatedAt time.Time

	// LastStep is the last logged training step, -1 when none.
	LastStep int64

	Summary Values
	Config  Values

	Tags  []string
	Notes string
}

// BranchLabel returns the branch name, or fallback for unassigned runs.
func (r RunRecord) BranchLabel(fallback string) string {
	if !r.HasBranch {
		return fallback
	}
	return r.Branch
}

// DisplayName returns the run name, falling back to the ID.
func (r RunRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Metric returns the numeric summary value for key. Reserved keys and
// non-numeric values report ok=false.
func (r RunRecord) Metric(key string) (float64, bool) {
	if IsReserved(key) {
		return 0, false
	}
	return AsFloat(r.Summary[key])
}

// NumericMetrics returns every non-reserved numeric summary entry.
func (r RunRecord) NumericMetrics() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range r.Summary {
		if IsReserved(k) {
			continue
		}
		if f, ok := AsFloat(v); ok {
			out[k] = f
		}
	}
	return out
}

// IsReserved reports whether key is tracker-internal.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix)
}

// IsHyperparameter reports whether a config key takes part in diffing.
func IsHyperparameter(key string) bool {
	return key != ConfigKeyBranch && key != ConfigKeyCommit && !IsReserved(key)
}

// HistoryRow is one logged step snapshot of a run's metric history.
type HistoryRow struct {
	Step    int64
	HasStep bool
	Values  Values
}

// Artifact describes one artifact logged by a run.
type Artifact struct {
	Name string
	Type string

	// Size in bytes, negative when unknown.
	Size    int64
	Aliases []string
}

// VisibleKeys returns the sorted non-reserved keys of vals.
func VisibleKeys(vals Values) []string {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
