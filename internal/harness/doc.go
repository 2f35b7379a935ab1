// Package harness runs evaluation scenarios: a snapshot of runs plus the
// facts the resulting report must show.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	project: demo
//	entity: team
//	metrics: [val/loss]            # optional, empty means auto-detect
//	overrides:                     # optional direction overrides
//	  val/bleu: higher
//	snapshot:                      # an inline snapshot document
//	  version: 1
//	  runs:
//	    - id: run-1
//	      branch: main
//	      state: finished
//	      created_at: "2026-01-01T00:01:00Z"
//	      summary: { val/loss: 0.2 }
//	assertions:
//	  - type: finished
//	    branches: [main]
//	  - type: winner
//	    metric: val/loss
//	    branch: main
//
// # Assertion Types
//
//   - finished: the compared branches, in order
//   - running: branches whose latest run is still running
//   - problems: branches whose latest run crashed, failed or was killed
//   - winner: the winner of a metric; an empty branch means no winner
//   - wins: the win count of one branch
//   - ranking: the full ranking order
//   - config_keys: the differing hyperparameter keys
//   - insufficient_data: whether the recommendation is marked insufficient
//
// # Golden Files
//
// RunWithGolden compares the report's canonical JSON against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
