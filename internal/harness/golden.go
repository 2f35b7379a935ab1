package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/brancheval/internal/record"
)

// RunWithGolden runs a scenario and compares the report's canonical JSON
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	data, err := record.MarshalCanonical(result.Report)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}

// CheckGolden compares a scenario report's canonical JSON with
// dir/{name}.golden, or rewrites the file when update is set. It serves
// callers outside go test, which have no *testing.T for goldie.
func CheckGolden(dir string, scenario *Scenario, result *Result, update bool) error {
	data, err := record.MarshalCanonical(result.Report)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, scenario.Name+".golden")

	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Errorf("report for %s does not match %s", scenario.Name, path)
	}
	return nil
}
