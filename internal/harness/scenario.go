package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/brancheval/internal/direction"
)

// Scenario is one evaluation case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	Project string   `yaml:"project,omitempty"`
	Entity  string   `yaml:"entity,omitempty"`
	Metrics []string `yaml:"metrics,omitempty"`

	// Overrides pin metric directions: lower/higher (or min/max).
	Overrides map[string]string `yaml:"overrides,omitempty"`

	// Snapshot is an inline snapshot document, validated the same way as a
	// snapshot file.
	Snapshot yaml.Node `yaml:"snapshot"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one fact of the assembled report.
type Assertion struct {
	Type string `yaml:"type"`

	// Metric is used by winner.
	Metric string `yaml:"metric,omitempty"`

	// Branch is used by winner and wins.
	Branch string `yaml:"branch,omitempty"`

	// Branches is used by finished, running, problems and ranking.
	Branches []string `yaml:"branches,omitempty"`

	// Keys is used by config_keys.
	Keys []string `yaml:"keys,omitempty"`

	// Count is used by wins.
	Count int `yaml:"count,omitempty"`

	// Value is used by insufficient_data.
	Value bool `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertFinished         = "finished"
	AssertRunning          = "running"
	AssertProblems         = "problems"
	AssertWinner           = "winner"
	AssertWins             = "wins"
	AssertRanking          = "ranking"
	AssertConfigKeys       = "config_keys"
	AssertInsufficientData = "insufficient_data"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// overrides converts the direction overrides.
func (s *Scenario) overrides() (map[string]direction.Direction, error) {
	out := make(map[string]direction.Direction, len(s.Overrides))
	for metric, raw := range s.Overrides {
		d, ok := direction.ParseDirection(raw)
		if !ok {
			return nil, fmt.Errorf("override %q: unknown direction %q", metric, raw)
		}
		out[metric] = d
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Snapshot.Kind != yaml.MappingNode {
		return fmt.Errorf("snapshot is required and must be a mapping")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if _, err := s.overrides(); err != nil {
		return err
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFinished, AssertRunning, AssertProblems, AssertRanking, AssertConfigKeys, AssertInsufficientData:
	case AssertWinner:
		if a.Metric == "" {
			return fmt.Errorf("assertions[%d]: metric is required for winner", index)
		}
	case AssertWins:
		if a.Branch == "" {
			return fmt.Errorf("assertions[%d]: branch is required for wins", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for wins", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
