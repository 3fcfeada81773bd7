package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpInsert = "insert"
	OpUpsert = "upsert"
	OpDelete = "delete"
	OpReload = "reload"
)

// Scenario defines one conformance scenario for the record log.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Steps are applied in order to a fresh log.
	Steps []Step `yaml:"steps"`

	// Expect describes the final state of both views.
	Expect Expect `yaml:"expect"`
}

// Step is one operation applied to the log.
type Step struct {
	// Op is one of insert, upsert, delete, reload.
	Op string `yaml:"op"`

	// ID targets upsert and delete steps.
	ID uint32 `yaml:"id,omitempty"`

	// Doc is the document for insert and upsert steps. An upsert step
	// without a doc resolves to "no document" (tombstone if the id is
	// live, no-op otherwise).
	Doc map[string]any `yaml:"doc,omitempty"`

	// ExpectID, on an insert step, asserts the allocated identifier.
	ExpectID uint32 `yaml:"expect_id,omitempty"`
}

// ExpectedRecord is one record expected in a view.
type ExpectedRecord struct {
	ID  uint32         `yaml:"id"`
	Doc map[string]any `yaml:"doc"`
}

// Expect describes the final state of the log. Absent fields are not
// asserted; an explicitly empty list asserts an empty view.
type Expect struct {
	Count      *int             `yaml:"count,omitempty"`
	Live       []ExpectedRecord `yaml:"live,omitempty"`
	Historical []ExpectedRecord `yaml:"historical,omitempty"`
}

// LoadScenario loads and validates a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		scenario, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// Validate checks the scenario's structure before it runs.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpInsert:
			if step.Doc == nil {
				return fmt.Errorf("steps[%d]: insert requires a doc", i)
			}
			if step.ID != 0 {
				return fmt.Errorf("steps[%d]: insert allocates its own id", i)
			}
		case OpUpsert, OpDelete:
			if step.ID == 0 {
				return fmt.Errorf("steps[%d]: %s requires an id", i, step.Op)
			}
		case OpReload:
			if step.ID != 0 || step.Doc != nil {
				return fmt.Errorf("steps[%d]: reload takes no arguments", i)
			}
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}
	return nil
}
