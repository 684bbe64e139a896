// Package testspec loads YAML-described evaluation scenarios and runs them
// against an internal/runtime.Runtime for use from the test suite.
package testspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one program to evaluate and what it must produce.
type Scenario struct {
	ID            string   `yaml:"id"`
	Description   string   `yaml:"description"`
	Source        string   `yaml:"source"`
	Strategy      string   `yaml:"strategy"`       // "ast", "ir", or "ir-fallback"; "" defaults to "ir"
	OptimizeLevel string   `yaml:"optimize_level"` // "none", "basic", or "aggressive"; "" defaults to "basic"
	ModulePaths   []string `yaml:"module_paths"`

	ExpectedValue string `yaml:"expected_value"` // rendered form of the successful result, via Value.String()
	ExpectedError string `yaml:"expected_error"` // substring expected in the error message; "" means no error expected
}

// LoadSpec loads a single scenario from a YAML file.
func LoadSpec(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("scenario missing required field: id")
	}
	if s.Source == "" {
		return nil, fmt.Errorf("scenario missing required field: source")
	}
	return &s, nil
}

// LoadSpecs loads every *.yaml/*.yml scenario file in a directory.
func LoadSpecs(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var specs []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasYAMLExt(name) {
			continue
		}
		s, err := LoadSpec(dir + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func hasYAMLExt(name string) bool {
	return len(name) > 5 && name[len(name)-5:] == ".yaml" ||
		len(name) > 4 && name[len(name)-4:] == ".yml"
}
