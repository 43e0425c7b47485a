package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load returns the rule table to use. With an empty path the built-in
// defaults are returned; otherwise the YAML file at path replaces the table
// wholesale. The result is validated either way.
func Load(path string) (*Table, error) {
	if path == "" {
		t := Defaults()
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("default rule table invalid: %w", err)
		}
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return &t, nil
}
