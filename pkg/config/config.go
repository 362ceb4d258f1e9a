// Package config loads the diary service's YAML configuration. Values may
// reference environment variables (${BAUTAGEBUCH_TOKEN} and friends), which
// are expanded before parsing so secrets stay out of the file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that can check
// themselves after loading.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment references, and unmarshals the
// YAML into target. Fields absent from the file keep whatever defaults
// target already carries. If target implements Validator, the loaded
// configuration is validated before it is returned.
func Load[T any](filename string, target *T) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config: validate %s: %w", filename, err)
		}
	}
	return nil
}
