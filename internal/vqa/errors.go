// Package vqa composes ansatz, cost function and optimizer into the
// variational algorithms: the eigensolver (VQE), the approximate
// optimizer (QAOA) with its MaxCut solver, and the classifier (VQC).
package vqa

import "fmt"

// ErrInvalidConfig matches any ConfigError.
var ErrInvalidConfig = &ConfigError{}

// ConfigError reports a builder setting that cannot be run. It is returned
// by Build before any optimization starts.
type ConfigError struct {
	Algorithm string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid %s configuration: %s %s", e.Algorithm, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}
