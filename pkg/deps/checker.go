// Package deps checks that external programs are installed.
package deps

import (
	"fmt"
	"os/exec"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Checker verifies that required programs are available.
type Checker struct {
	dependencies []string
	lookPath     func(string) (string, error)
}

// NewChecker creates a checker for the given programs, names or paths.
func NewChecker(deps ...string) *Checker {
	return &Checker{dependencies: deps, lookPath: exec.LookPath}
}

// CheckAll returns a *MissingDepsError listing every missing program.
func (c *Checker) CheckAll() error {
	missing := lo.Reject(c.dependencies, func(dep string, _ int) bool {
		return c.IsAvailable(dep)
	})
	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}
	return nil
}

// IsAvailable checks if a single program can be found.
func (c *Checker) IsAvailable(name string) bool {
	_, err := c.lookPath(name)
	return err == nil
}

// CheckAndLog checks all programs and logs where each one was found.
func (c *Checker) CheckAndLog(log logrus.FieldLogger) error {
	var missing []string

	for _, dep := range c.dependencies {
		path, err := c.lookPath(dep)
		if err != nil {
			log.Errorf("'%s' not found, install it and retry", dep)
			missing = append(missing, dep)
			continue
		}
		log.Debugf("Found '%s' at %s", dep, path)
	}

	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}
	return nil
}

// MissingDepsError is returned when required programs are missing.
type MissingDepsError struct {
	Dependencies []string
}

func (e *MissingDepsError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.Dependencies)
}
