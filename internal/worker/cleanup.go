package worker

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// cleanupStack releases resources in the reverse order they were acquired.
type cleanupStack struct {
	names []string
	funcs []func() error
	log   logrus.FieldLogger
}

func (s *cleanupStack) push(name string, release func() error) {
	s.names = append(s.names, name)
	s.funcs = append(s.funcs, release)
}

// release runs every function, last pushed first, even when some fail. It
// returns the joined errors and leaves the stack empty.
func (s *cleanupStack) release() error {
	var errs []error
	for i := len(s.funcs) - 1; i >= 0; i-- {
		s.log.Debugf("Releasing %s", s.names[i])
		if err := s.funcs[i](); err != nil {
			s.log.Errorf("Unable to release %s: %v", s.names[i], err)
			errs = append(errs, fmt.Errorf("release %s: %w", s.names[i], err))
		}
	}
	s.names = nil
	s.funcs = nil
	return errors.Join(errs...)
}
