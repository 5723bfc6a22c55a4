package sqlguard

import (
	"errors"
	"fmt"
)

// ErrSecurityViolation matches every *SecurityViolationError via errors.Is.
var ErrSecurityViolation = errors.New("security violation")

// SecurityViolationError reports a forbidden keyword found before execution.
type SecurityViolationError struct {
	Keyword   string
	Statement string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("security violation: forbidden keyword %q detected; only read-only queries are allowed", e.Keyword)
}

// Is lets errors.Is(err, ErrSecurityViolation) match.
func (e *SecurityViolationError) Is(target error) bool {
	return target == ErrSecurityViolation
}
