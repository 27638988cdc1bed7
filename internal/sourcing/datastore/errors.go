package datastore

import (
	"errors"
	"fmt"
)

// ErrSource matches every failure raised by a data source. Callers use it to
// tell fetch failures apart from scoring or storage errors.
var ErrSource = errors.New("data source failure")

// SourceError describes a failed fetch.
type SourceError struct {
	Source string // "notion", "file", "github"
	Op     string // operation or request path
	Status int    // HTTP status, 0 when not applicable
	Err    error
}

func (e *SourceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Source, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is reports ErrSource as a match so errors.Is(err, ErrSource) works
// through wrapping.
func (e *SourceError) Is(target error) bool { return target == ErrSource }
