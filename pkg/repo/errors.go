package repo

import (
	"errors"
	"fmt"
)

// ErrNoCommits indicates that the current branch has no history yet. This is
// a benign state distinct from a corrupted or unreadable repository: callers
// must not attempt to diff against a commit that does not exist, but they
// also must not treat an empty repository as an error.
var ErrNoCommits = errors.New("no commits yet")

// RepositoryError wraps failures to read repository state: the object
// store, the staging index, or the working tree. It signals "repository
// missing or corrupted" as opposed to a legitimately empty repository.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// UnknownStateError reports a status triple that is not covered by the
// classification table. It indicates either a bug in triple computation or
// an unsupported store state; it is never silently coerced to a default
// status code.
type UnknownStateError struct {
	Path   string
	Triple StateTriple
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("status: state %s for %q is not classifiable", e.Triple.Key(), e.Path)
}
