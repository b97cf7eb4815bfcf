package repo

import (
	"github.com/odvcencio/sprout/pkg/object"
)

// Repo represents an opened Sprout repository.
//
// Status and diff computations are read-only snapshots of store state at
// call time; concurrent reads against different refs are safe, but callers
// must serialize reads that race with a mutating operation (commit,
// checkout) on the same working tree.
type Repo struct {
	RootDir   string        // working directory root
	SproutDir string        // .sprout/ directory
	Store     *object.Store // content-addressed object store
}
