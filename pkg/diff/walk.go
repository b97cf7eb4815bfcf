package diff

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
)

// Identity is an opaque, comparable content fingerprint. Equality is the
// sole basis for "unchanged" decisions; an empty Identity means the content
// does not exist at that revision.
type Identity string

// Node is one position in a revision's tree: either a directory with named
// children or a leaf carrying a content identity. An absent node is
// represented by a nil Node, so each side of a comparison is explicitly
// absent, a directory, or a leaf.
type Node interface {
	// Dir reports whether the node is a directory.
	Dir() bool
	// Identity returns the content identity of a leaf node. Directories
	// return the empty Identity.
	Identity() Identity
	// Children returns a directory's children sorted by name. Leaves
	// return nil.
	Children() ([]Child, error)
}

// Child is a named child node within a directory.
type Child struct {
	Name string
	Node Node
}

// Kind classifies what happened to a leaf path between two revisions.
type Kind int

const (
	Equal  Kind = iota // identical content identities on both sides
	Modify             // present on both sides with differing identities
	Add                // present only on the second side
	Remove             // present only on the first side
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Modify:
		return "modify"
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Entry records the comparison result for a single leaf path. Paths always
// carry a leading "/". Directory paths never appear as entries; they are
// expanded into their leaf differences.
type Entry struct {
	Path string
	Kind Kind
}

// Walk compares two trees rooted at a and b and returns one Entry per leaf
// path, including Equal leaves. Callers that only care about changes filter
// by Kind != Equal; CountChanged does exactly that over the same walk.
//
// Either root may be nil, in which case the other side's leaves are all
// reported as Add or Remove. The walk is depth-first over the union of
// child names in sorted order, so output is deterministic. Cancellation is
// checked at every path boundary; on cancellation no partial result is
// returned.
func Walk(ctx context.Context, a, b Node) ([]Entry, error) {
	var entries []Entry
	if err := walk(ctx, "", a, b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountChanged returns the number of leaf paths whose Kind is not Equal.
// It is a filter over Walk, never a separate traversal, so a count can
// never diverge from what Walk reports.
func CountChanged(ctx context.Context, a, b Node) (int, error) {
	entries, err := Walk(ctx, a, b)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Kind != Equal {
			n++
		}
	}
	return n, nil
}

func walk(ctx context.Context, path string, a, b Node, out *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	aDir := a != nil && a.Dir()
	bDir := b != nil && b.Dir()

	// A directory on either side means the path itself gets no entry; the
	// comparison recurses into the union of children. A side that is absent
	// or a leaf contributes no children, so it behaves as an empty subtree
	// and the other side's leaves surface as Add/Remove.
	if aDir || bDir {
		aKids, err := childMap(a, aDir)
		if err != nil {
			return err
		}
		bKids, err := childMap(b, bDir)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(aKids)+len(bKids))
		for name := range aKids {
			names = append(names, name)
		}
		for name := range bKids {
			if _, seen := aKids[name]; !seen {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		for _, name := range names {
			if err := walk(ctx, path+"/"+name, aKids[name], bKids[name], out); err != nil {
				return err
			}
		}
		return nil
	}

	// The root itself has no meaningful status.
	if path == "" {
		return nil
	}

	var aID, bID Identity
	if a != nil {
		aID = a.Identity()
	}
	if b != nil {
		bID = b.Identity()
	}

	var kind Kind
	switch {
	case aID == "" && bID == "":
		// Cannot represent a real difference; a correct store never
		// produces it. Flag and move on rather than emitting a bogus entry.
		log.Warn().Str("path", path).Msg("tree walk: leaf absent on both sides")
		return nil
	case aID != "" && bID != "" && aID == bID:
		kind = Equal
	case aID != "" && bID != "":
		kind = Modify
	case aID != "":
		kind = Remove
	default:
		kind = Add
	}

	*out = append(*out, Entry{Path: path, Kind: kind})
	return nil
}

func childMap(n Node, isDir bool) (map[string]Node, error) {
	if !isDir {
		return nil, nil
	}
	kids, err := n.Children()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Node, len(kids))
	for _, c := range kids {
		m[c.Name] = c.Node
	}
	return m, nil
}
