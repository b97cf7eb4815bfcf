package repo

import (
	"context"
	"fmt"

	"github.com/odvcencio/sprout/pkg/diff"
	"github.com/odvcencio/sprout/pkg/object"
)

// storeTreeNode adapts a stored tree or blob to the diff walker's Node
// interface. Directory children are materialized lazily from the store, in
// the serialized (sorted) entry order, so traversal is deterministic.
type storeTreeNode struct {
	store    *object.Store
	isDir    bool
	blobHash object.Hash // leaf content identity
	treeHash object.Hash // subtree hash for directories
}

func (n *storeTreeNode) Dir() bool { return n.isDir }

func (n *storeTreeNode) Identity() diff.Identity {
	if n.isDir {
		return ""
	}
	return diff.Identity(n.blobHash)
}

func (n *storeTreeNode) Children() ([]diff.Child, error) {
	if !n.isDir {
		return nil, nil
	}
	tree, err := n.store.ReadTree(n.treeHash)
	if err != nil {
		return nil, &RepositoryError{Op: fmt.Sprintf("read tree %s", n.treeHash), Err: err}
	}

	out := make([]diff.Child, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		out = append(out, diff.Child{
			Name: e.Name,
			Node: &storeTreeNode{
				store:    n.store,
				isDir:    e.IsDir,
				blobHash: e.BlobHash,
				treeHash: e.SubtreeHash,
			},
		})
	}
	return out, nil
}

// commitTreeRoot resolves a revision to the root node of its commit tree.
func (r *Repo) commitTreeRoot(rev string) (diff.Node, error) {
	h, err := r.ResolveRevision(rev)
	if err != nil {
		return nil, &RepositoryError{Op: fmt.Sprintf("resolve %q", rev), Err: err}
	}
	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, &RepositoryError{Op: fmt.Sprintf("read commit %s", h), Err: err}
	}
	return &storeTreeNode{store: r.Store, isDir: true, treeHash: commit.TreeHash}, nil
}

// DiffCommits walks the trees of two commits in lockstep and returns one
// entry per leaf path, Equal leaves included. Directory paths never appear.
// The walk honors ctx cancellation at path boundaries and discards partial
// results on error.
func (r *Repo) DiffCommits(ctx context.Context, revA, revB string) ([]diff.Entry, error) {
	a, err := r.commitTreeRoot(revA)
	if err != nil {
		return nil, err
	}
	b, err := r.commitTreeRoot(revB)
	if err != nil {
		return nil, err
	}
	return diff.Walk(ctx, a, b)
}

// CountChangedFiles returns the number of leaf paths that differ between
// two commits. It is DiffCommits composed with a filter-count, so the
// count can never diverge from what DiffCommits reports.
func (r *Repo) CountChangedFiles(ctx context.Context, revA, revB string) (int, error) {
	a, err := r.commitTreeRoot(revA)
	if err != nil {
		return 0, err
	}
	b, err := r.commitTreeRoot(revB)
	if err != nil {
		return 0, err
	}
	return diff.CountChanged(ctx, a, b)
}
