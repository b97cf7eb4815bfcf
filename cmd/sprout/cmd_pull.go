package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/odvcencio/sprout/pkg/object"
	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [remote] [branch]",
		Short: "Fetch from remote and fast-forward the current branch",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			remoteArg, branch := splitRemoteAndBranchArgs(r, args)

			// With no arguments, prefer the configured upstream of the
			// current branch.
			if remoteArg == "" && branch == "" {
				if info, err := r.BranchInfo(); err == nil && info.Remote != "" {
					remoteArg = info.Remote
					if info.MergeRef != "" {
						branch = strings.TrimPrefix(info.MergeRef, "refs/heads/")
					}
				}
			}

			remoteName, remoteURL, err := resolveRemoteNameAndURL(r, remoteArg)
			if err != nil {
				return err
			}

			currentBranch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch == "" {
				branch = currentBranch
			}
			if branch == "" {
				return fmt.Errorf("cannot infer branch while HEAD is detached; specify branch")
			}

			client, err := newRemoteClient(remoteURL)
			if err != nil {
				return err
			}
			remoteRefs, err := client.ListRefs(cmd.Context())
			if err != nil {
				return err
			}

			remoteRef := "heads/" + branch
			remoteHash, ok := remoteRefs[remoteRef]
			if !ok || strings.TrimSpace(string(remoteHash)) == "" {
				return fmt.Errorf("remote branch %q not found", branch)
			}

			localRef := "refs/heads/" + branch
			localHash, err := r.ResolveRef(localRef)
			hasLocal := err == nil
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if currentBranch == branch {
				if err := ensureCleanWorkingTree(r); err != nil {
					return err
				}
			}

			haves, err := localRefTips(r)
			if err != nil {
				return err
			}
			fetched, err := remote.FetchIntoStore(cmd.Context(), client, r.Store, []object.Hash{remoteHash}, haves)
			if err != nil {
				return err
			}

			if hasLocal && localHash != remoteHash {
				// Local already contains the remote commit.
				behind, err := isAncestor(r, remoteHash, localHash)
				if err != nil {
					return fmt.Errorf("pull: %w", err)
				}
				if behind {
					if err := r.UpdateRef(remoteTrackingRefName(remoteName, remoteRef), remoteHash); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "already up to date (local %s is ahead of remote %s)\n", shortHash(localHash), shortHash(remoteHash))
					return nil
				}

				ff, err := isAncestor(r, localHash, remoteHash)
				if err != nil {
					return fmt.Errorf("pull: %w", err)
				}
				if !ff {
					return fmt.Errorf("pull would not fast-forward %s (local %s, remote %s); reconcile the branches manually", branch, shortHash(localHash), shortHash(remoteHash))
				}
			}

			needsWorktreeUpdate := currentBranch == branch && (!hasLocal || localHash != remoteHash)
			if needsWorktreeUpdate {
				// Checkout by commit hash before moving the branch ref so the
				// clean-tree check compares against the pre-pull HEAD state.
				if err := r.Checkout(string(remoteHash)); err != nil {
					return err
				}
			}

			if err := r.UpdateRef(localRef, remoteHash); err != nil {
				return err
			}
			if err := r.UpdateRef(remoteTrackingRefName(remoteName, remoteRef), remoteHash); err != nil {
				return err
			}

			if needsWorktreeUpdate {
				if err := writeSymbolicHead(r, branch); err != nil {
					return err
				}
			}

			if hasLocal && localHash == remoteHash {
				fmt.Fprintf(cmd.OutOrStdout(), "already up to date (%s)\n", shortHash(remoteHash))
				return nil
			}
			if !hasLocal {
				fmt.Fprintf(cmd.OutOrStdout(), "created local branch %s at %s (%d objects fetched)\n", branch, shortHash(remoteHash), fetched)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), pullUpdateSummary(cmd.Context(), r, branch, localHash, remoteHash, fetched))
			return nil
		},
	}
}

// pullUpdateSummary describes a fast-forward update, including how many
// files changed between the old and new tips. The count comes from the
// same walk the diff command uses; when it cannot be computed the summary
// falls back to objects only.
func pullUpdateSummary(ctx context.Context, r *repo.Repo, branch string, oldHash, newHash object.Hash, fetched int) string {
	changed, err := r.CountChangedFiles(ctx, string(oldHash), string(newHash))
	if err != nil {
		return fmt.Sprintf("updated %s: %s -> %s (%d objects fetched)", branch, shortHash(oldHash), shortHash(newHash), fetched)
	}
	return fmt.Sprintf("updated %s: %s -> %s (%d objects fetched, %d file(s) changed)", branch, shortHash(oldHash), shortHash(newHash), fetched, changed)
}
