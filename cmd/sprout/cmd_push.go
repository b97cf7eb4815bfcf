package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/odvcencio/sprout/pkg/object"
	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "push [remote] [branch]",
		Short: "Push a local branch to a remote",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			remoteArg, branch := splitRemoteAndBranchArgs(r, args)
			remoteName, remoteURL, err := resolveRemoteNameAndURL(r, remoteArg)
			if err != nil {
				return err
			}
			return pushBranch(cmd, r, remoteName, remoteURL, branch, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "allow non-fast-forward update")
	return cmd
}

// splitRemoteAndBranchArgs interprets up to two positional arguments: a
// single argument is a remote if it parses as one, otherwise a branch.
func splitRemoteAndBranchArgs(r *repo.Repo, args []string) (remoteArg, branch string) {
	switch len(args) {
	case 1:
		candidate := strings.TrimSpace(args[0])
		if looksLikeRemoteURL(candidate) {
			return candidate, ""
		}
		if _, err := r.RemoteURL(candidate); err == nil {
			return candidate, ""
		}
		return "", candidate
	case 2:
		return strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	}
	return "", ""
}

func pushBranch(cmd *cobra.Command, r *repo.Repo, remoteName, remoteURL, branch string, force bool) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		var err error
		branch, err = r.CurrentBranch()
		if err != nil {
			return err
		}
		if branch == "" {
			return fmt.Errorf("cannot infer branch while HEAD is detached; specify branch")
		}
	}

	localRef := "refs/heads/" + branch
	remoteRef := "heads/" + branch
	localHash, err := r.ResolveRef(localRef)
	if err != nil {
		return fmt.Errorf("resolve local ref %q: %w", localRef, err)
	}

	client, err := newRemoteClient(remoteURL)
	if err != nil {
		return err
	}
	remoteRefs, err := client.ListRefs(cmd.Context())
	if err != nil {
		return err
	}

	remoteHash, hasRemote := remoteRefs[remoteRef]
	if hasRemote && strings.TrimSpace(string(remoteHash)) == "" {
		hasRemote = false
	}

	if hasRemote && remoteHash == localHash {
		_ = r.UpdateRef(remoteTrackingRefName(remoteName, remoteRef), remoteHash)
		fmt.Fprintf(cmd.OutOrStdout(), "everything up-to-date (%s)\n", shortHash(localHash))
		return nil
	}

	if hasRemote && !force {
		if !r.Store.Has(remoteHash) {
			haves, err := localRefTips(r)
			if err != nil {
				return err
			}
			if _, err := remote.FetchIntoStore(cmd.Context(), client, r.Store, []object.Hash{remoteHash}, haves); err != nil {
				return fmt.Errorf("push safety check failed fetching remote head: %w", err)
			}
		}
		ff, err := isAncestor(r, remoteHash, localHash)
		if err != nil {
			return fmt.Errorf("push safety check failed: %w", err)
		}
		if !ff {
			return fmt.Errorf("push rejected: non-fast-forward (local %s does not contain remote %s)", shortHash(localHash), shortHash(remoteHash))
		}
	}

	stopRoots := make([]object.Hash, 0, len(remoteRefs))
	for _, h := range remoteRefs {
		if strings.TrimSpace(string(h)) == "" {
			continue
		}
		if r.Store.Has(h) {
			stopRoots = append(stopRoots, h)
		}
	}

	objectsToPush, err := remote.CollectObjectsForPush(r.Store, []object.Hash{localHash}, stopRoots)
	if err != nil {
		return err
	}
	uploaded, err := pushObjectsChunked(cmd.Context(), client, objectsToPush)
	if err != nil {
		return err
	}

	old := object.Hash("")
	if hasRemote {
		old = remoteHash
	}
	newHash := localHash
	update := remote.RefUpdate{Name: remoteRef, New: &newHash}
	if hasRemote {
		update.Old = &old
	}
	updated, err := client.UpdateRefs(cmd.Context(), []remote.RefUpdate{update})
	if err != nil {
		return err
	}

	finalHash := localHash
	if h, ok := updated[remoteRef]; ok && strings.TrimSpace(string(h)) != "" {
		finalHash = h
	}
	if err := r.UpdateRef(remoteTrackingRefName(remoteName, remoteRef), finalHash); err != nil {
		return err
	}

	if hasRemote {
		fmt.Fprintf(cmd.OutOrStdout(), "pushed branch %s: %s -> %s (%d objects)\n", branch, shortHash(remoteHash), shortHash(finalHash), uploaded)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pushed new branch %s at %s (%d objects)\n", branch, shortHash(finalHash), uploaded)
	return nil
}

// pushObjectsChunked uploads objects in bounded batches so a large history
// does not produce one oversized request.
func pushObjectsChunked(ctx context.Context, client *remote.Client, objects []remote.ObjectRecord) (int, error) {
	const (
		maxChunkObjects = 2000
		maxChunkBytes   = 32 << 20
		maxObjectBytes  = 16 << 20
	)
	if len(objects) == 0 {
		return 0, nil
	}

	chunk := make([]remote.ObjectRecord, 0, maxChunkObjects)
	chunkBytes := 0
	uploaded := 0

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := client.PushObjects(ctx, chunk); err != nil {
			return err
		}
		uploaded += len(chunk)
		chunk = chunk[:0]
		chunkBytes = 0
		return nil
	}

	for _, obj := range objects {
		if len(obj.Data) > maxObjectBytes {
			return uploaded, fmt.Errorf("object %s exceeds %d-byte push limit", shortHash(obj.Hash), maxObjectBytes)
		}
		recBytes := len(obj.Data) + 128
		if len(chunk) > 0 && (len(chunk) >= maxChunkObjects || chunkBytes+recBytes > maxChunkBytes) {
			if err := flush(); err != nil {
				return uploaded, err
			}
		}
		chunk = append(chunk, obj)
		chunkBytes += recBytes
	}
	if err := flush(); err != nil {
		return uploaded, err
	}
	return uploaded, nil
}
