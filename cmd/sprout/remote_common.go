package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/sprout/pkg/object"
	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/odvcencio/sprout/pkg/repo"
)

func shortHash(h object.Hash) string {
	s := string(h)
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

func looksLikeRemoteURL(s string) bool {
	_, err := remote.ParseEndpoint(s)
	return err == nil
}

func newRemoteClient(remoteURL string) (*remote.Client, error) {
	return remote.NewClient(remoteURL)
}

// resolveRemoteNameAndURL accepts a remote name, a bare URL, or "". An
// empty argument falls back to "origin".
func resolveRemoteNameAndURL(r *repo.Repo, remoteArg string) (string, string, error) {
	remoteArg = strings.TrimSpace(remoteArg)
	if remoteArg == "" {
		url, err := r.RemoteURL("origin")
		if err != nil {
			return "", "", fmt.Errorf("remote not configured: %w", err)
		}
		return "origin", url, nil
	}

	if looksLikeRemoteURL(remoteArg) {
		return "origin", remoteArg, nil
	}

	url, err := r.RemoteURL(remoteArg)
	if err != nil {
		return "", "", err
	}
	return remoteArg, url, nil
}

// localRefTips returns every locally known ref tip, used as the initial
// have set during fetch negotiation.
func localRefTips(r *repo.Repo) ([]object.Hash, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}
	tips := make([]object.Hash, 0, len(refs))
	for _, h := range refs {
		if strings.TrimSpace(string(h)) != "" {
			tips = append(tips, h)
		}
	}
	return tips, nil
}

func remoteTrackingRefName(remoteName, remoteRef string) string {
	return fmt.Sprintf("refs/remotes/%s/%s", remoteName, strings.TrimPrefix(remoteRef, "/"))
}

func writeSymbolicHead(r *repo.Repo, branch string) error {
	headPath := filepath.Join(r.SproutDir, "HEAD")
	content := "ref: refs/heads/" + branch + "\n"
	return os.WriteFile(headPath, []byte(content), 0o644)
}

func ensureCleanWorkingTree(r *repo.Repo) error {
	report, err := r.ComputeStatus()
	if err != nil {
		return err
	}
	if len(report.Changed) > 0 {
		return fmt.Errorf("working tree has uncommitted changes (file %q)", report.Changed[0].Path)
	}
	if len(report.Staged) > 0 {
		return fmt.Errorf("staging area has uncommitted changes (file %q)", report.Staged[0])
	}
	return nil
}

// isAncestor reports whether ancestor is reachable from descendant by
// following commit parents. Both hashes must resolve in the local store.
func isAncestor(r *repo.Repo, ancestor, descendant object.Hash) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	seen := make(map[object.Hash]struct{})
	queue := []object.Hash{descendant}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if h == ancestor {
			return true, nil
		}
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return false, fmt.Errorf("walk history at %s: %w", shortHash(h), err)
		}
		queue = append(queue, c.Parents...)
	}
	return false, nil
}
