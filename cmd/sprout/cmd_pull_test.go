package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/sprout/pkg/object"
	"github.com/odvcencio/sprout/pkg/repo"
)

func seedPullCommit(t *testing.T, r *repo.Repo, files map[string]string) object.Hash {
	t.Helper()
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
		paths = append(paths, rel)
	}
	if err := r.Add(paths); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h, err := r.Commit("seed", "tester <t@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return h
}

func TestPullUpdateSummaryCountsChangedFiles(t *testing.T) {
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	oldHash := seedPullCommit(t, r, map[string]string{
		"readme.md":    "v1",
		"notes/a.md":   "alpha",
		"keep/same.md": "stable",
	})
	newHash := seedPullCommit(t, r, map[string]string{
		"notes/a.md": "alpha revised",
		"notes/b.md": "brand new",
	})

	got := pullUpdateSummary(context.Background(), r, "main", oldHash, newHash, 5)
	want := fmt.Sprintf("updated main: %s -> %s (5 objects fetched, 2 file(s) changed)", shortHash(oldHash), shortHash(newHash))
	if got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestPullUpdateSummaryFallsBackOnMissingCommit(t *testing.T) {
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	oldHash := seedPullCommit(t, r, map[string]string{"readme.md": "v1"})
	bogus := object.Hash(strings.Repeat("b", 64))

	got := pullUpdateSummary(context.Background(), r, "main", oldHash, bogus, 1)
	want := fmt.Sprintf("updated main: %s -> %s (1 objects fetched)", shortHash(oldHash), shortHash(bogus))
	if got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}
