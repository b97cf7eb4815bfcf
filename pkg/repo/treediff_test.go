package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/odvcencio/sprout/pkg/diff"
)

func TestDiffCommits_ModifyAddEqual(t *testing.T) {
	r, dir := initTestRepo(t)

	hA := seedCommit(t, r, dir, map[string]string{
		"notes/a.md": "alpha v1\n",
		"readme.md":  "unchanged\n",
	})

	writeWorkFile(t, dir, "notes/a.md", "alpha v2\n")
	writeWorkFile(t, dir, "notes/b.md", "brand new\n")
	if err := r.Add([]string{"notes/a.md", "notes/b.md"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hB, err := r.Commit("second", "tester <t@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.DiffCommits(context.Background(), string(hA), string(hB))
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}

	want := []diff.Entry{
		{Path: "/notes/a.md", Kind: diff.Modify},
		{Path: "/notes/b.md", Kind: diff.Add},
		{Path: "/readme.md", Kind: diff.Equal},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(entries), len(want), entries)
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, want[i])
		}
	}

	n, err := r.CountChangedFiles(context.Background(), string(hA), string(hB))
	if err != nil {
		t.Fatalf("CountChangedFiles: %v", err)
	}
	if n != 2 {
		t.Errorf("CountChangedFiles = %d, want 2", n)
	}
}

func TestDiffCommits_RemovedFile(t *testing.T) {
	r, dir := initTestRepo(t)

	hA := seedCommit(t, r, dir, map[string]string{
		"keep.txt": "stay\n",
		"drop.txt": "go\n",
	})

	if err := r.Remove([]string{"drop.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	hB, err := r.Commit("drop one", "tester <t@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.DiffCommits(context.Background(), string(hA), string(hB))
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}

	want := []diff.Entry{
		{Path: "/drop.txt", Kind: diff.Remove},
		{Path: "/keep.txt", Kind: diff.Equal},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(entries), len(want), entries)
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestDiffCommits_SameCommitAllEqual(t *testing.T) {
	r, dir := initTestRepo(t)
	h := seedCommit(t, r, dir, map[string]string{
		"a.txt":     "a\n",
		"sub/b.txt": "b\n",
	})

	entries, err := r.DiffCommits(context.Background(), string(h), string(h))
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}
	for _, e := range entries {
		if e.Kind != diff.Equal {
			t.Errorf("%s: kind = %v, want Equal", e.Path, e.Kind)
		}
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}

	n, err := r.CountChangedFiles(context.Background(), string(h), string(h))
	if err != nil {
		t.Fatalf("CountChangedFiles: %v", err)
	}
	if n != 0 {
		t.Errorf("CountChangedFiles = %d, want 0", n)
	}
}

// Branch names resolve the same as raw hashes.
func TestDiffCommits_BranchRevs(t *testing.T) {
	r, dir := initTestRepo(t)
	hA := seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	if err := r.CreateBranch("snapshot", hA); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	writeWorkFile(t, dir, "f.txt", "two\n")
	if err := r.Add([]string{"f.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("second", "tester <t@example.com>"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.DiffCommits(context.Background(), "snapshot", "main")
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != diff.Modify || entries[0].Path != "/f.txt" {
		t.Errorf("entries = %v, want single Modify of /f.txt", entries)
	}
}

func TestDiffCommits_UnknownRevision(t *testing.T) {
	r, dir := initTestRepo(t)
	h := seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	_, err := r.DiffCommits(context.Background(), string(h), "no-such-branch")
	if err == nil {
		t.Fatal("expected error for unknown revision")
	}
	var re *RepositoryError
	if !errors.As(err, &re) {
		t.Errorf("error type = %T, want *RepositoryError", err)
	}
}

func TestDiffCommits_Cancelled(t *testing.T) {
	r, dir := initTestRepo(t)
	h := seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := r.DiffCommits(ctx, string(h), string(h))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil on cancellation", entries)
	}
}
