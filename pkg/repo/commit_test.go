package repo

import (
	"errors"
	"strings"
	"testing"

	"github.com/odvcencio/sprout/pkg/object"
)

func TestCurrentCommit_EmptyRepo(t *testing.T) {
	r, _ := initTestRepo(t)

	_, _, err := r.CurrentCommit()
	if !errors.Is(err, ErrNoCommits) {
		t.Fatalf("err = %v, want ErrNoCommits", err)
	}
}

func TestCurrentCommit_AfterCommit(t *testing.T) {
	r, dir := initTestRepo(t)
	want := seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	h, commit, err := r.CurrentCommit()
	if err != nil {
		t.Fatalf("CurrentCommit: %v", err)
	}
	if h != want {
		t.Errorf("hash = %s, want %s", h, want)
	}
	if commit.Message != "seed" {
		t.Errorf("message = %q, want %q", commit.Message, "seed")
	}
	if len(commit.Parents) != 0 {
		t.Errorf("first commit has %d parents, want 0", len(commit.Parents))
	}
}

func TestCommit_ParentChain(t *testing.T) {
	r, dir := initTestRepo(t)
	h1 := seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	writeWorkFile(t, dir, "f.txt", "two\n")
	if err := r.Add([]string{"f.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h2, err := r.Commit("second", "tester <t@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	c2, err := r.Store.ReadCommit(h2)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if len(c2.Parents) != 1 || c2.Parents[0] != h1 {
		t.Errorf("parents = %v, want [%s]", c2.Parents, h1)
	}
}

func TestCommit_NothingStaged(t *testing.T) {
	r, _ := initTestRepo(t)

	if _, err := r.Commit("empty", "tester <t@example.com>"); err == nil {
		t.Fatal("expected error committing with empty staging area")
	}
}

func TestCommitWithSigner(t *testing.T) {
	r, dir := initTestRepo(t)
	writeWorkFile(t, dir, "f.txt", "one\n")
	if err := r.Add([]string{"f.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var signed []byte
	signer := func(payload []byte) (string, error) {
		signed = payload
		return "sig:deadbeef", nil
	}

	h, err := r.CommitWithSigner("signed commit", "tester <t@example.com>", signer)
	if err != nil {
		t.Fatalf("CommitWithSigner: %v", err)
	}

	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if commit.Signature != "sig:deadbeef" {
		t.Errorf("signature = %q, want %q", commit.Signature, "sig:deadbeef")
	}
	// Payload covers the commit headers but never the signature itself.
	if !strings.Contains(string(signed), string(commit.TreeHash)) {
		t.Error("signing payload does not cover the tree hash")
	}
	if strings.Contains(string(signed), "sig:deadbeef") {
		t.Error("signing payload must not include the signature")
	}
}

func TestLog_FirstParentOrder(t *testing.T) {
	r, dir := initTestRepo(t)
	seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	writeWorkFile(t, dir, "f.txt", "two\n")
	if err := r.Add([]string{"f.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h2, err := r.Commit("second", "tester <t@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	commits, err := r.Log(h2, 10)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].Message != "second" || commits[1].Message != "seed" {
		t.Errorf("order = [%q, %q], want newest first", commits[0].Message, commits[1].Message)
	}

	limited, err := r.Log(h2, 1)
	if err != nil {
		t.Fatalf("Log limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d commits with limit 1, want 1", len(limited))
	}
}

func TestCurrentCommit_CorruptStore(t *testing.T) {
	r, dir := initTestRepo(t)
	seedCommit(t, r, dir, map[string]string{"f.txt": "one\n"})

	// Point the branch at a hash that is not in the store.
	bogus := object.HashObject(object.TypeBlob, []byte("not a commit"))
	if err := r.UpdateRef("refs/heads/main", bogus); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	_, _, err := r.CurrentCommit()
	var re *RepositoryError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v (%T), want *RepositoryError", err, err)
	}
	if errors.Is(err, ErrNoCommits) {
		t.Error("corrupt store must not be reported as ErrNoCommits")
	}
}
