package object

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarshalTreeDeterministicOrder(t *testing.T) {
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "zeta.txt", Mode: TreeModeFile, BlobHash: HashBytes([]byte("z"))},
		{Name: "alpha", IsDir: true, SubtreeHash: HashBytes([]byte("a"))},
		{Name: "mid.go", Mode: TreeModeExecutable, BlobHash: HashBytes([]byte("m"))},
	}}

	out := string(MarshalTree(tr))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	wantOrder := []string{"alpha ", "mid.go ", "zeta.txt "}
	for i, l := range lines {
		if !strings.HasPrefix(l, wantOrder[i]) {
			t.Errorf("line %d = %q, want prefix %q", i, l, wantOrder[i])
		}
	}
}

func TestTreeRoundtrip(t *testing.T) {
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "docs", IsDir: true, Mode: TreeModeDir, SubtreeHash: HashBytes([]byte("sub"))},
		{Name: "main.go", Mode: TreeModeFile, BlobHash: HashBytes([]byte("code"))},
		{Name: "run.sh", Mode: TreeModeExecutable, BlobHash: HashBytes([]byte("sh"))},
	}}

	parsed, err := UnmarshalTree(MarshalTree(tr))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if !reflect.DeepEqual(parsed, tr) {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", parsed, tr)
	}
}

func TestUnmarshalTreeEmpty(t *testing.T) {
	tr, err := UnmarshalTree(nil)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if len(tr.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(tr.Entries))
	}
}

func TestUnmarshalTreeRejectsUnknownMode(t *testing.T) {
	if _, err := UnmarshalTree([]byte("x 777 - -\n")); err == nil {
		t.Fatal("UnmarshalTree accepted an unknown mode")
	}
}

func TestCommitRoundtrip(t *testing.T) {
	c := &CommitObj{
		TreeHash:  HashBytes([]byte("tree")),
		Parents:   []Hash{HashBytes([]byte("p1")), HashBytes([]byte("p2"))},
		Author:    "Dev <dev@example.com>",
		Timestamp: 1700000000,
		Signature: "sshsig-v1:ssh-ed25519:AAAA:BBBB",
		Message:   "merge both lines\n\nwith a body\n",
	}

	parsed, err := UnmarshalCommit(MarshalCommit(c))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if !reflect.DeepEqual(parsed, c) {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", parsed, c)
	}
}

func TestCommitSigningPayloadExcludesSignature(t *testing.T) {
	c := &CommitObj{
		TreeHash:  HashBytes([]byte("tree")),
		Author:    "Dev",
		Timestamp: 42,
		Signature: "sig",
		Message:   "m",
	}

	payload := string(CommitSigningPayload(c))
	if strings.Contains(payload, "signature") {
		t.Error("signing payload contains the signature header")
	}
	if c.Signature != "sig" {
		t.Error("CommitSigningPayload mutated the commit")
	}
}

func TestUnmarshalCommitRejectsMissingSeparator(t *testing.T) {
	if _, err := UnmarshalCommit([]byte("tree abc\nauthor x")); err == nil {
		t.Fatal("UnmarshalCommit accepted input without header/message separator")
	}
}
