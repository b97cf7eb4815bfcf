package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func writeTestSigningKey(t *testing.T) (string, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return keyPath, pub
}

func TestSSHCommitSignerProducesVerifiableSignature(t *testing.T) {
	keyPath, pub := writeTestSigningKey(t)

	signer, resolvedPath, err := newSSHCommitSigner(keyPath)
	if err != nil {
		t.Fatalf("newSSHCommitSigner: %v", err)
	}
	if resolvedPath != keyPath {
		t.Errorf("resolved path = %q, want %q", resolvedPath, keyPath)
	}

	payload := []byte("tree abc\nauthor tester\n")
	encoded, err := signer(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.SplitN(encoded, ":", 4)
	if len(parts) != 4 {
		t.Fatalf("signature has %d fields, want 4: %q", len(parts), encoded)
	}
	if parts[0] != commitSignaturePrefix {
		t.Errorf("prefix = %q, want %q", parts[0], commitSignaturePrefix)
	}
	if parts[1] != ssh.KeyAlgoED25519 {
		t.Errorf("format = %q, want %q", parts[1], ssh.KeyAlgoED25519)
	}

	sigBlob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		t.Fatalf("decode signature blob: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap public key: %v", err)
	}
	if encodedPub := base64.StdEncoding.EncodeToString(sshPub.Marshal()); parts[2] != encodedPub {
		t.Errorf("embedded public key does not match the signing key")
	}
	if err := sshPub.Verify(payload, &ssh.Signature{Format: parts[1], Blob: sigBlob}); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestNewSSHCommitSignerRejectsGarbageKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "not_a_key")
	if err := os.WriteFile(keyPath, []byte("junk"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := newSSHCommitSigner(keyPath); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestResolveSigningKeyPathExplicit(t *testing.T) {
	keyPath, _ := writeTestSigningKey(t)
	got, err := resolveSigningKeyPath(keyPath)
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	if got != keyPath {
		t.Errorf("resolved = %q, want %q", got, keyPath)
	}
}
