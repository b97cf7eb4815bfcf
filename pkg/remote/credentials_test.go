package remote

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvCredentials(t *testing.T) {
	t.Setenv("SPROUT_TOKEN", "envtok")
	t.Setenv("SPROUT_USERNAME", "")
	t.Setenv("SPROUT_PASSWORD", "")

	cred, err := EnvCredentials{}.Credential("example.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if cred.Token != "envtok" {
		t.Errorf("Token = %q, want %q", cred.Token, "envtok")
	}
	if cred.IsZero() {
		t.Error("credential with token should not be zero")
	}
}

func TestFileCredentials_StoreAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	fc := FileCredentials{Path: path}

	if err := fc.Store("example.com", Credential{Token: "filetok"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := fc.Store("other.com", Credential{Username: "bob", Password: "hunter2"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials file mode = %o, want 0600", perm)
	}

	cred, err := fc.Credential("example.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if cred.Token != "filetok" {
		t.Errorf("Token = %q, want %q", cred.Token, "filetok")
	}

	cred, err = fc.Credential("other.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if cred.Username != "bob" || cred.Password != "hunter2" {
		t.Errorf("basic cred = %+v", cred)
	}

	// Unknown host yields a zero credential, not an error.
	cred, err = fc.Credential("unknown.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if !cred.IsZero() {
		t.Errorf("unknown host cred = %+v, want zero", cred)
	}
}

func TestFileCredentials_Erase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	fc := FileCredentials{Path: path}

	if err := fc.Store("example.com", Credential{Token: "tok"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := fc.Erase("example.com"); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	cred, err := fc.Credential("example.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if !cred.IsZero() {
		t.Errorf("cred after erase = %+v, want zero", cred)
	}

	// Erasing a host that is not stored is fine.
	if err := fc.Erase("missing.com"); err != nil {
		t.Fatalf("Erase missing: %v", err)
	}
}

func TestFileCredentials_MissingFile(t *testing.T) {
	fc := FileCredentials{Path: filepath.Join(t.TempDir(), "nope.toml")}

	cred, err := fc.Credential("example.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if !cred.IsZero() {
		t.Errorf("cred = %+v, want zero", cred)
	}
}

func TestChainCredentials_FirstNonZeroWins(t *testing.T) {
	chain := ChainCredentials{
		StaticCredentials{},
		StaticCredentials{Cred: Credential{Token: "second"}},
		StaticCredentials{Cred: Credential{Token: "third"}},
	}

	cred, err := chain.Credential("example.com")
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if cred.Token != "second" {
		t.Errorf("Token = %q, want %q", cred.Token, "second")
	}
}
