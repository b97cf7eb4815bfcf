package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Credential holds authentication material for one remote host. A token
// takes precedence over username/password when both are set.
type Credential struct {
	Token    string `toml:"token,omitempty"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
}

// IsZero reports whether the credential carries no usable material.
func (c Credential) IsZero() bool {
	return strings.TrimSpace(c.Token) == "" && strings.TrimSpace(c.Username) == ""
}

// CredentialProvider resolves a credential for a remote host. Providers
// return a zero Credential (and nil error) when they have nothing for the
// host, so chains can fall through.
type CredentialProvider interface {
	Credential(host string) (Credential, error)
}

// EnvCredentials reads SPROUT_TOKEN, SPROUT_USERNAME, and SPROUT_PASSWORD
// from the environment, for any host.
type EnvCredentials struct{}

func (EnvCredentials) Credential(string) (Credential, error) {
	return Credential{
		Token:    strings.TrimSpace(os.Getenv("SPROUT_TOKEN")),
		Username: strings.TrimSpace(os.Getenv("SPROUT_USERNAME")),
		Password: os.Getenv("SPROUT_PASSWORD"),
	}, nil
}

// StaticCredentials always returns the same credential.
type StaticCredentials struct {
	Cred Credential
}

func (s StaticCredentials) Credential(string) (Credential, error) {
	return s.Cred, nil
}

// FileCredentials reads per-host credentials from a TOML file, keyed by
// hostname:
//
//	[hosts."example.com"]
//	token = "..."
type FileCredentials struct {
	Path string
}

type credentialsFile struct {
	Hosts map[string]Credential `toml:"hosts"`
}

// DefaultCredentialsPath returns the standard location of the credentials
// file, honoring XDG_CONFIG_HOME.
func DefaultCredentialsPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sprout", "credentials.toml"), nil
}

func (f FileCredentials) Credential(host string) (Credential, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, nil
		}
		return Credential{}, fmt.Errorf("read credentials: %w", err)
	}

	var parsed credentialsFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return Credential{}, fmt.Errorf("read credentials: unmarshal: %w", err)
	}
	return parsed.Hosts[host], nil
}

// Store writes or replaces the credential for a host. The file is created
// with mode 0600 since it holds secrets.
func (f FileCredentials) Store(host string, cred Credential) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("store credential: host is required")
	}

	parsed := credentialsFile{Hosts: make(map[string]Credential)}
	if data, err := os.ReadFile(f.Path); err == nil {
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("store credential: unmarshal existing: %w", err)
		}
		if parsed.Hosts == nil {
			parsed.Hosts = make(map[string]Credential)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("store credential: %w", err)
	}
	parsed.Hosts[host] = cred

	out, err := toml.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("store credential: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("store credential: mkdir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("store credential: write: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store credential: rename: %w", err)
	}
	return nil
}

// Erase removes the credential for a host. Erasing a host that is not
// stored is a no-op.
func (f FileCredentials) Erase(host string) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("erase credential: %w", err)
	}

	var parsed credentialsFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("erase credential: unmarshal: %w", err)
	}
	if _, ok := parsed.Hosts[host]; !ok {
		return nil
	}
	delete(parsed.Hosts, host)

	out, err := toml.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("erase credential: marshal: %w", err)
	}
	if err := os.WriteFile(f.Path, out, 0o600); err != nil {
		return fmt.Errorf("erase credential: write: %w", err)
	}
	return nil
}

// ChainCredentials tries each provider in order and returns the first
// non-zero credential.
type ChainCredentials []CredentialProvider

func (c ChainCredentials) Credential(host string) (Credential, error) {
	for _, p := range c {
		cred, err := p.Credential(host)
		if err != nil {
			return Credential{}, err
		}
		if !cred.IsZero() {
			return cred, nil
		}
	}
	return Credential{}, nil
}

// DefaultCredentialProvider resolves credentials from the environment
// first, then the credentials file.
func DefaultCredentialProvider() CredentialProvider {
	chain := ChainCredentials{EnvCredentials{}}
	if path, err := DefaultCredentialsPath(); err == nil {
		chain = append(chain, FileCredentials{Path: path})
	}
	return chain
}
