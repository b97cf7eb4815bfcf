package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings: author identity, named remotes,
// and per-branch upstream tracking. It lives at .sprout/config.toml.
type Config struct {
	User     UserConfig              `toml:"user,omitempty"`
	Remotes  map[string]RemoteConfig `toml:"remote,omitempty"`
	Branches map[string]BranchConfig `toml:"branch,omitempty"`
}

// UserConfig identifies the commit author.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// RemoteConfig describes a named remote.
type RemoteConfig struct {
	URL string `toml:"url,omitempty"`
}

// BranchConfig describes a branch's upstream tracking configuration.
type BranchConfig struct {
	Remote string `toml:"remote,omitempty"`
	Merge  string `toml:"merge,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.SproutDir, "config.toml")
}

// ReadConfig reads .sprout/config.toml. Missing config returns an empty
// config.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return emptyConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]RemoteConfig)
	}
	if cfg.Branches == nil {
		cfg.Branches = make(map[string]BranchConfig)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .sprout/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = emptyConfig()
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}
	return r.writeConfigBytes(data)
}

func (r *Repo) writeConfigBytes(data []byte) error {
	tmp, err := os.CreateTemp(r.SproutDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

func emptyConfig() *Config {
	return &Config{
		Remotes:  make(map[string]RemoteConfig),
		Branches: make(map[string]BranchConfig),
	}
}

// SetRemote stores/updates a named remote URL in repository config.
func (r *Repo) SetRemote(name, remoteURL string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set remote: remote name is required")
	}
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return fmt.Errorf("set remote: remote URL is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = RemoteConfig{URL: remoteURL}
	return r.WriteConfig(cfg)
}

// RemoteURL returns the configured URL for the given remote name.
func (r *Repo) RemoteURL(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("remote name is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	rc, ok := cfg.Remotes[name]
	if !ok || strings.TrimSpace(rc.URL) == "" {
		return "", fmt.Errorf("remote %q is not configured", name)
	}
	return rc.URL, nil
}

// SetBranchUpstream records which remote and merge ref a branch tracks.
func (r *Repo) SetBranchUpstream(branch, remote, mergeRef string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("set upstream: branch name is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Branches[branch] = BranchConfig{Remote: remote, Merge: mergeRef}
	return r.WriteConfig(cfg)
}

// ConfigGet looks up a config value by dotted path, e.g.
// "branch.main.remote" or "user.name". Intermediate segments address TOML
// tables; the final segment must be a scalar value.
func (r *Repo) ConfigGet(key string) (string, error) {
	segments, err := splitConfigKey(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("config: %q is not set", key)
		}
		return "", fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("read config: unmarshal: %w", err)
	}

	var cur any = doc
	for i, seg := range segments {
		table, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("config: %q is not a table", strings.Join(segments[:i], "."))
		}
		cur, ok = table[seg]
		if !ok {
			return "", fmt.Errorf("config: %q is not set", key)
		}
	}

	if _, isTable := cur.(map[string]any); isTable {
		return "", fmt.Errorf("config: %q is a table, not a value", key)
	}
	return fmt.Sprintf("%v", cur), nil
}

// ConfigSet stores a config value by dotted path, creating intermediate
// tables as needed.
func (r *Repo) ConfigSet(key, value string) error {
	segments, err := splitConfigKey(key)
	if err != nil {
		return err
	}

	doc := make(map[string]any)
	if data, err := os.ReadFile(r.configPath()); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("read config: unmarshal: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}

	cur := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segments[len(segments)-1]] = value

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}
	return r.writeConfigBytes(data)
}

func splitConfigKey(key string) ([]string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("config: key is required")
	}
	segments := strings.Split(key, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("config: malformed key %q", key)
		}
	}
	return segments, nil
}
