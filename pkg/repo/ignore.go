package repo

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreChecker determines whether a path should be excluded from status
// scans. It always ignores .sprout/ and .git/; additional patterns come
// from a .sproutignore file at the repository root.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against the full path
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository root.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{
			{pattern: ".sprout"},
			{pattern: ".git"},
		},
	}

	f, err := os.Open(filepath.Join(repoRoot, ".sproutignore"))
	if err != nil {
		return ic
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p := parseIgnoreLine(scanner.Text()); p != nil {
			ic.patterns = append(ic.patterns, *p)
		}
	}
	return ic
}

// parseIgnoreLine parses a single .sproutignore line. Returns nil for empty
// lines and comments.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line
	return p
}

// IsIgnored reports whether a repo-relative, slash-separated path should be
// ignored. A path is also ignored when any of its parent directories
// matches an ignore pattern. Last matching pattern wins, so negations can
// re-include earlier matches.
func (ic *IgnoreChecker) IsIgnored(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	// Check every ancestor: ignoring a directory ignores its contents.
	segments := strings.Split(rel, "/")
	for i := 1; i <= len(segments); i++ {
		prefix := strings.Join(segments[:i], "/")
		isDir := i < len(segments)
		if ic.matches(prefix, isDir) {
			return true
		}
	}
	return false
}

func (ic *IgnoreChecker) matches(rel string, isDir bool) bool {
	ignored := false
	base := path.Base(rel)
	for _, p := range ic.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		var hit bool
		if p.hasSlash {
			hit, _ = path.Match(p.pattern, rel)
		} else {
			hit, _ = path.Match(p.pattern, base)
		}
		if hit {
			ignored = !p.negated
		}
	}
	return ignored
}
