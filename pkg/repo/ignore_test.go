package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func checkerWithPatterns(t *testing.T, lines string) *IgnoreChecker {
	t.Helper()
	dir := t.TempDir()
	if lines != "" {
		if err := os.WriteFile(filepath.Join(dir, ".sproutignore"), []byte(lines), 0o644); err != nil {
			t.Fatalf("write .sproutignore: %v", err)
		}
	}
	return NewIgnoreChecker(dir)
}

func TestIgnore_AlwaysIgnoresInternalDirs(t *testing.T) {
	ic := checkerWithPatterns(t, "")

	for _, p := range []string{".sprout", ".sprout/HEAD", ".git", ".git/config"} {
		if !ic.IsIgnored(p) {
			t.Errorf("IsIgnored(%q) = false, want true", p)
		}
	}
	if ic.IsIgnored("main.go") {
		t.Error("main.go should not be ignored by default")
	}
}

func TestIgnore_Patterns(t *testing.T) {
	ic := checkerWithPatterns(t, `# build artifacts
*.log
build/
docs/*.tmp
!important.log
`)

	cases := []struct {
		path string
		want bool
	}{
		{"debug.log", true},
		{"sub/dir/trace.log", true},
		{"important.log", false},
		{"build/out.bin", true},
		{"docs/x.tmp", true},
		{"docs/x.txt", false},
		{"src/main.go", false},
	}
	for _, tc := range cases {
		if got := ic.IsIgnored(tc.path); got != tc.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnore_LastMatchWins(t *testing.T) {
	ic := checkerWithPatterns(t, "*.txt\n!keep.txt\nkeep.txt\n")

	if !ic.IsIgnored("keep.txt") {
		t.Error("re-ignored pattern should win as the last match")
	}
	if !ic.IsIgnored("other.txt") {
		t.Error("other.txt should be ignored")
	}
}

func TestIgnore_AncestorDirectory(t *testing.T) {
	ic := checkerWithPatterns(t, "node_modules/\n")

	if !ic.IsIgnored("node_modules/pkg/index.js") {
		t.Error("contents of an ignored directory should be ignored")
	}
}
