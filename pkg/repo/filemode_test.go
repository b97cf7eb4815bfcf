package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/sprout/pkg/object"
)

func TestModeFromFileInfo(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	exec := filepath.Join(dir, "exec")
	if err := os.WriteFile(exec, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	plainInfo, err := os.Stat(plain)
	if err != nil {
		t.Fatal(err)
	}
	execInfo, err := os.Stat(exec)
	if err != nil {
		t.Fatal(err)
	}

	if got := modeFromFileInfo(plainInfo); got != object.TreeModeFile {
		t.Errorf("plain file mode = %q, want %q", got, object.TreeModeFile)
	}
	if got := modeFromFileInfo(execInfo); got != object.TreeModeExecutable {
		t.Errorf("executable file mode = %q, want %q", got, object.TreeModeExecutable)
	}
}

func TestNormalizeFileModeCoercesUnknownModes(t *testing.T) {
	cases := map[string]string{
		object.TreeModeFile:       object.TreeModeFile,
		object.TreeModeExecutable: object.TreeModeExecutable,
		"":                        object.TreeModeFile,
		"120000":                  object.TreeModeFile,
	}
	for in, want := range cases {
		if got := normalizeFileMode(in); got != want {
			t.Errorf("normalizeFileMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilePermFromMode(t *testing.T) {
	if got := filePermFromMode(object.TreeModeExecutable); got != 0o755 {
		t.Errorf("executable perm = %o, want 755", got)
	}
	if got := filePermFromMode("unrecognized"); got != 0o644 {
		t.Errorf("fallback perm = %o, want 644", got)
	}
}
