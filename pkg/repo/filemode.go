package repo

import (
	"os"

	"github.com/odvcencio/sprout/pkg/object"
)

// Tree entries carry exactly two file modes: plain and executable.
// Anything unrecognized normalizes to plain so stored trees never contain
// stray mode strings.

func modeFromFileInfo(info os.FileInfo) string {
	if info.Mode().Perm()&0o111 != 0 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func normalizeFileMode(mode string) string {
	if mode == object.TreeModeExecutable {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

// filePermFromMode maps a tree-entry mode to the on-disk permissions used
// when checkout materializes the file.
func filePermFromMode(mode string) os.FileMode {
	if normalizeFileMode(mode) == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}
