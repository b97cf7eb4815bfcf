package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/odvcencio/sprout/pkg/object"
)

// HeadState is the HEAD axis of a path's status triple.
type HeadState int

const (
	HeadAbsent  HeadState = iota // no identity recorded in the last commit
	HeadPresent                  // identity recorded in the last commit
)

// WorktreeState is the working-tree axis of a path's status triple.
type WorktreeState int

const (
	WorktreeAbsent   WorktreeState = iota // not on disk
	WorktreeMatching                      // on disk, identical to HEAD
	WorktreeModified                      // on disk, modified or untracked relative to HEAD
)

// StageState is the staging-index axis of a path's status triple.
type StageState int

const (
	StageAbsent          StageState = iota // no entry in the index
	StageMatchesHead                       // staged, identical to HEAD
	StageMatchesWorktree                   // staged, identical to the working copy
	StageDiverged                          // staged, matching neither side
)

// StateTriple is the coarse three-axis state of one path. Every reachable
// triple maps to exactly one status code via the classification table.
type StateTriple struct {
	Head     HeadState
	Worktree WorktreeState
	Stage    StageState
}

// Key renders the triple as its packed three-digit form, e.g. "120".
func (t StateTriple) Key() string {
	return fmt.Sprintf("%d%d%d", t.Head, t.Worktree, t.Stage)
}

// statusCodes is the complete classification table. Keys not present here
// do not occur for any reachable filesystem/index state; hitting one is an
// UnknownStateError, never a guessed default.
//
// The multi-character "D ??" codes are intentional and preserved exactly:
// they describe a staged deletion whose file still exists on disk.
var statusCodes = map[StateTriple]string{
	{HeadAbsent, WorktreeAbsent, StageDiverged}:           "AD",
	{HeadAbsent, WorktreeAbsent, StageAbsent}:             "",
	{HeadAbsent, WorktreeModified, StageAbsent}:           "??",
	{HeadAbsent, WorktreeModified, StageMatchesWorktree}:  "A",
	{HeadAbsent, WorktreeModified, StageDiverged}:         "AM",
	{HeadPresent, WorktreeAbsent, StageAbsent}:            "D ",
	{HeadPresent, WorktreeAbsent, StageMatchesHead}:       " D",
	{HeadPresent, WorktreeAbsent, StageDiverged}:          "MD",
	{HeadPresent, WorktreeMatching, StageAbsent}:          "D ??",
	{HeadPresent, WorktreeMatching, StageMatchesHead}:     "",
	{HeadPresent, WorktreeModified, StageAbsent}:          "D ??",
	{HeadPresent, WorktreeModified, StageMatchesHead}:     " M",
	{HeadPresent, WorktreeModified, StageMatchesWorktree}: "M ",
	{HeadPresent, WorktreeModified, StageDiverged}:        "MM",
}

// PathEntry is the per-path input to classification: the path plus its
// content identity in the last commit, the working tree, and the staging
// index. An empty hash means the path does not exist on that axis.
type PathEntry struct {
	Path     string
	Head     object.Hash
	Worktree object.Hash
	Stage    object.Hash
}

// Triple derives the coarse three-axis state from the entry's identities.
func (e PathEntry) Triple() StateTriple {
	var t StateTriple

	if e.Head != "" {
		t.Head = HeadPresent
	}

	switch {
	case e.Worktree == "":
		t.Worktree = WorktreeAbsent
	case e.Head != "" && e.Worktree == e.Head:
		t.Worktree = WorktreeMatching
	default:
		t.Worktree = WorktreeModified
	}

	switch {
	case e.Stage == "":
		t.Stage = StageAbsent
	case e.Head != "" && e.Stage == e.Head:
		t.Stage = StageMatchesHead
	case e.Worktree != "" && e.Stage == e.Worktree:
		t.Stage = StageMatchesWorktree
	default:
		t.Stage = StageDiverged
	}

	return t
}

// Classify maps a path entry through the classification table. Unknown
// triples fail rather than guessing a code.
func Classify(e PathEntry) (string, error) {
	t := e.Triple()
	code, ok := statusCodes[t]
	if !ok {
		return "", &UnknownStateError{Path: e.Path, Triple: t}
	}
	return code, nil
}

// FileStatusResult pairs a status code with the path it describes. Paths
// are rendered with a leading separator.
type FileStatusResult struct {
	Code string
	Path string
}

// StatusReport is the output of ComputeStatus.
//
// Changed holds every path whose commit snapshot and current working
// content disagree (HEAD axis differs from worktree axis). Staged holds
// every path with a pending change ready to commit (stage axis is
// StageMatchesWorktree or StageDiverged). The two sets overlap but are not
// nested: an untracked file is changed yet not staged, and a staged entry
// whose file was deleted from disk unseen is staged yet not changed.
type StatusReport struct {
	Changed []FileStatusResult
	Staged  []string
}

// ComputeStatus classifies every path known to the last commit, the
// working tree, or the staging index.
func (r *Repo) ComputeStatus() (*StatusReport, error) {
	entries, err := r.statusEntries()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{}
	for _, e := range entries {
		t := e.Triple()
		code, ok := statusCodes[t]
		if !ok {
			return nil, &UnknownStateError{Path: e.Path, Triple: t}
		}

		if int(t.Head) != int(t.Worktree) {
			report.Changed = append(report.Changed, FileStatusResult{
				Code: code,
				Path: "/" + e.Path,
			})
		}
		if t.Stage == StageMatchesWorktree || t.Stage == StageDiverged {
			report.Staged = append(report.Staged, "/"+e.Path)
		}
	}
	return report, nil
}

// statusEntries collects one PathEntry per path touched by HEAD, the
// working tree, or the staging index, sorted by path for deterministic
// output.
func (r *Repo) statusEntries() ([]PathEntry, error) {
	headIDs, err := r.headTreeIdentities()
	if err != nil {
		return nil, err
	}

	stg, err := r.ReadStaging()
	if err != nil {
		return nil, &RepositoryError{Op: "read staging index", Err: err}
	}

	workIDs, err := r.worktreeIdentities(stg)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]struct{}, len(headIDs)+len(workIDs)+len(stg.Entries))
	for p := range headIDs {
		paths[p] = struct{}{}
	}
	for p := range workIDs {
		paths[p] = struct{}{}
	}
	for p := range stg.Entries {
		paths[p] = struct{}{}
	}

	entries := make([]PathEntry, 0, len(paths))
	for p := range paths {
		e := PathEntry{
			Path:     p,
			Head:     headIDs[p],
			Worktree: workIDs[p],
		}
		if se, ok := stg.Entries[p]; ok {
			e.Stage = se.BlobHash
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// headTreeIdentities flattens the HEAD commit's tree into path → blob hash.
// An empty repository (no commits yet) yields an empty map; a corrupted
// store yields a RepositoryError.
func (r *Repo) headTreeIdentities() (map[string]object.Hash, error) {
	result := make(map[string]object.Hash)

	_, commit, err := r.CurrentCommit()
	if errors.Is(err, ErrNoCommits) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return nil, &RepositoryError{Op: "flatten HEAD tree", Err: err}
	}
	for _, f := range files {
		result[f.Path] = f.BlobHash
	}
	return result, nil
}

// worktreeIdentities walks the working directory (skipping .sprout/ and
// ignored paths) and computes a blob hash per regular file. When a staging
// entry's recorded stat still matches the file on disk the staged hash is
// reused instead of re-hashing the content.
func (r *Repo) worktreeIdentities(stg *Staging) (map[string]object.Hash, error) {
	ic := NewIgnoreChecker(r.RootDir)
	result := make(map[string]object.Hash)

	err := filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip the root directory itself.
		if rel == "." {
			return nil
		}

		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		mode := modeFromFileInfo(info)

		if se, ok := stg.Entries[rel]; ok && stagingStatMatchesWorktree(se, info, mode) {
			result[rel] = se.BlobHash
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result[rel] = object.HashObject(object.TypeBlob, content)
		return nil
	})
	if err != nil {
		return nil, &RepositoryError{Op: "walk working tree", Err: err}
	}
	return result, nil
}

const statusRacyCleanWindow = 2 * time.Second

// stagingStatMatchesWorktree reports whether a staged entry's recorded stat
// data still describes the file on disk closely enough to trust the staged
// blob hash without re-reading the content.
func stagingStatMatchesWorktree(se *StagingEntry, info os.FileInfo, workMode string) bool {
	if se == nil {
		return false
	}
	if normalizeFileMode(se.Mode) != normalizeFileMode(workMode) {
		return false
	}
	if se.Size != info.Size() {
		return false
	}
	if isRacyCleanModTime(info.ModTime()) {
		return false
	}
	// Some filesystems expose coarse (second-level) mtimes. When nanoseconds
	// are zero, same-size edits inside a second can evade stat-only detection.
	if info.ModTime().Nanosecond() == 0 {
		return false
	}
	return se.ModTime == info.ModTime().UnixNano()
}

func isRacyCleanModTime(modTime time.Time) bool {
	now := time.Now()
	if modTime.After(now) {
		return true
	}
	return now.Sub(modTime) < statusRacyCleanWindow
}
