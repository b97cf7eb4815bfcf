package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/sprout/pkg/object"
)

const zeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ReflogEntry is one recorded ref update. Records are stored one per line
// under .sprout/logs/<ref>, tab-separated:
//
//	<old-hash>\t<new-hash>\t<rfc3339-utc>\t<reason>
type ReflogEntry struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Time    time.Time
	Reason  string
}

func (r *Repo) reflogPath(ref string) string {
	return filepath.Join(r.SproutDir, "logs", filepath.FromSlash(ref))
}

func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}

	logPath := r.reflogPath(ref)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	record := formatReflogRecord(oldHash, newHash, time.Now().UTC(), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

func formatReflogRecord(oldHash, newHash object.Hash, at time.Time, reason string) string {
	old := string(oldHash)
	if strings.TrimSpace(old) == "" {
		old = zeroHash
	}
	newVal := string(newHash)
	if strings.TrimSpace(newVal) == "" {
		newVal = zeroHash
	}
	// Reasons are free text but must stay on one line.
	reason = strings.ReplaceAll(reason, "\n", " ")
	return fmt.Sprintf("%s\t%s\t%s\t%s\n", old, newVal, at.Format(time.RFC3339), reason)
}

// parseReflogRecord parses one stored line. Malformed lines are dropped by
// the caller rather than failing the whole read.
func parseReflogRecord(refName, line string) (ReflogEntry, bool) {
	parts := strings.SplitN(line, "\t", 4)
	if len(parts) < 4 {
		return ReflogEntry{}, false
	}
	at, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return ReflogEntry{}, false
	}
	return ReflogEntry{
		Ref:     refName,
		OldHash: object.Hash(parts[0]),
		NewHash: object.Hash(parts[1]),
		Time:    at,
		Reason:  parts[3],
	}, true
}

// ReadReflog returns the update history for a ref, newest first. A missing
// reflog yields an empty result, not an error.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName, err := r.resolveReflogRefName(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(r.reflogPath(refName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if entry, ok := parseReflogRecord(refName, line); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	// Newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *Repo) resolveReflogRefName(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		head, err := r.Head()
		if err == nil && strings.HasPrefix(head, "refs/") {
			return head, nil
		}
		return "HEAD", nil
	}
	if strings.HasPrefix(ref, "refs/") {
		return ref, nil
	}
	return "refs/heads/" + ref, nil
}
