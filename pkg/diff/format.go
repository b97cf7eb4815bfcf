package diff

import (
	"fmt"
	"strings"
)

// Format produces a compact per-path summary of a walk result.
//
// Output format:
//
//	+ /notes/b.md
//	~ /notes/a.md
//	- /old/gone.txt
//
// Equal entries are skipped unless includeEqual is set, in which case they
// are rendered with a "=" marker.
func Format(entries []Entry, includeEqual bool) string {
	var b strings.Builder
	for _, e := range entries {
		var marker string
		switch e.Kind {
		case Add:
			marker = "+"
		case Remove:
			marker = "-"
		case Modify:
			marker = "~"
		case Equal:
			if !includeEqual {
				continue
			}
			marker = "="
		}
		fmt.Fprintf(&b, "%s %s\n", marker, e.Path)
	}
	return b.String()
}
