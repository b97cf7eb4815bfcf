package main

import (
	"fmt"

	"github.com/odvcencio/sprout/pkg/diff"
	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var includeEqual bool
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff <rev> [rev]",
		Short: "Show file-level changes between two commits",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			revA := args[0]
			revB := "HEAD"
			if len(args) == 2 {
				revB = args[1]
			}

			if stat {
				n, err := r.CountChangedFiles(cmd.Context(), revA, revB)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) changed\n", n)
				return nil
			}

			entries, err := r.DiffCommits(cmd.Context(), revA, revB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, diff.Format(entries, includeEqual))

			changed := 0
			for _, e := range entries {
				if e.Kind != diff.Equal {
					changed++
				}
			}
			fmt.Fprintf(out, "%d file(s) changed\n", changed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeEqual, "all", false, "also list unchanged files")
	cmd.Flags().BoolVar(&stat, "stat", false, "print only the changed-file count")

	return cmd
}
