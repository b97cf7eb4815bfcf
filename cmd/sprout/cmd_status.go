package main

import (
	"fmt"

	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			report, err := r.ComputeStatus()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			branch, _ := r.CurrentBranch()
			if branch == "" {
				branch = "HEAD (detached)"
			}
			if _, resolveErr := r.ResolveRef("HEAD"); resolveErr != nil {
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			} else {
				fmt.Fprintf(out, "on %s\n", branch)
			}

			if len(report.Changed) == 0 && len(report.Staged) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}

			if len(report.Changed) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "changed:")
				for _, c := range report.Changed {
					fmt.Fprintf(out, "  %-2s %s\n", c.Code, c.Path)
				}
			}

			if len(report.Staged) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "staged:")
				for _, p := range report.Staged {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}

			return nil
		},
	}
}
