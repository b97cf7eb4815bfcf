package main

import (
	"fmt"

	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string
	var listRemote bool

	cmd := &cobra.Command{
		Use:   "branch [name]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if deleteBranch != "" {
				if err := r.DeleteBranch(deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			if listRemote {
				return listRemoteBranches(cmd, r)
			}

			// Create mode.
			if len(args) == 1 {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("cannot resolve HEAD: %w", err)
				}
				return r.CreateBranch(args[0], head)
			}

			branches, err := r.ListBranches()
			if err != nil {
				return err
			}

			current, _ := r.CurrentBranch()

			out := cmd.OutOrStdout()
			for _, b := range branches {
				if b == current {
					fmt.Fprintf(out, "* %s\n", b)
				} else {
					fmt.Fprintf(out, "  %s\n", b)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	cmd.Flags().BoolVarP(&listRemote, "remote", "r", false, "list branches on the origin remote")

	return cmd
}

func listRemoteBranches(cmd *cobra.Command, r *repo.Repo) error {
	remoteName, remoteURL, err := resolveRemoteNameAndURL(r, "")
	if err != nil {
		return err
	}
	client, err := newRemoteClient(remoteURL)
	if err != nil {
		return err
	}
	refs, err := client.ListRefs(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range remote.BranchNames(refs) {
		fmt.Fprintf(out, "  %s/%s\n", remoteName, name)
	}
	return nil
}
