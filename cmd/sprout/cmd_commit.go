package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var sign bool
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if author == "" {
				author = configuredAuthor(r)
			}
			if author == "" {
				author = os.Getenv("USER")
				if author == "" {
					author = "unknown"
				}
			}

			var signer repo.CommitSigner
			if sign || signKey != "" {
				s, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				signer = s
				fmt.Fprintf(cmd.OutOrStdout(), "signing with %s\n", keyPath)
			}

			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, _ := r.CurrentBranch()
			if branch == "" {
				branch = "HEAD"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, shortHash(h), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author (default: config user, then $USER)")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the commit with the default SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "sign the commit with the given SSH private key")

	return cmd
}

// configuredAuthor builds "Name <email>" from repository config, or "" when
// no user identity is configured.
func configuredAuthor(r *repo.Repo) string {
	cfg, err := r.ReadConfig()
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(cfg.User.Name)
	email := strings.TrimSpace(cfg.User.Email)
	if name == "" {
		return ""
	}
	if email == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
