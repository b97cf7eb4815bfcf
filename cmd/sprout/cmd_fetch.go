package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/sprout/pkg/object"
	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/odvcencio/sprout/pkg/repo"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [remote]",
		Short: "Download objects and update remote-tracking refs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			remoteArg := ""
			if len(args) == 1 {
				remoteArg = args[0]
			}
			remoteName, remoteURL, err := resolveRemoteNameAndURL(r, remoteArg)
			if err != nil {
				return err
			}

			client, err := newRemoteClient(remoteURL)
			if err != nil {
				return err
			}
			remoteRefs, err := client.ListRefs(cmd.Context())
			if err != nil {
				return err
			}

			wants := make([]object.Hash, 0, len(remoteRefs))
			for name, h := range remoteRefs {
				if !strings.HasPrefix(name, "heads/") {
					continue
				}
				if strings.TrimSpace(string(h)) == "" {
					continue
				}
				wants = append(wants, h)
			}
			if len(wants) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "remote %s has no branches\n", remoteName)
				return nil
			}

			haves, err := localRefTips(r)
			if err != nil {
				return err
			}
			fetched, err := remote.FetchIntoStore(cmd.Context(), client, r.Store, wants, haves)
			if err != nil {
				return err
			}

			updated := 0
			for name, h := range remoteRefs {
				if !strings.HasPrefix(name, "heads/") {
					continue
				}
				if strings.TrimSpace(string(h)) == "" {
					continue
				}
				if err := r.UpdateRef(remoteTrackingRefName(remoteName, name), h); err != nil {
					return err
				}
				updated++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d object(s), updated %d tracking ref(s) from %s\n", fetched, updated, remoteName)
			return nil
		},
	}
}
