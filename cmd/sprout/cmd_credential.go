package main

import (
	"fmt"

	"github.com/odvcencio/sprout/pkg/remote"
	"github.com/spf13/cobra"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage stored remote credentials",
	}

	var token, username, password string
	store := &cobra.Command{
		Use:   "store <host>",
		Short: "Store credentials for a remote host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cred := remote.Credential{Token: token, Username: username, Password: password}
			if cred.IsZero() {
				return fmt.Errorf("nothing to store; pass --token or --username/--password")
			}
			path, err := remote.DefaultCredentialsPath()
			if err != nil {
				return err
			}
			f := remote.FileCredentials{Path: path}
			if err := f.Store(args[0], cred); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored credentials for %s in %s\n", args[0], path)
			return nil
		},
	}
	store.Flags().StringVar(&token, "token", "", "bearer token")
	store.Flags().StringVar(&username, "username", "", "basic auth username")
	store.Flags().StringVar(&password, "password", "", "basic auth password")
	cmd.AddCommand(store)

	cmd.AddCommand(&cobra.Command{
		Use:   "erase <host>",
		Short: "Remove stored credentials for a remote host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := remote.DefaultCredentialsPath()
			if err != nil {
				return err
			}
			f := remote.FileCredentials{Path: path}
			if err := f.Erase(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "erased credentials for %s\n", args[0])
			return nil
		},
	})

	return cmd
}
