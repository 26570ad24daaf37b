package main

import (
	"fmt"

	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/spf13/cobra"
)

func newVisibilityCmd(opts *rootOptions, use, short string, hidden bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <slug>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := lookupAccount(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := a.Profiles.SetVisibility(ctx, profile.SetVisibilityInput{AccountID: account.ID, Hidden: hidden}); err != nil {
				return err
			}

			state := "visible"
			if hidden {
				state = "hidden"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", account.Slug, state)
			return nil
		},
	}
}
