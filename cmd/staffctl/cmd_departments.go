package main

import (
	"fmt"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/spf13/cobra"
)

func newDepartmentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "List the departments in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			departments, err := a.Directory.GetDepartments(ctx, directory.GetDepartmentsInput{
				Settings:      a.Settings,
				Authenticated: true,
			})
			if err != nil {
				return err
			}
			for _, d := range departments {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}
