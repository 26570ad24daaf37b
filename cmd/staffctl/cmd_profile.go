package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/spf13/cobra"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Read or edit an employee profile",
	}
	cmd.AddCommand(newProfileGetCmd(opts), newProfileSetCmd(opts))
	return cmd
}

func newProfileGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Print every profile attribute of an account",
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
			p, err := a.Profiles.GetProfile(ctx, profile.GetProfileInput{AccountID: account.ID})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", account.DisplayName, account.Login)
			if account.Hidden {
				fmt.Fprintln(out, "hidden: true")
			}
			printAttributes(cmd, p.Attributes())
			return nil
		},
	}
}

func newProfileSetCmd(opts *rootOptions) *cobra.Command {
	var hiddenSocial []string
	cmd := &cobra.Command{
		Use:   "set <slug> key=value...",
		Short: "Update profile attributes; keys not given are left unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			hiddenSet := cmd.Flags().Changed("hide-social")
			if len(fields) == 0 && !hiddenSet {
				return fmt.Errorf("nothing to update")
			}

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

			in := profile.UpdateProfileInput{AccountID: account.ID, Fields: fields, HiddenSocialSet: hiddenSet}
			for _, raw := range hiddenSocial {
				in.HiddenSocial = append(in.HiddenSocial, profile.Platform(strings.TrimSpace(raw)))
			}
			p, err := a.Profiles.UpdateProfile(ctx, in)
			if err != nil {
				return err
			}
			printAttributes(cmd, p.Attributes())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&hiddenSocial, "hide-social", nil, "social platforms to hide (replaces the current list)")
	return cmd
}

func parseAssignments(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: want key=value", arg)
		}
		fields[key] = value
	}
	return fields, nil
}

func printAttributes(cmd *cobra.Command, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, attrs[k])
	}
}
