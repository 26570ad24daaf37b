package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ogurasousui/staff-directory/internal/app"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	"github.com/ogurasousui/staff-directory/internal/platform/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "staffctl",
		Short:         "Administer and browse the staff directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")

	cmd.AddCommand(
		newProfileCmd(opts),
		newVisibilityCmd(opts, "hide", "Remove an account from the directory", true),
		newVisibilityCmd(opts, "restore", "Show a hidden account in the directory again", false),
		newDepartmentsCmd(opts),
		newBrowseCmd(),
	)
	return cmd
}

func (o *rootOptions) effectiveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

// open は設定を読み込んでストレージに接続します。呼び出し側で Close してください。
func (o *rootOptions) open(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(o.effectiveConfigPath())
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), logCfg)

	return app.New(ctx, cfg, nil, logger)
}

// lookupAccount は非掲載を含めてスラッグからアカウントを引きます。
func lookupAccount(ctx context.Context, a *app.App, slug string) (*directory.Account, error) {
	account, err := a.Accounts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", slug, err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %q: %w", slug, directory.ErrEmployeeNotFound)
	}
	return account, nil
}
