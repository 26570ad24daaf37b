package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	"github.com/ogurasousui/staff-directory/internal/platform/logging"
)

// シードはスキーマとは別の管理テーブルでバージョンを持ちます。
const seedsTable = "schema_seeds"

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
		seedsDir      = flag.String("seeds", "", "directory containing seed files; applied with a separate version table")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfgPath := effectiveConfigPath(*configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", cfgPath), slog.Any("err", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		logger.Error("migrations require the postgres storage driver", slog.String("driver", cfg.Storage.Driver))
		os.Exit(1)
	}

	dir, dsn := *migrationsDir, cfg.Database.DSN()
	if *seedsDir != "" {
		dir, dsn = *seedsDir, withMigrationsTable(dsn, seedsTable)
	}

	if err := runMigration(logger, action, dir, dsn); err != nil {
		logger.Error("migration failed", slog.String("action", action), slog.String("dir", dir), slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("migration completed", slog.String("action", action), slog.String("dir", dir))
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func withMigrationsTable(dsn, table string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "x-migrations-table=" + table
}

func runMigration(logger *slog.Logger, action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("current version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
