// Package app は設定からストレージとユースケースを組み立てます。
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ogurasousui/staff-directory/internal/adapters/repository/memory"
	"github.com/ogurasousui/staff-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	pg "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
	"github.com/ogurasousui/staff-directory/internal/platform/metrics"
)

// App は起動済みのユースケースとその依存です。
type App struct {
	// Accounts は非掲載アカウントも含めて参照する管理操作用です。
	Accounts  directory.AccountCollection
	Directory *directory.Service
	Profiles  *profile.Service
	Settings  directory.Settings
	Instances directory.Instances

	pool *pgxpool.Pool
}

type backend struct {
	accounts   directory.AccountCollection
	visibility profile.AccountVisibility
	profiles   profile.Store
	tx         directory.TransactionManager
	pool       *pgxpool.Pool
}

// New は cfg.Storage.Driver に従ってストレージを開き、ユースケースを構築します。m は nil でも構いません。
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	dirOpts := []directory.Option{
		directory.WithTransactionManager(b.tx),
		directory.WithLogger(logger),
	}
	var observer directory.CacheObserver
	if m != nil {
		observer = m
		dirOpts = append(dirOpts, directory.WithListingObserver(m))
		if b.pool != nil {
			m.MustRegister(pg.NewPoolCollector(b.pool))
		}
	}
	departments := directory.NewDepartmentCache(b.profiles.DistinctDepartments, cfg.Directory.DepartmentCacheTTL, nil, observer)
	dirOpts = append(dirOpts, directory.WithDepartmentCache(departments))

	dirSvc := directory.NewService(b.accounts, b.profiles, dirOpts...)
	profileSvc := profile.NewService(b.profiles, b.visibility,
		profile.WithInvalidator(departments),
		profile.WithTransactionManager(b.tx),
		profile.WithLogger(logger),
	)

	return &App{
		Accounts:  b.accounts,
		Directory: dirSvc,
		Profiles:  profileSvc,
		Settings:  cfg.Directory.Settings(),
		Instances: cfg.DirectoryInstances(),
		pool:      b.pool,
	}, nil
}

// Close はストレージへの接続を閉じます。
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if cfg.Storage.SeedPath != "" {
			n, err := memory.LoadSeedFile(ctx, store, cfg.Storage.SeedPath)
			if err != nil {
				return nil, err
			}
			logger.Info("memory store seeded", slog.Int("accounts", n), slog.String("path", cfg.Storage.SeedPath))
		}
		return &backend{accounts: store, visibility: store, profiles: store}, nil

	case config.StorageDriverPostgres, "":
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		accounts := postgres.NewAccountRepository(pool)
		return &backend{
			accounts:   accounts,
			visibility: accounts,
			profiles:   postgres.NewProfileRepository(pool),
			tx:         pg.NewTransactionManager(pool),
			pool:       pool,
		}, nil

	default:
		return nil, fmt.Errorf("app: unsupported storage driver %q", cfg.Storage.Driver)
	}
}
