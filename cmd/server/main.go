package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	grpchandler "github.com/ogurasousui/staff-directory/internal/adapters/grpc/handler"
	httphandler "github.com/ogurasousui/staff-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/staff-directory/internal/app"
	"github.com/ogurasousui/staff-directory/internal/platform/auth"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	"github.com/ogurasousui/staff-directory/internal/platform/logging"
	"github.com/ogurasousui/staff-directory/internal/platform/metrics"
	"github.com/ogurasousui/staff-directory/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", cfgPath), slog.Any("err", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	m := metrics.New()
	a, err := app.New(ctx, cfg, m, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("driver", cfg.Storage.Driver), slog.Any("err", err))
		os.Exit(1)
	}
	defer a.Close()

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	if verifier == nil {
		logger.Warn("auth.jwt_secret is empty; all requests are anonymous and HR operations are rejected")
	}

	grpcSvc := grpchandler.NewDirectoryGrpcHandler(a.Directory, a.Profiles, a.Settings, a.Instances, cfg.Auth.HRRole)
	httpSvc := httphandler.NewDirectoryHTTPHandler(a.Directory, a.Settings, a.Instances, logger)

	srv := server.New(server.Options{
		ListenAddr:  cfg.Server.ListenAddr,
		HTTPAddr:    cfg.Server.HTTPAddr,
		MetricsAddr: cfg.Server.MetricsAddr,
		Verifier:    verifier,
		Metrics:     m,
		Logger:      logger,
	}, grpcSvc, httpSvc)

	logger.Info("staff directory starting",
		slog.String("storage", cfg.Storage.Driver),
		slog.Any("instances", cfg.InstanceNames()),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}
