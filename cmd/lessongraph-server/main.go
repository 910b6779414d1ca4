package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/api"
	"github.com/dd0wney/cluso-lessongraph/pkg/config"
	"github.com/dd0wney/cluso-lessongraph/pkg/editor"
	"github.com/dd0wney/cluso-lessongraph/pkg/health"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/dd0wney/cluso-lessongraph/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "Listen address (default from config, or LESSONGRAPH_ADDR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error("invalid configuration", logging.Error(err))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.Level())
	logger.Info("lessongraph server starting",
		logging.String("version", api.Version),
		logging.Backend(cfg.Storage.Backend))

	reg := metrics.NewRegistry()
	ctx := context.Background()

	rt, err := editor.Build(ctx, cfg, logger, reg)
	if err != nil {
		logger.Error("failed to open storage", logging.Error(err))
		os.Exit(1)
	}
	n := rt.Workspace.Hydrate(ctx)
	logger.Info("paths loaded", logging.Count(n))

	hc := health.NewChecker()
	hc.RegisterLivenessCheck("memory", health.MemoryCheck(health.RuntimeMemory))
	hc.RegisterReadinessCheck("storage", health.StorageCheck(rt.Store, cfg.Storage.Backend, 2*time.Second))

	srv := api.NewServer(rt.Workspace,
		api.WithLogger(logger),
		api.WithMetrics(reg),
		api.WithHealth(hc))

	gs := server.NewGracefulServer(cfg.Server.Addr, srv.App(),
		server.WithLogger(logger),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.OnShutdown(func(ctx context.Context) error {
			return rt.Close(ctx)
		}))

	// SIGHUP re-reads the config file; only the log level applies live
	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(next.Level())
		return nil
	})

	if err := gs.Start(); err != nil {
		logger.Error("server error", logging.Error(err))
		_ = rt.Close(ctx)
		os.Exit(1)
	}
	logger.Info("server exited")
}
