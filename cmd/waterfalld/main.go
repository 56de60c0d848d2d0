// Command waterfalld runs the waterfall orchestrator daemon: it loads a
// World definition and a System config, starts a Runner convergence loop
// against the configured Storage and Executor backends, and serves the
// management HTTP API until terminated. Grounded on the teacher's
// cmd/server and cmd/scheduler mains, generalized from "HTTP server +
// background scheduler" into "HTTP server + Runner loop" since this
// domain's Runner already owns its own tick/dispatch cadence.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kinesin-ca/waterfall-go/config"
	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/kinesin-ca/waterfall-go/internal/executor"
	"github.com/kinesin-ca/waterfall-go/internal/health"
	ctxlog "github.com/kinesin-ca/waterfall-go/internal/log"
	"github.com/kinesin-ca/waterfall-go/internal/metrics"
	"github.com/kinesin-ca/waterfall-go/internal/runner"
	"github.com/kinesin-ca/waterfall-go/internal/storage"
	httptransport "github.com/kinesin-ca/waterfall-go/internal/transport/http"
)

func main() {
	var (
		systemPath   string
		worldPath    string
		forceRecheck bool
		stayUp       bool
	)

	cmd := &cobra.Command{
		Use:   "waterfalld",
		Short: "Run the waterfall-go orchestrator daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(systemPath, worldPath, forceRecheck, stayUp)
		},
	}
	cmd.Flags().StringVar(&systemPath, "config", "system.json", "path to the system config document")
	cmd.Flags().StringVar(&worldPath, "world", "world.json", "path to the world definition document")
	cmd.Flags().BoolVar(&forceRecheck, "force-recheck", false, "discard persisted state and recompute from scratch")
	cmd.Flags().BoolVar(&stayUp, "stay-up", true, "keep running once the world's target state converges")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(systemPath, worldPath string, forceRecheck, stayUp bool) error {
	envCfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(envCfg.Env, envCfg.SlogLevel())

	var sysCfg config.SystemConfig
	if err := config.LoadJSON(systemPath, &sysCfg); err != nil {
		return err
	}

	var world domain.WorldDefinition
	if err := config.LoadJSON(worldPath, &world); err != nil {
		return err
	}
	tasks, err := world.TaskSet()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	metrics.ProcessStartTime.SetToCurrentTime()

	storeClient, storeBackend, err := newStorage(sysCfg.Storage, logger)
	if err != nil {
		return err
	}
	go storeBackend.Run(ctx)

	execClient, execBackend, err := newExecutor(ctx, sysCfg.Executor, logger)
	if err != nil {
		return err
	}
	go execBackend.Run(ctx)

	r, err := runner.NewRunner(tasks, world.Variables, world.OutputOptions, stayUp, forceRecheck, execClient, storeClient, logger)
	if err != nil {
		return err
	}
	runnerClient := r.Client()
	go r.Run(ctx)

	checker := health.NewChecker(storeClient, logger, prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr:    sysCfg.Server.IP + ":" + strconv.Itoa(int(sysCfg.Server.Port)),
		Handler: httptransport.NewRouter(runnerClient, checker, logger),
	}
	metricsSrv := metrics.NewServer(":9090")

	go func() {
		logger.Info("management api started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("management api", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics server started", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("management api shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	runnerClient.Stop()
	execClient.Stop()
	storeClient.Stop()

	return nil
}

func newStorage(cfg config.StorageConfig, logger *slog.Logger) (*storage.Client, interface{ Run(context.Context) }, error) {
	switch cfg.Type {
	case "redis":
		client, backend, err := storage.NewRedis(cfg.URL, cfg.Prefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, backend, nil
	default:
		client, backend := storage.NewMemory(logger)
		return client, backend, nil
	}
}

func newExecutor(ctx context.Context, cfg config.ExecutorConfig, logger *slog.Logger) (*executor.Client, interface{ Run(context.Context) }, error) {
	switch cfg.Type {
	case "agent":
		targets := make([]*executor.AgentTarget, 0, len(cfg.Targets))
		for _, t := range cfg.Targets {
			targets = append(targets, executor.NewAgentTarget(t.BaseURL))
		}
		localClient, localBackend := executor.NewLocal(1, logger)
		go localBackend.Run(ctx)
		client, backend := executor.NewAgent(targets, localClient, logger)
		return client, backend, nil
	default:
		workers := cfg.Workers
		if workers <= 0 {
			workers = 4
		}
		client, backend := executor.NewLocal(workers, logger)
		return client, backend, nil
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
