// Command waterfall-agent runs a single remote execution worker: it
// advertises a fixed resource budget and runs tasks the daemon's Agent
// executor backend submits to it over HTTP. Grounded on the teacher's
// cmd/server main, stripped down to the one façade an agent worker needs
// (no Runner, no Storage backend — it is stateless).
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
	"github.com/spf13/cobra"

	"github.com/kinesin-ca/waterfall-go/config"
	"github.com/kinesin-ca/waterfall-go/internal/executor"
	ctxlog "github.com/kinesin-ca/waterfall-go/internal/log"
	"github.com/kinesin-ca/waterfall-go/internal/metrics"
	"github.com/kinesin-ca/waterfall-go/internal/transport/agenthttp"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:   "waterfall-agent",
		Short: "Run a waterfall-go remote execution worker",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "agent.json", "path to the agent config document")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	envCfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(envCfg.Env, envCfg.SlogLevel())

	var agentCfg config.AgentConfig
	if err := config.LoadJSON(configPath, &agentCfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	metrics.ProcessStartTime.SetToCurrentTime()

	localClient, localBackend := executor.NewLocal(agentCfg.MaxParallel, logger)
	go localBackend.Run(ctx)

	srv := &http.Server{
		Addr:    agentCfg.Server.IP + ":" + strconv.Itoa(int(agentCfg.Server.Port)),
		Handler: agenthttp.NewRouter(localClient, agentCfg.Resources, logger),
	}
	metricsSrv := metrics.NewServer(":9090")

	go func() {
		logger.Info("agent worker started", "addr", srv.Addr, "resources", agentCfg.Resources)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("agent worker", "error", err)
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
		logger.Error("agent worker shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	localClient.Stop()
	return nil
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
