package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/xihi/internal/analysis"
	"github.com/mattjoyce/xihi/internal/config"
	"github.com/mattjoyce/xihi/internal/events"
	"github.com/mattjoyce/xihi/internal/ghapp"
	"github.com/mattjoyce/xihi/internal/log"
	"github.com/mattjoyce/xihi/internal/metrics"
	"github.com/mattjoyce/xihi/internal/webhook"
)

var _ analysis.RepoClient = (*ghapp.Client)(nil)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook listener",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag(cmd))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					log.WithComponent("main").Info("received shutdown signal", "signal", sig)
					cancel()
				case <-ctx.Done():
				}
			}()

			return serve(ctx, cfg)
		},
	}
}

// newConnector authenticates as the installation once per event so tokens
// never outlive their hour.
func newConnector(cfg config.GitHubConfig) analysis.Connector {
	auth := ghapp.NewAppAuth(ghapp.Config{
		APIURL:         cfg.APIURL,
		AppID:          cfg.AppID,
		InstallationID: cfg.InstallationID,
		KeyFile:        cfg.KeyFile,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
	})
	return analysis.ConnectorFunc(func(ctx context.Context) (analysis.RepoClient, error) {
		client, err := auth.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

// serve runs the listeners until ctx is cancelled or one of them fails,
// then drains in-flight subscribers.
func serve(ctx context.Context, cfg *config.Config) error {
	logger := log.WithComponent("main")
	logger.Info("xihi starting", "version", version, "config", cfg.SourceFile)

	webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhook)
	if err != nil {
		return fmt.Errorf("failed to configure webhook: %w", err)
	}

	analysisLogger := log.WithComponent("analysis")
	handlers := analysis.NewHandlers(
		newConnector(cfg.GitHub),
		analysis.NewAnalyzer(cfg.Analysis.Dir, cfg.Analysis.ContextLines, analysisLogger),
		analysisLogger,
	)
	registry := handlers.Register(events.NewBuilder()).Build()
	logger.Info("subscribers registered", "events", registry.Events())

	dispatcher := events.NewDispatcher(registry, log.WithComponent("dispatch"))
	webhookServer := webhook.New(webhookConfig, dispatcher, log.WithComponent("webhook"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := webhookServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, log.WithComponent("metrics"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	logger.Info("xihi running (press Ctrl+C to stop)")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("component failed", "error", runErr)
	}
	cancel()
	wg.Wait()

	drainTimeout := cfg.Webhook.ShutdownTimeout
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Warn("subscribers still running at shutdown", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("xihi stopped")
	return nil
}
