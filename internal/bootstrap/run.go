package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/repairhq/fieldservice/config"
)

// ServiceOrchestrationConfig groups dependencies for RunServicesWithShutdown.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the enabled services and blocks until a
// termination signal arrives, then shuts them down gracefully. The delivery
// runner drains through context cancellation; the HTTP server through
// Shutdown.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("orchestration config is incomplete")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Config.IsNotifyRunnerEnabled() {
		runner := cfg.Services.Runner
		dispatcher := cfg.Services.Dispatcher
		group.Go(func() error {
			logger.Info("starting notification runner")
			if err := runner.Run(groupCtx, dispatcher.Deliver); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.Config.IsHTTPServerEnabled() {
		server := StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		group.Go(func() error {
			<-groupCtx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Context: context.Background(),
				Server:  server,
				Logger:  logger,
			})
		})
	}

	logger.Info("services running", "enabled", GetEnabledServices(cfg.Config))
	return group.Wait()
}
