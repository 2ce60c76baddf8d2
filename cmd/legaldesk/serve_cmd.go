package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/legaldesk/internal/server"
	"github.com/iota-uz/legaldesk/modules"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
	"github.com/iota-uz/legaldesk/pkg/logging"
	"github.com/iota-uz/legaldesk/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	collectors := metrics.NewCollectors(prometheus.DefaultRegisterer)
	client := backend.NewClient(backend.Options{
		BaseURL: conf.Backend.URL,
		Token:   conf.Backend.Token,
		Timeout: conf.Backend.Timeout,
		OnError: func(endpoint string) {
			collectors.BackendErrors.WithLabelValues(endpoint).Inc()
		},
	})

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterServices(client, collectors)
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		return errors.Wrap(err, "failed to load modules")
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, prometheus.DefaultGatherer))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	logger.Infof("Listening on: %s", conf.Origin)
	return serverInstance.Start(ctx, conf.SocketAddress)
}
