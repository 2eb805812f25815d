package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/openops/cost-optimization-server/internal/config"
	"github.com/openops/cost-optimization-server/internal/costopt"
	"github.com/openops/cost-optimization-server/internal/health"
	"github.com/openops/cost-optimization-server/internal/observe"
	"github.com/openops/cost-optimization-server/internal/router"
	"github.com/openops/cost-optimization-server/internal/session"
	"github.com/openops/cost-optimization-server/internal/tools"
)

const instructions = "Cost analysis tools for AWS workloads. Each tool returns a titled JSON " +
	"document; generate_optimization_workflow emits OpenOps workflow steps."

const telemetryShutdownTimeout = 5 * time.Second

func newServeCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve one MCP session over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.serve(cmd.Context())
		},
	}
}

// serve runs one stdio session until the client disconnects or the process
// is interrupted.
func (o *options) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    o.cfg.ServerName,
		ServiceVersion: o.cfg.ServerVersion,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			o.log.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	o.log.Info("starting server",
		"name", o.cfg.ServerName,
		"version", o.cfg.ServerVersion,
		"strict_validation", o.cfg.StrictValidation,
		"metrics_addr", o.cfg.MetricsAddr,
	)
	return runSession(ctx, o.cfg, o.transport, o.log, metrics)
}

// settings maps the configuration onto the cost tool inputs.
func settings(cfg *config.Config) costopt.Settings {
	return costopt.Settings{
		ProjectID:        cfg.ProjectID,
		CostExplorerData: cfg.CostExplorerData,
		CostAnalysisData: cfg.CostAnalysisData,
	}
}

// buildRouter registers the cost tools and wraps them in a router. A nil
// metrics records nothing.
func buildRouter(cfg *config.Config, log *slog.Logger, metrics *observe.Metrics) (*router.Router, error) {
	list, err := costopt.Tools(settings(cfg))
	if err != nil {
		return nil, err
	}
	reg, table, err := tools.Build(list...)
	if err != nil {
		return nil, err
	}

	opts := []router.Option{
		router.WithStrictValidation(cfg.StrictValidation),
		router.WithCallTimeout(cfg.CallTimeout),
		router.WithLogger(log),
	}
	if metrics != nil {
		opts = append(opts, router.WithMetrics(metrics))
	}
	return router.New(reg, table, opts...)
}

// runSession serves one session on t. When cfg.MetricsAddr is set the ops
// listener runs beside it and stops when the session ends.
func runSession(ctx context.Context, cfg *config.Config, t mcp.Transport, log *slog.Logger, metrics *observe.Metrics) error {
	r, err := buildRouter(cfg, log, metrics)
	if err != nil {
		return err
	}

	sopts := []session.Option{
		session.WithImplementation(cfg.ServerName, cfg.ServerVersion),
		session.WithInstructions(instructions),
		session.WithLogger(log),
	}
	if metrics != nil {
		sopts = append(sopts, session.WithMetrics(metrics))
	}
	sess, err := session.NewServer(r, sopts...).Connect(ctx, t)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	opsCtx, stopOps := context.WithCancel(gctx)
	defer stopOps()

	g.Go(func() error {
		defer stopOps()
		return sess.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		checks := health.New(
			health.Checker{Name: "tools", Check: func(context.Context) error {
				if r.Registry().Len() == 0 {
					return errors.New("no tools registered")
				}
				return nil
			}},
			health.Checker{Name: "session", Check: func(context.Context) error {
				if st := sess.State(); st != session.Ready {
					return fmt.Errorf("session is %s", st)
				}
				return nil
			}},
		)
		g.Go(func() error {
			return health.Serve(opsCtx, cfg.MetricsAddr, health.NewRouter(checks, nil, log), log)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("session ended", "session", sess.ID())
	return nil
}
