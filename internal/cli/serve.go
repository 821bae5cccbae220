package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/internal/api"
	"github.com/matzehuels/supermro/pkg/observability"
	promobs "github.com/matzehuels/supermro/pkg/observability/prometheus"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags     analysisFlags
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses over HTTP",
		Long: `Serve chains, traces, layout plans and rendered graphs over HTTP.

Packages are loaded from --project-path only; requests choose one with the
"package" query parameter, falling back to --package. Manifests can be
analyzed by POSTing them to /api/v1/analyze.

Prometheus metrics are served at /metrics unless --no-metrics is set.`,
		Example: `  supermro serve -p ./src --package shop
  curl localhost:8080/api/v1/chains/Book
  curl 'localhost:8080/api/v1/trace?class=Book&method=save'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			opts := flags.options(cmd, cfg)
			if opts.Manifest != "" {
				return fmt.Errorf("serve does not take --manifest; POST manifests to /api/v1/analyze")
			}
			return c.runServe(cmd.Context(), opts, addr, !noMetrics, flags.noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string, metrics, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := c.config()
	apiCfg := api.Config{
		Defaults: opts,
		Render: pipeline.RenderOptions{
			FontName: cfg.Render.FontName,
			Detailed: cfg.Render.Detailed,
		},
		Logger: c.Logger,
	}
	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := promobs.New(reg)
		m.Register()
		defer observability.Reset()
		apiCfg.Metrics = m.Handler()
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(runner, apiCfg).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printSuccess("Listening on %s", addr)
	if opts.Package != "" {
		printDetail("Default package: %s", opts.Package)
	}
	c.Logger.Debug("server started", "addr", addr, "project", opts.ProjectPath, "metrics", metrics)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
