package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/echod/pkg/cli/internal/output"
	"github.com/getmockd/echod/pkg/config"
	"github.com/getmockd/echod/pkg/logging"
	"github.com/getmockd/echod/pkg/metrics"
	"github.com/getmockd/echod/pkg/server"
)

const metricsShutdownTimeout = 5 * time.Second

// serveFlags holds the flag values of the serve command.
type serveFlags struct {
	configFile     string
	address        string
	readTimeout    time.Duration
	maxConnections int
	metricsAddress string
	logLevel       string
	logFormat      string
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the echo server",
	Long: `Start the echo server and block until SIGINT or SIGTERM.

On a signal the server stops accepting new connections. Connections that were
already accepted keep being served until their clients disconnect or go idle
past the read timeout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cmd, cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveOpts.configFile, "config", "c", "", "Path to a YAML configuration file")
	f.StringVarP(&serveOpts.address, "addr", "a", config.DefaultAddress, "Address to listen on (host:port)")
	f.DurationVar(&serveOpts.readTimeout, "read-timeout", config.DefaultReadTimeout, "Close connections idle for longer than this")
	f.IntVar(&serveOpts.maxConnections, "max-conns", 0, "Maximum concurrently served connections (0 = unlimited)")
	f.StringVar(&serveOpts.metricsAddress, "metrics-addr", "", "Serve Prometheus metrics on this address")
	f.StringVar(&serveOpts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&serveOpts.logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.AddCommand(serveCmd)
}

// loadServeConfig layers defaults, the config file, the environment and any
// explicitly set flags, then validates the result.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(serveOpts.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Address = serveOpts.address
		cfg.MarkFlag("address")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = serveOpts.readTimeout
		cfg.MarkFlag("read_timeout")
	}
	if flags.Changed("max-conns") {
		cfg.MaxConnections = serveOpts.maxConnections
		cfg.MarkFlag("max_connections")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddress = serveOpts.metricsAddress
		cfg.MarkFlag("metrics_address")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = serveOpts.logLevel
		cfg.MarkFlag("log.level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = serveOpts.logFormat
		cfg.MarkFlag("log.format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	log := logging.New(logCfg)

	reg := metrics.NewRegistry()
	metrics.RegisterRuntime(reg)

	srv, err := server.New(cfg.Address,
		server.WithLogger(log),
		server.WithReadTimeout(cfg.ReadTimeout),
		server.WithPollInterval(cfg.PollInterval),
		server.WithBufferSize(cfg.BufferSize),
		server.WithMaxConnections(cfg.MaxConnections),
		server.WithMetrics(reg),
	)
	if err != nil {
		return err
	}
	defer srv.Close()

	if cfg.MetricsAddress != "" {
		_, stopMetrics, err := startMetricsServer(cfg.MetricsAddress, reg, log)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			if !srv.Stop() {
				// Run has not entered its loop yet. Closing the listener
				// makes it return as soon as it does.
				_ = srv.Close()
			}
		case <-runDone:
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "echod listening on %s\n", srv.Addr())
	if err := srv.Run(); err != nil {
		if !errors.Is(err, server.ErrServerClosed) || ctx.Err() == nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
	return nil
}

// startMetricsServer serves reg at /metrics on addr. It returns the bound
// address and a function that shuts the HTTP server down.
func startMetricsServer(addr string, reg *metrics.Registry, log *slog.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", reg.Handler())
	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("metrics available", "url", "http://"+ln.Addr().String()+"/metrics")

	return ln.Addr(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			output.Warn(os.Stderr, "metrics server shutdown error: %v", err)
		}
	}, nil
}
