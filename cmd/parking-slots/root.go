package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-slots/internal/config"
)

type options struct {
	configPath string
	port       string
	layout     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "parking-slots",
		Short:        "Parking slot registry service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.port, "port", "", "HTTP port (overrides config)")
	root.PersistentFlags().StringVar(&opts.layout, "layout", "", "slot layout, e.g. small=1-50,medium=51-80")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the slot registry over HTTP",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, runServer)
			},
		},
		&cobra.Command{
			Use:   "shell",
			Short: "Run the interactive slot shell on stdin",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, runShell)
			},
		},
		&cobra.Command{
			Use:   "both",
			Short: "Serve HTTP and run the shell against the same registry",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, runBoth)
			},
		},
	)

	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.port != "" {
		cfg.Port = opts.port
	}
	if opts.layout != "" {
		cfg.Layout = opts.layout
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func run(parent context.Context, opts *options, mode func(context.Context, *app) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return mode(ctx, a)
}

func runServer(ctx context.Context, a *app) error {
	srv := a.server()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	a.logger.Info("listening", slog.String("address", srv.GetAddress()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runShell(ctx context.Context, a *app) error {
	a.shell(os.Stdin, os.Stdout).WithRegistry(a.registry).Run(ctx)
	return nil
}

func runBoth(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := a.server()
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		a.shell(os.Stdin, os.Stdout).WithRegistry(a.registry).Run(ctx)
		close(cliDone)
	}()

	var runErr error
	select {
	case err := <-serverDone:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-cliDone:
		a.logger.Info("shell exited")
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *app) shutdownTimeout() time.Duration {
	return time.Duration(a.cfg.ShutdownSeconds) * time.Second
}
