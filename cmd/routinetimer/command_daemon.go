package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"routinetimer/internal/client"
	"routinetimer/internal/config"
	"routinetimer/internal/daemon"
	"routinetimer/internal/logging"

	"github.com/spf13/cobra"
)

func newDaemonCommand(wiring commandWiring) *cobra.Command {
	var background, force, kill bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the routine timer daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kill {
				return wiring.killDaemon()
			}
			if force {
				if err := wiring.killDaemon(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return wiring.runDaemon(ctx, background)
		},
	}
	cmd.Flags().BoolVar(&background, "background", false, "run in background (logs to file)")
	cmd.Flags().BoolVar(&force, "force", false, "stop any running daemon before starting")
	cmd.Flags().BoolVar(&kill, "kill", false, "stop any running daemon and exit")
	return cmd
}

func runDaemonProcess(ctx context.Context, background bool) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}

	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return err
	}
	logger, closer, err := daemonLogger(cfg, background)
	if err != nil {
		return err
	}
	defer closer.Close()

	tokenPath, err := config.TokenPath()
	if err != nil {
		return err
	}
	token, err := daemon.LoadOrCreateToken(tokenPath)
	if err != nil {
		return err
	}

	opts, err := daemon.ServiceOptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	services, err := daemon.NewServices(ctx, opts)
	if err != nil {
		return err
	}

	d := daemon.New(cfg.DaemonAddress(), token, buildVersion(), services, logger)
	return d.Run(ctx)
}

func daemonLogger(cfg config.CoreConfig, background bool) (logging.Logger, io.Closer, error) {
	level := logging.ParseLevel(cfg.LogLevel())
	if !background {
		return logging.New(os.Stderr, level), io.NopCloser(nil), nil
	}
	path, err := config.DaemonLogPath()
	if err != nil {
		return nil, nil, err
	}
	return logging.NewFile(path, level)
}

func killDaemonWithFactory(newClient clientFactory) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.ShutdownDaemon(ctx); err == nil {
		return nil
	} else {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		if isDaemonUnavailable(err) {
			return nil
		}
	}
	resp, err := c.Health(ctx)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil
		}
		return err
	}
	if resp == nil || resp.PID <= 0 {
		return nil
	}
	return terminatePID(resp.PID)
}

func terminatePID(pid int) error {
	if pid <= 0 {
		return errors.New("invalid pid")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}

func isDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
