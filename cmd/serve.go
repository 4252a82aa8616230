package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/tokentip/internal/tracing"
	"github.com/oakwood-commons/tokentip/pkg/bridge"
	"github.com/oakwood-commons/tokentip/pkg/logger"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve SCENE",
	Short: "Serve the tooltip app over HTTP for a browser-side host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		run := runFrom(cmd)
		shutdownTracing, err := tracing.Setup(ctx, run.TraceEndpoint, settings.CliBinaryName, settings.VersionInformation.BuildVersion)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.FromContext(ctx).Error(err, "flush traces")
			}
		}()

		b, err := openBoard(ctx, run, args[0])
		if err != nil {
			return err
		}
		defer b.close()

		lgr := *logger.FromContext(ctx)
		ln, err := net.Listen("tcp", run.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", run.Addr, err)
		}
		srv := &http.Server{
			Handler:           bridge.New(b.app, b.scene, b.doc, b.registry, lgr.WithName("bridge")).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		status(cmd, "serving %s on http://%s", b.scene.Name(), ln.Addr())
		lgr.Info("bridge listening", "addr", ln.Addr().String())
		return serve(ctx, srv, ln)
	},
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() { //nolint:gochecknoinits
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $TOKENTIP_ADDR or "+settings.DefaultAddr+")")
}
