package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tablesync/internal/scheduler"
	"tablesync/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control API and run synchronizations on the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, tracker := newSyncService(cfg)
		sched := scheduler.New(cfg.Sync.IntervalDuration(), svc.Trigger)
		server := web.NewServer(svc, tracker, sched)

		go sched.Start(ctx)

		if cfg.Sync.RunOnStart {
			if runID, err := svc.Trigger(); err != nil {
				logrus.WithError(err).Warn("initial synchronization not started")
			} else {
				logrus.WithField("run_id", runID).Info("initial synchronization started")
			}
		}

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start(cfg.Server.Addr())
		}()

		var runErr error
		select {
		case err := <-serverErr:
			if !errors.Is(err, http.ErrServerClosed) {
				runErr = fmt.Errorf("http server: %w", err)
			}
		case <-ctx.Done():
			logrus.Info("shutdown signal received")
		}
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("http server shutdown")
		}

		if tracker.Running() {
			logrus.Info("waiting for the active synchronization to stop")
		}
		// cancels an active run and waits for its connections to close
		svc.Stop()
		logrus.Info("server stopped")
		return runErr
	},
}
