package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lunch-menu/internal/metrics"
	"lunch-menu/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps()
		if err != nil {
			return err
		}
		defer rt.Close()

		if servePort != 0 {
			rt.cfg.Port = servePort
		}

		dataDir := filepath.Dir(rt.cfg.DatabasePath)
		srv, err := web.NewServer(rt.cfg, rt.app, func() map[string]any {
			h := metrics.GetSysHealth(dataDir)
			return map[string]any{
				"goroutines": h.Goroutines,
				"uptime":     h.Uptime.String(),
				"data_size":  h.DataDiskSize,
			}
		})
		if err != nil {
			return fmt.Errorf("creating web server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("web server failed: %w", err)
		case <-quit:
		}

		logrus.Info("shutting down web server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: config port)")
	rootCmd.AddCommand(serveCmd)
}
