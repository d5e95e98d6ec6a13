package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/IgesAI/AMautomation/internal/infra/db"
	"github.com/IgesAI/AMautomation/internal/scheduler"
	"github.com/IgesAI/AMautomation/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the notification sweeps",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if !skipMigrate {
		if err := db.Migrate(a.db); err != nil {
			return err
		}
	}

	e := server.New(a.handlers, a.issuer, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx, e, cfg.Server.Port, cfg.Server.ShutdownTimeout, logger)
	})

	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return scheduler.New(a.notifier, cfg.Scheduler.Interval, logger).Run(ctx)
		})
	} else {
		logger.Info("scheduler disabled")
	}

	err = g.Wait()

	// 取引後の通知を送り切ってから閉じる
	a.txUC.Wait()
	if err != nil {
		logger.WithError(err).Error("server stopped with error")
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
