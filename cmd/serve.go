package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/app"
	"github.com/jmehdipour/ux-autorater/internal/config"
	httpSrv "github.com/jmehdipour/ux-autorater/internal/http"
	"github.com/jmehdipour/ux-autorater/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server (webhook + checkout)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := logger.New(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		server := httpSrv.NewServer(cfg, a.ServerDeps(), log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Start(cfg.HTTP.Addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")

			timeout := cfg.HTTP.ShutdownTimeout
			if timeout <= 0 {
				timeout = 5 * time.Second
			}
			sctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := server.Shutdown(sctx); err != nil {
				log.Error("http shutdown", zap.Error(err))
			}
			return nil
		})

		return g.Wait()
	},
}
