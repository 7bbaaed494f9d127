package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"iexpense/internal/cli"
	"iexpense/internal/config"
	"iexpense/internal/expenses"
	"iexpense/internal/log"
	"iexpense/internal/shell"
	"iexpense/internal/view"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	cfg = cli.LoadAndValidateConfig(logger, cfg)

	ctx, stop := cli.ShutdownContext(log.NewContext(context.Background(), logger))
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	store := expenses.New(ctx, res.Store)
	formatter := view.NewFormatter(cfg.Locale)
	logger.Info("Starting iexpense",
		log.FieldBackend, cfg.Backend,
		log.FieldLocale, formatter.Locale(),
		"currency", formatter.Currency(),
		log.FieldCount, store.Len())

	sh := shell.New(store, formatter, os.Stdin, os.Stdout, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Leaving the shell ends the session.
		defer stop()
		err := sh.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Session ended with error", log.FieldError, err)
		os.Exit(1)
	}
}
