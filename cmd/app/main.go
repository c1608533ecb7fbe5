package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"storefront/client/internal/app"
	"storefront/client/internal/config"
	"storefront/client/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	appDir, err := config.DetectAppDir()
	if err != nil {
		return fmt.Errorf("determine app directory: %w", err)
	}
	defaultConfig := config.DefaultPath(appDir)
	configPath := flag.String("config", defaultConfig, "path to config.yaml")
	levelOverride := flag.String("log-level", "", "override log_level from config (debug, info, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath, appDir)
	if err != nil {
		return err
	}
	if *levelOverride != "" {
		if err := cfg.OverrideLogLevel(*levelOverride); err != nil {
			return fmt.Errorf("-log-level: %w", err)
		}
	}
	printBanner()

	logger, err := logging.New(cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Close()

	baseCtx := logging.WithContext(context.Background(), logger)
	ctx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Infof("storefront client starting (config: %s, api: %s, session: %s)",
		*configPath, cfg.APIBaseURL, cfg.SessionBackend)

	return startApp(ctx, cfg)
}

func startApp(ctx context.Context, cfg *config.Config) error {
	logger, ok := logging.FromContext(ctx)
	if !ok {
		return fmt.Errorf("logger not found in context")
	}
	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	if err := application.Run(); err != nil {
		application.Stop()
		return fmt.Errorf("launch application: %w", err)
	}

	// Сигнал ОС и выход из окна приходят с разных сторон; Stop идемпотентен.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			logger.Infof("signal received, closing windows")
			application.Stop()
		case <-application.Done():
		}
	}()

	application.RunUILoop()
	logger.Infof("fyne loop returned")
	application.Stop()
	<-watcherDone
	return nil
}

func printBanner() {
	figure.NewFigure("storefront", "small", true).Print()
	fmt.Println()
}
