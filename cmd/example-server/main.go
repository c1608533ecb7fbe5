package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"storefront/client/internal/backend"
	"storefront/client/internal/logging"
)

const appName = "storefront"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "server-config.yaml", "path to server config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info or error")
	flag.Parse()

	displayAppname(appName)
	logger := logging.NewWithWriter(os.Stderr, logging.ParseLevel(*logLevel))
	defer logger.Close()

	cfg, err := backend.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger.Infof("example server: loaded config from %s", *configPath)

	server, err := backend.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}

func displayAppname(name string) {
	banner := figure.NewFigure(name, "cybermedium", true)
	banner.Print()
	fmt.Println()
}
