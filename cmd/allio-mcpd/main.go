// Command allio-mcpd serves core.Core to LLM agents over the Model
// Context Protocol on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchcask/allio/internal/demoadapter"
	"github.com/watchcask/allio/internal/mcpserver"
	"github.com/watchcask/allio/pkg/allio/config"
	"github.com/watchcask/allio/pkg/allio/core"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults built in if omitted)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	cfg.ApplyEnvOverrides()

	logger := log.New(os.Stderr, "allio-mcpd: ", log.LstdFlags)

	adapter := demoadapter.New()
	c, err := core.New(adapter, core.Config{
		ExcludePID:       cfg.ExcludePID,
		FilterFullscreen: cfg.FilterFullscreen,
		FilterOffscreen:  cfg.FilterOffscreen,
		PollInterval:     time.Duration(cfg.IntervalMS) * time.Millisecond,
		EventBusCapacity: cfg.EventChannelCapacity,
		Logger:           logger,
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c.Start(ctx)
	defer c.Close()

	server := mcpserver.New(c)
	if err := server.StartStdio(ctx); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "allio-mcpd: %v\n", err)
	os.Exit(1)
}
