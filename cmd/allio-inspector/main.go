// Command allio-inspector is a terminal UI for browsing a live Core's
// window and element tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchcask/allio/internal/demoadapter"
	"github.com/watchcask/allio/internal/inspector"
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
			fmt.Fprintf(os.Stderr, "allio-inspector: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.ApplyEnvOverrides()

	adapter := demoadapter.New()
	c, err := core.New(adapter, core.Config{
		ExcludePID:       cfg.ExcludePID,
		FilterFullscreen: cfg.FilterFullscreen,
		FilterOffscreen:  cfg.FilterOffscreen,
		PollInterval:     time.Duration(cfg.IntervalMS) * time.Millisecond,
		EventBusCapacity: cfg.EventChannelCapacity,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "allio-inspector: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c.Start(ctx)
	defer c.Close()

	program := tea.NewProgram(inspector.New(c), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "allio-inspector: %v\n", err)
		os.Exit(1)
	}
}
