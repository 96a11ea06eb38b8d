// Command allio-serve exposes core.Core over a JSON-RPC-over-WebSocket
// transport at /ws, plus a Prometheus /metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watchcask/allio/internal/demoadapter"
	"github.com/watchcask/allio/internal/wsrpc"
	"github.com/watchcask/allio/pkg/allio/config"
	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/monitoring"
)

func main() {
	addr := flag.String("addr", ":8787", "address to listen on")
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

	logger := log.New(os.Stderr, "allio-serve: ", log.LstdFlags)

	registry := prometheus.NewRegistry()
	monitoring.SetGlobalMetrics(monitoring.NewPrometheusMetrics(registry))

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

	mux := http.NewServeMux()
	mux.Handle("/ws", wsrpc.New(c, logger))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fatal(err)
		}
	case err := <-errCh:
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "allio-serve: %v\n", err)
	os.Exit(1)
}
