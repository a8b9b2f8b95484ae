// Package main provides the HTTP server for conversation close-out.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/raphaelgruber/closeout/internal/llm"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/server"
	"github.com/raphaelgruber/closeout/internal/service"
	"github.com/raphaelgruber/closeout/internal/sink"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	model, err := llm.NewModel(initCtx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	appender, err := newSink(initCtx, cfg)
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}

	collector := metrics.NewCollector()
	resolver := service.NewResolver(model, cfg.ResolverModel, loc, collector, logger)
	summarizer := service.NewSummarizer(model, cfg.SummaryModel, collector, logger)

	srv := server.New(cfg.Addr(), Version, &server.Dependencies{
		Closeout:   service.NewCloseoutService(summarizer, appender, cfg.Campaign.Sheets, loc, collector, logger),
		Booking:    service.NewBookingService(resolver, logger),
		Resolver:   resolver,
		Summarizer: summarizer,
		Metrics:    collector,
		Campaign:   cfg.Campaign,
		Logger:     logger,
	})

	logger.Info("starting closeout-server",
		"version", Version,
		"campaign", cfg.Campaign.Slug,
		"provider", cfg.LLMProvider,
		"sink", cfg.Sink,
		"anchor_zone", loc.String(),
	)
	return srv.Run(ctx)
}

func newSink(ctx context.Context, cfg config.Config) (sink.Appender, error) {
	switch cfg.Sink {
	case config.SinkSheets:
		return sink.NewSheets(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsFile)
	case config.SinkCSV:
		return sink.NewCSV(cfg.CSVDir)
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}
